package entity

const (
	PlayerX = "X"
	PlayerO = "O"

	// ResultDraw is reported as the winner of a drawn round or a tied series.
	ResultDraw = "draw"

	EmptyCell = ""
)

const BoardSize = 9

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

type Board [BoardSize]string

// DetermineRoundResult returns the winning mark, ResultDraw for a full board
// without a line, or an empty string while the round can continue.
func (that *Board) DetermineRoundResult() string {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	// the round will continue until all the squares are full
	if !that.IsFull() {
		return ""
	}

	return ResultDraw
}

func (that *Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func (that *Board) Marks() int {
	marks := 0
	for _, cell := range that {
		if cell != EmptyCell {
			marks++
		}
	}

	return marks
}

func (that *Board) Reset() {
	*that = Board{}
}

func Opponent(mark string) string {
	if mark == PlayerX {
		return PlayerO
	}

	return PlayerX
}

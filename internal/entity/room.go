package entity

import (
	"fmt"
	"time"

	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/apperror"
)

const (
	MaxPlayers = 2

	DefaultRoundsTotal = 3
	DefaultMaxRounds   = 9
)

// Outcomes of an accepted move.
const (
	OutcomeTurnAdvanced = "turn_advanced"
	OutcomeRoundWon     = "round_won"
	OutcomeRoundDrawn   = "round_drawn"
)

// Outcomes of an accepted ready signal.
const (
	ReadyStillWaiting  = "still_waiting"
	ReadyRoundAdvanced = "round_advanced"
	ReadyGameConcluded = "game_concluded"
)

var marks = [...]string{PlayerX, PlayerO}

// Rules are fixed for a room at creation.
type Rules struct {
	DefaultRounds int `json:"default_rounds"`
	MaxRounds     int `json:"max_rounds"`
}

func DefaultRules() Rules {
	return Rules{
		DefaultRounds: DefaultRoundsTotal,
		MaxRounds:     DefaultMaxRounds,
	}
}

type Room struct {
	ID    string `json:"id"`
	Rules Rules  `json:"rules"`

	Board        Board          `json:"board"`
	Turn         string         `json:"turn"`
	RoundsTotal  int            `json:"rounds_total"`
	CurrentRound int            `json:"current_round"`
	Scores       map[string]int `json:"scores"`

	Players  []*Player `json:"players"`
	HostID   string    `json:"host_id"`
	HostMark string    `json:"host_mark"`
	// HostEpoch changes every time the host role moves to another participant.
	HostEpoch int `json:"host_epoch"`

	Started     bool            `json:"started"`
	RoundOver   bool            `json:"round_over"`
	RoundWinner string          `json:"round_winner,omitempty"`
	Concluded   bool            `json:"concluded"`
	FinalWinner string          `json:"final_winner,omitempty"`
	Ready       map[string]bool `json:"ready"`

	// PendingDeletion is set while the host grace period runs.
	PendingDeletion *time.Time `json:"pending_deletion,omitempty"`
	GraceEpoch      int        `json:"grace_epoch"`

	CreatedAt time.Time `json:"created_at"`
}

func NewRoom(id string, rules Rules) *Room {
	if rules.MaxRounds < 1 {
		rules.MaxRounds = DefaultMaxRounds
	}

	if rules.DefaultRounds < 1 || rules.DefaultRounds > rules.MaxRounds {
		rules.DefaultRounds = min(DefaultRoundsTotal, rules.MaxRounds)
	}

	return &Room{
		ID:           id,
		Rules:        rules,
		Turn:         PlayerX,
		RoundsTotal:  rules.DefaultRounds,
		CurrentRound: 1,
		Scores:       map[string]int{PlayerX: 0, PlayerO: 0},
		Players:      []*Player{},
		Ready:        map[string]bool{},
		CreatedAt:    time.Now().UTC(),
	}
}

// Join adds a connection to the roster and returns the mark it plays.
// The first connection to join a room without a host becomes the host.
func (that *Room) Join(connectionID, name string) (*Player, error) {
	if that.Player(connectionID) != nil {
		return nil, apperror.ErrAlreadyInRoom
	}

	if len(that.Players) >= MaxPlayers {
		return nil, apperror.ErrRoomFull
	}

	mark := that.freeMark()
	if mark == "" {
		return nil, apperror.ErrRoomFull
	}

	if name == "" {
		name = DefaultPlayerName(mark)
	}

	player := &Player{
		ConnectionID: connectionID,
		Mark:         mark,
		Name:         name,
	}
	that.Players = append(that.Players, player)

	if that.HostID == "" {
		that.HostID = connectionID
		that.HostMark = mark
	}

	return player, nil
}

// freeMark returns the first mark nobody holds. The host's mark stays reserved while the host is away.
func (that *Room) freeMark() string {
	for _, mark := range marks {
		if that.PlayerByMark(mark) != nil {
			continue
		}

		if that.IsAwaitingHost() && mark == that.HostMark {
			continue
		}

		return mark
	}

	return ""
}

// RestoreHost binds the absent host identity to a new connection.
func (that *Room) RestoreHost(connectionID, name string) (*Player, error) {
	if that.Player(connectionID) != nil {
		return nil, apperror.ErrAlreadyInRoom
	}

	if that.IsHostPresent() {
		return nil, apperror.ErrHostConnected
	}

	if that.PlayerByMark(that.HostMark) != nil || len(that.Players) >= MaxPlayers {
		return nil, apperror.ErrRoomFull
	}

	if name == "" {
		name = DefaultPlayerName(that.HostMark)
	}

	player := &Player{
		ConnectionID: connectionID,
		Mark:         that.HostMark,
		Name:         name,
	}
	that.Players = append(that.Players, player)
	that.HostID = connectionID
	that.PendingDeletion = nil

	return player, nil
}

// PromoteHost hands the host role to the oldest remaining participant.
func (that *Room) PromoteHost() (*Player, bool) {
	if len(that.Players) == 0 {
		return nil, false
	}

	host := that.Players[0]
	that.HostID = host.ConnectionID
	that.HostMark = host.Mark
	that.HostEpoch++

	return host, true
}

// BeginGrace marks the host as away until deadline and returns the id of this grace period.
func (that *Room) BeginGrace(deadline time.Time) int {
	that.GraceEpoch++
	that.PendingDeletion = &deadline

	return that.GraceEpoch
}

// IsGraceCurrent reports whether grace is the grace period still running.
func (that *Room) IsGraceCurrent(grace int) bool {
	return that.IsAwaitingHost() && that.GraceEpoch == grace
}

func (that *Room) StartGame(connectionID string, roundsTotal int) error {
	if connectionID != that.HostID || !that.IsHostPresent() {
		return apperror.ErrNotHost
	}

	if that.Started {
		return apperror.ErrAlreadyStarted
	}

	if len(that.Players) != MaxPlayers {
		return apperror.ErrIncompleteRoster
	}

	if roundsTotal < 1 || roundsTotal > that.Rules.MaxRounds {
		return fmt.Errorf("%w: got %d, want 1..%d", apperror.ErrInvalidRounds, roundsTotal, that.Rules.MaxRounds)
	}

	that.Board.Reset()
	that.Turn = PlayerX
	that.RoundsTotal = roundsTotal
	that.CurrentRound = 1
	that.Scores = map[string]int{PlayerX: 0, PlayerO: 0}
	that.Ready = map[string]bool{}
	that.Started = true
	that.RoundOver = false
	that.RoundWinner = ""
	that.Concluded = false
	that.FinalWinner = ""

	return nil
}

// ApplyMove places the mover's mark and resolves the round: win first, then draw, otherwise the turn passes.
func (that *Room) ApplyMove(connectionID string, cell int) (string, error) {
	if !that.Started {
		return "", apperror.ErrNotStarted
	}

	if that.RoundOver {
		return "", apperror.ErrRoundOver
	}

	player := that.Player(connectionID)
	if player == nil {
		return "", apperror.ErrNotParticipant
	}

	if len(that.Players) < MaxPlayers {
		return "", apperror.ErrIncompleteRoster
	}

	if cell < 0 || cell >= BoardSize {
		return "", fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.Turn != player.Mark {
		return "", apperror.ErrNotYourTurn
	}

	if that.Board[cell] != EmptyCell {
		return "", apperror.ErrCellOccupied
	}

	that.Board[cell] = player.Mark

	switch result := that.Board.DetermineRoundResult(); result {
	case PlayerX, PlayerO:
		that.Scores[result]++
		that.RoundOver = true
		that.RoundWinner = result
		return OutcomeRoundWon, nil
	case ResultDraw:
		that.RoundOver = true
		that.RoundWinner = ResultDraw
		return OutcomeRoundDrawn, nil
	default:
		that.Turn = Opponent(that.Turn)
		return OutcomeTurnAdvanced, nil
	}
}

// MarkReady records a readiness signal between rounds. Once every participant is ready the
// room either moves to the next round or concludes the series.
func (that *Room) MarkReady(connectionID string) (string, error) {
	if that.Concluded && !that.Started {
		return "", apperror.ErrGameConcluded
	}

	if !that.Started {
		return "", apperror.ErrNotStarted
	}

	if that.Player(connectionID) == nil {
		return "", apperror.ErrNotParticipant
	}

	if !that.RoundOver {
		return "", apperror.ErrRoundInProgress
	}

	that.Ready[connectionID] = true

	if len(that.Players) < MaxPlayers {
		return ReadyStillWaiting, nil
	}

	for _, player := range that.Players {
		if !that.Ready[player.ConnectionID] {
			return ReadyStillWaiting, nil
		}
	}

	that.Ready = map[string]bool{}

	if that.CurrentRound < that.RoundsTotal {
		that.CurrentRound++
		that.Board.Reset()
		that.Turn = PlayerX
		that.RoundOver = false
		that.RoundWinner = ""

		return ReadyRoundAdvanced, nil
	}

	that.FinalWinner = that.leader()
	that.Started = false
	that.Concluded = true

	return ReadyGameConcluded, nil
}

func (that *Room) leader() string {
	switch x, o := that.Scores[PlayerX], that.Scores[PlayerO]; {
	case x > o:
		return PlayerX
	case o > x:
		return PlayerO
	default:
		return ResultDraw
	}
}

// RemoveParticipant drops the connection from the roster and the ready set.
func (that *Room) RemoveParticipant(connectionID string) (*Player, bool) {
	for i, player := range that.Players {
		if player.ConnectionID != connectionID {
			continue
		}

		that.Players = append(that.Players[:i], that.Players[i+1:]...)
		delete(that.Ready, connectionID)

		return player, true
	}

	return nil, false
}

func (that *Room) Player(connectionID string) *Player {
	for _, player := range that.Players {
		if player.ConnectionID == connectionID {
			return player
		}
	}

	return nil
}

func (that *Room) PlayerByMark(mark string) *Player {
	for _, player := range that.Players {
		if player.Mark == mark {
			return player
		}
	}

	return nil
}

func (that *Room) IsHost(connectionID string) bool {
	return connectionID != "" && connectionID == that.HostID
}

func (that *Room) IsHostPresent() bool {
	return that.HostID != "" && that.Player(that.HostID) != nil
}

func (that *Room) IsAwaitingHost() bool {
	return that.PendingDeletion != nil
}

func (that *Room) IsEmpty() bool {
	return len(that.Players) == 0
}

// Snapshot returns a deep copy that can leave the room lock.
func (that *Room) Snapshot() Room {
	snapshot := *that

	snapshot.Scores = make(map[string]int, len(that.Scores))
	for mark, score := range that.Scores {
		snapshot.Scores[mark] = score
	}

	snapshot.Players = make([]*Player, 0, len(that.Players))
	for _, player := range that.Players {
		p := *player
		snapshot.Players = append(snapshot.Players, &p)
	}

	snapshot.Ready = make(map[string]bool, len(that.Ready))
	for id, ready := range that.Ready {
		snapshot.Ready[id] = ready
	}

	if that.PendingDeletion != nil {
		deadline := *that.PendingDeletion
		snapshot.PendingDeletion = &deadline
	}

	return snapshot
}

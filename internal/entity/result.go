package entity

import "time"

// Result is the record of a concluded series.
type Result struct {
	ID          int64     `json:"id"`
	RoomID      string    `json:"room_id"`
	Winner      string    `json:"winner"`
	ScoreX      int       `json:"score_x"`
	ScoreO      int       `json:"score_o"`
	RoundsTotal int       `json:"rounds_total"`
	PlayerX     string    `json:"player_x"`
	PlayerO     string    `json:"player_o"`
	FinishedAt  time.Time `json:"finished_at"`
}

// NewResult captures a room right after its series concluded.
func NewResult(room *Room) *Result {
	result := &Result{
		RoomID:      room.ID,
		Winner:      room.FinalWinner,
		ScoreX:      room.Scores[PlayerX],
		ScoreO:      room.Scores[PlayerO],
		RoundsTotal: room.RoundsTotal,
		FinishedAt:  time.Now().UTC(),
	}

	if player := room.PlayerByMark(PlayerX); player != nil {
		result.PlayerX = player.Name
	}

	if player := room.PlayerByMark(PlayerO); player != nil {
		result.PlayerO = player.Name
	}

	return result
}

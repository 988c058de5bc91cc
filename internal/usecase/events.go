package usecase

import "github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/entity"

// Outbound actions.
const (
	ActionRoomCreated          = "room:created"
	ActionRoomJoined           = "room:joined"
	ActionPlayerSymbol         = "player:symbol"
	ActionPlayerJoined         = "player:joined"
	ActionGameStarted          = "game:started"
	ActionBoardUpdated         = "board:updated"
	ActionRoundConcluded       = "round:concluded"
	ActionRoundAdvanced        = "round:advanced"
	ActionGameConcluded        = "game:concluded"
	ActionOpponentDisconnected = "opponent:disconnected"
	ActionHostChanged          = "host:changed"
	ActionHostToken            = "host:token"
	ActionRoomNotFound         = "room:not_found"
	ActionRoomFull             = "room:full"
	ActionError                = "error"
)

const (
	messageHostAway = "Host disconnected. Waiting for them to reconnect."
	messageLeft     = "Opponent disconnected."
	messageNewHost  = "Host did not come back. You are the host now."
)

type Event struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

type PlayerView struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
}

// RoomState is the public view of a room. It never exposes connection ids.
type RoomState struct {
	RoomID       string         `json:"roomId"`
	Board        entity.Board   `json:"board"`
	Turn         string         `json:"turn"`
	Scores       map[string]int `json:"scores"`
	CurrentRound int            `json:"currentRound"`
	RoundsTotal  int            `json:"roundsTotal"`
	Started      bool           `json:"started"`
	RoundOver    bool           `json:"roundOver"`
	AwaitingHost bool           `json:"awaitingHost"`
	Players      []PlayerView   `json:"players"`
}

func NewRoomState(room *entity.Room) RoomState {
	snapshot := room.Snapshot()

	players := make([]PlayerView, 0, len(snapshot.Players))
	for _, player := range snapshot.Players {
		players = append(players, PlayerView{
			Symbol: player.Mark,
			Name:   player.Name,
			IsHost: snapshot.IsHost(player.ConnectionID),
		})
	}

	return RoomState{
		RoomID:       snapshot.ID,
		Board:        snapshot.Board,
		Turn:         snapshot.Turn,
		Scores:       snapshot.Scores,
		CurrentRound: snapshot.CurrentRound,
		RoundsTotal:  snapshot.RoundsTotal,
		Started:      snapshot.Started,
		RoundOver:    snapshot.RoundOver,
		AwaitingHost: snapshot.IsAwaitingHost(),
		Players:      players,
	}
}

type RoomCreatedPayload struct {
	RoomID    string    `json:"roomId"`
	HostToken string    `json:"hostToken"`
	State     RoomState `json:"state"`
}

type PlayerSymbolPayload struct {
	Symbol string `json:"symbol"`
}

type RoomJoinedPayload struct {
	RoomID  string       `json:"roomId"`
	IsHost  bool         `json:"isHost"`
	Resumed bool         `json:"resumed"`
	Players []PlayerView `json:"players"`
	State   RoomState    `json:"state"`
}

type PlayerJoinedPayload struct {
	PlayerCount int          `json:"playerCount"`
	CanStart    bool         `json:"canStart"`
	Players     []PlayerView `json:"players"`
}

type StatePayload struct {
	State RoomState `json:"state"`
}

type MovePayload struct {
	Cell   int       `json:"cell"`
	Symbol string    `json:"symbol"`
	State  RoomState `json:"state"`
}

type RoundConcludedPayload struct {
	Winner string         `json:"winner"`
	Board  entity.Board   `json:"board"`
	Scores map[string]int `json:"scores"`
	State  RoomState      `json:"state"`
}

type GameConcludedPayload struct {
	FinalScores map[string]int `json:"finalScores"`
	FinalWinner string         `json:"finalWinner"`
	State       RoomState      `json:"state"`
}

type OpponentDisconnectedPayload struct {
	Message      string    `json:"message"`
	AwaitingHost bool      `json:"awaitingHost"`
	State        RoomState `json:"state"`
}

type HostChangedPayload struct {
	Message    string    `json:"message"`
	HostSymbol string    `json:"hostSymbol"`
	State      RoomState `json:"state"`
}

type HostTokenPayload struct {
	RoomID    string `json:"roomId"`
	HostToken string `json:"hostToken"`
}

type ErrorPayload struct {
	Action string `json:"action,omitempty"`
	RoomID string `json:"roomId,omitempty"`
	Reason string `json:"reason"`
	Code   string `json:"code"`
}

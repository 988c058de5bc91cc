package websocket

import "encoding/json"

// Inbound actions.
const (
	actionCreateRoom = "room:create"
	actionJoinRoom   = "room:join"
	actionRejoinRoom = "room:rejoin"
	actionStartGame  = "game:start"
	actionMakeMove   = "game:move"
	actionReady      = "round:ready"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type createRoomRequest struct {
	Name string `json:"name"`
}

type joinRoomRequest struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type rejoinRoomRequest struct {
	RoomID    string `json:"roomId"`
	HostToken string `json:"hostToken"`
	Name      string `json:"name"`
}

type startGameRequest struct {
	RoomID string `json:"roomId"`
	Rounds int    `json:"rounds"`
}

type makeMoveRequest struct {
	RoomID string `json:"roomId"`
	Cell   *int   `json:"cell"`
}

type readyRequest struct {
	RoomID string `json:"roomId"`
}

type roomRef struct {
	RoomID string `json:"roomId"`
}

package entity

import "fmt"

// Player is a roster entry. A room only knows connection ids, the transport owns the sockets.
type Player struct {
	ConnectionID string `json:"connection_id"`
	Mark         string `json:"mark"`
	Name         string `json:"name"`
}

func DefaultPlayerName(mark string) string {
	return fmt.Sprintf("Player %s", mark)
}

package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/usecase"
)

// Hub is the directory of live connections. Rooms only know connection ids,
// the hub turns them into sockets.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "hub"),
		clients: make(map[string]*Client),
	}
}

func (that *Hub) register(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clients[client.ID] = client
}

func (that *Hub) unregister(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.clients[client.ID]; ok && current == client {
		delete(that.clients, client.ID)
		client.closeSend()
	}
}

// Send queues an event for one connection without blocking. A connection that
// cannot keep up is closed, its read pump then runs the disconnect path.
func (that *Hub) Send(connectionID string, event usecase.Event) {
	log := that.logger.With("method", "Send", "connection_id", connectionID, "action", event.Action)

	message, err := json.Marshal(event)
	if err != nil {
		log.Error("failed to marshal event", "error", err)
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	client, ok := that.clients[connectionID]
	if !ok {
		log.Debug("connection is gone, event dropped")
		return
	}

	select {
	case client.send <- message:
	default:
		log.Warn("send buffer is full, closing connection")
		_ = client.conn.Close()
	}
}

func (that *Hub) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.clients)
}

// Close drops every connection.
func (that *Hub) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for id, client := range that.clients {
		client.closeSend()
		_ = client.conn.Close()
		delete(that.clients, id)
	}
}

package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Client struct {
	ID string

	conn   *websocket.Conn
	send   chan []byte
	server *Server

	closeOnce sync.Once
}

func (that *Client) closeSend() {
	that.closeOnce.Do(func() {
		close(that.send)
	})
}

// readPump routes inbound messages until the socket fails, then runs the disconnect path.
func (that *Client) readPump(ctx context.Context) {
	log := that.server.logger.With("method", "readPump", "connection_id", that.ID)

	defer func() {
		that.server.hub.unregister(that)
		_ = that.conn.Close()

		if err := that.server.gameUseCase.Disconnect(context.WithoutCancel(ctx), that.ID); err != nil {
			log.Error("failed to handle disconnect", "error", err)
		}

		log.Info("WebSocket connection closed")
	}()

	pongWait := that.server.conf.PongWait

	that.conn.SetReadLimit(maxMessageSize)
	if err := that.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Error("failed to set read deadline", "error", err)
	}

	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, reqBody, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Error("error reading message", "error", err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			that.server.sendErrorResponse(that, "", "", errMalformedMessage)
			continue
		}

		that.server.handleMessage(ctx, that, &message)
	}
}

// writePump is the only writer of the socket.
func (that *Client) writePump() {
	log := that.server.logger.With("method", "writePump", "connection_id", that.ID)

	ticker := time.NewTicker(that.server.conf.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	writeWait := that.server.conf.WriteWait

	for {
		select {
		case message, ok := <-that.send:
			if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error("failed to set write deadline", "error", err)
			}

			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error("failed to set write deadline", "error", err)
			}

			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

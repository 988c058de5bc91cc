package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/config"
)

const maxMessageSize = 4096

const shutdownTimeout = 5 * time.Second

type gameUseCase interface {
	CreateRoom(ctx context.Context, connectionID, name string) (string, error)
	JoinRoom(ctx context.Context, connectionID, roomID, name string) error
	RejoinRoom(ctx context.Context, connectionID, roomID, token, name string) error
	StartGame(ctx context.Context, connectionID, roomID string, rounds int) error
	MakeMove(ctx context.Context, connectionID, roomID string, cell int) error
	MarkReady(ctx context.Context, connectionID, roomID string) error
	Disconnect(ctx context.Context, connectionID string) error
}

type handlerFunc func(ctx context.Context, client *Client, message *Message) error

type Server struct {
	logger *slog.Logger
	conf   config.WebSocket

	hub         *Hub
	gameUseCase gameUseCase
	upgrader    websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, conf config.WebSocket, hub *Hub, gameUseCase gameUseCase) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		conf:        conf,
		hub:         hub,
		gameUseCase: gameUseCase,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionCreateRoom] = server.handleCreateRoom
	server.handlers[actionJoinRoom] = server.handleJoinRoom
	server.handlers[actionRejoinRoom] = server.handleRejoinRoom
	server.handlers[actionStartGame] = server.handleStartGame
	server.handlers[actionMakeMove] = server.handleMakeMove
	server.handlers[actionReady] = server.handleReady

	return server
}

// Handler returns the router serving the /ws endpoint.
func (that *Server) Handler(ctx context.Context) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	}).Methods(http.MethodGet)

	return router
}

// Start - starts WebSocket server and blocks until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	log := that.logger.With("method", "Start")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown server", "error", err)
		}

		that.hub.Close()
	}()

	log.Info("WebSocket server is listening", "port", port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection and starts its pumps.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := &Client{
		ID:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, that.conf.SendBuffer),
		server: that,
	}

	that.hub.register(client)

	log.Info("WebSocket connection established", "connection_id", client.ID)

	go client.writePump()
	go client.readPump(ctx)
}

func (that *Server) handleMessage(ctx context.Context, client *Client, message *Message) {
	log := that.logger.With("method", "handleMessage", "connection_id", client.ID, "action", message.Action)

	handler, ok := that.handlers[message.Action]
	if !ok {
		log.Warn("unknown action")
		that.sendErrorResponse(client, message.Action, "", errUnknownAction)
		return
	}

	if err := handler(ctx, client, message); err != nil {
		log.Info("request rejected", "error", err)
	}
}

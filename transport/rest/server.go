package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type roomRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Room, error)
}

type resultRepository interface {
	List(ctx context.Context, limit int) ([]*entity.Result, error)
}

type Server struct {
	logger *slog.Logger

	rooms   roomRepository
	results resultRepository
}

// New builds the HTTP API. results may be nil when the results ledger is disabled.
func New(logger *slog.Logger, rooms roomRepository, results resultRepository) *Server {
	return &Server{
		logger:  logger.With("component", "rest"),
		rooms:   rooms,
		results: results,
	}
}

func (that *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/ping", that.handlePing).Methods(http.MethodGet)
	router.HandleFunc("/rooms/{id}", that.handleGetRoom).Methods(http.MethodGet)
	router.HandleFunc("/results", that.handleListResults).Methods(http.MethodGet)

	return router
}

// Start - starts HTTP server and blocks until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	log := that.logger.With("method", "Start")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown server", "error", err)
		}
	}()

	log.Info("HTTP server is listening", "port", port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

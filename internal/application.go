package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/config"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/entity"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/registry"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/repository"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/repository/storage"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/service"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/session"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/supervisor"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/usecase"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/transport/rest"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	roomRepo, closeRooms, err := initRoomRepository(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeRooms()

	resultRepo, closeResults, err := initResultRepository(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeResults()

	secret := conf.JWTSecretKey
	if secret == "" {
		secret = uuid.NewString()
		log.Warn("jwt secret key is not set, host tokens will not survive a restart")
	}

	auth, err := service.NewAuthService(secret, conf.Game.HostTokenTTL)
	if err != nil {
		return fmt.Errorf("could not init auth service: %w", err)
	}

	rooms := registry.New(entity.Rules{
		DefaultRounds: conf.Game.DefaultRounds,
		MaxRounds:     conf.Game.MaxRounds,
	})
	binder := session.NewBinder(rooms)

	scheduler := supervisor.NewScheduler(logger)
	defer scheduler.Stop()

	gameUseCase := usecase.NewGameManager(logger, rooms, binder, scheduler, auth, roomRepo, resultRepo, usecase.Options{
		GracePeriod:     conf.Game.GracePeriod,
		ReconnectPolicy: conf.Game.ReconnectPolicy,
	})

	hub := websocket.NewHub(logger)
	gameUseCase.SetNotifier(hub)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		httpServer := rest.New(logger, roomRepo, resultRepo)
		if httpErr := httpServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, conf.WebSocket, hub, gameUseCase)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// initRoomRepository picks the snapshot mirror. Redis is used when enabled, memory otherwise.
func initRoomRepository(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.RoomRepository, func(), error) {
	if !conf.Redis.Enabled {
		log.Info("redis is disabled, room snapshots are kept in memory")
		return repository.NewMemoryRoomRepository(), func() {}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeFn := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewRoomRepository(redisStorage.Connection, conf.Redis.RoomTTL), closeFn, nil
}

// initResultRepository opens the results ledger. An empty path disables it.
func initResultRepository(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.ResultRepository, func(), error) {
	if conf.SQLiteStoragePath == "" {
		log.Info("sqlite storage path is not set, results are not recorded")
		return nil, func() {}, nil
	}

	sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
	}

	if err = sqliteStorage.Init(ctx); err != nil {
		_ = sqliteStorage.Close()
		return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
	}

	closeFn := func() {
		if err := sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}

	return repository.NewResultRepository(sqliteStorage.Connection), closeFn, nil
}

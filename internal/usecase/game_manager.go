package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/apperror"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/config"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/entity"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/session"
)

type notifier interface {
	Send(connectionID string, event Event)
}

type roomRegistry interface {
	Find(id string) (entity.Room, error)
	Update(id string, fn func(room *entity.Room) error) error
	Delete(id string) bool
}

type binder interface {
	BindHost(connectionID, name string, fn func(room *entity.Room) error) (session.Binding, error)
	BindGuest(room *entity.Room, connectionID, name string) (session.Binding, error)
	BindResumedHost(room *entity.Room, connectionID, name string) (session.Binding, error)
	Resolve(connectionID string) (session.Binding, error)
	Unbind(connectionID string) (session.Binding, bool)
}

type scheduler interface {
	Schedule(key string, d time.Duration, fn func())
	Cancel(key string) bool
}

type authService interface {
	GenerateHostToken(roomID string, hostEpoch int) (string, error)
	VerifyHostToken(token, roomID string, hostEpoch int) error
}

type roomRepo interface {
	CreateOrUpdate(ctx context.Context, room *entity.Room) error
	DeleteByID(ctx context.Context, id string) error
}

type resultRepo interface {
	Save(ctx context.Context, result *entity.Result) error
}

type Options struct {
	GracePeriod     time.Duration
	ReconnectPolicy string
}

// GameManager drives every room transition. Each accepted transition is broadcast exactly once
// while the room lock is held, so every participant sees the transitions in mutation order.
type GameManager struct {
	logger *slog.Logger

	rooms     roomRegistry
	binder    binder
	scheduler scheduler
	auth      authService
	notifier  notifier

	roomRepo   roomRepo
	resultRepo resultRepo

	options Options
	now     func() time.Time
}

func NewGameManager(
	logger *slog.Logger,
	rooms roomRegistry,
	binder binder,
	scheduler scheduler,
	auth authService,
	roomRepo roomRepo,
	resultRepo resultRepo,
	options Options,
) *GameManager {
	if options.ReconnectPolicy == "" {
		options.ReconnectPolicy = config.ReconnectPolicyResume
	}

	return &GameManager{
		logger:     logger.With("component", "game_manager"),
		rooms:      rooms,
		binder:     binder,
		scheduler:  scheduler,
		auth:       auth,
		roomRepo:   roomRepo,
		resultRepo: resultRepo,
		options:    options,
		now:        time.Now,
	}
}

// SetNotifier wires the outbound side. The transport is built after the manager.
func (that *GameManager) SetNotifier(notifier notifier) {
	that.notifier = notifier
}

// CreateRoom opens a room with the requester as its host.
func (that *GameManager) CreateRoom(ctx context.Context, connectionID, name string) (string, error) {
	log := that.logger.With("method", "CreateRoom", "connection_id", connectionID)

	binding, err := that.binder.BindHost(connectionID, name, func(room *entity.Room) error {
		token, err := that.auth.GenerateHostToken(room.ID, room.HostEpoch)
		if err != nil {
			return fmt.Errorf("failed to generate host token: %w", err)
		}

		that.send(connectionID, ActionRoomCreated, RoomCreatedPayload{
			RoomID:    room.ID,
			HostToken: token,
			State:     NewRoomState(room),
		})
		that.send(connectionID, ActionPlayerSymbol, PlayerSymbolPayload{Symbol: room.HostMark})

		that.saveSnapshot(ctx, room)

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to create room: %w", err)
	}

	log.Info("room created", "room_id", binding.RoomID)

	return binding.RoomID, nil
}

// JoinRoom seats the requester in an existing room.
func (that *GameManager) JoinRoom(ctx context.Context, connectionID, roomID, name string) error {
	log := that.logger.With("method", "JoinRoom", "connection_id", connectionID, "room_id", roomID)

	err := that.rooms.Update(roomID, func(room *entity.Room) error {
		binding, err := that.binder.BindGuest(room, connectionID, name)
		if err != nil {
			return err
		}

		state := NewRoomState(room)
		that.send(connectionID, ActionRoomJoined, RoomJoinedPayload{
			RoomID:  room.ID,
			IsHost:  room.IsHost(connectionID),
			Players: state.Players,
			State:   state,
		})
		that.send(connectionID, ActionPlayerSymbol, PlayerSymbolPayload{Symbol: binding.Mark})

		that.broadcast(room, ActionPlayerJoined, PlayerJoinedPayload{
			PlayerCount: len(room.Players),
			CanStart:    len(room.Players) == entity.MaxPlayers && room.IsHostPresent(),
			Players:     state.Players,
		})

		that.saveSnapshot(ctx, room)

		log.Info("player joined", "mark", binding.Mark, "players", len(room.Players))

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	return nil
}

// RejoinRoom gives an absent host its seat back during the grace period.
func (that *GameManager) RejoinRoom(ctx context.Context, connectionID, roomID, token, name string) error {
	log := that.logger.With("method", "RejoinRoom", "connection_id", connectionID, "room_id", roomID)

	err := that.rooms.Update(roomID, func(room *entity.Room) error {
		if err := that.auth.VerifyHostToken(token, room.ID, room.HostEpoch); err != nil {
			return fmt.Errorf("failed to verify host token: %w", err)
		}

		if !room.IsAwaitingHost() {
			return apperror.ErrHostConnected
		}

		binding, err := that.binder.BindResumedHost(room, connectionID, name)
		if err != nil {
			return err
		}

		that.scheduler.Cancel(room.ID)

		state := NewRoomState(room)
		that.send(connectionID, ActionRoomJoined, RoomJoinedPayload{
			RoomID:  room.ID,
			IsHost:  true,
			Resumed: true,
			Players: state.Players,
			State:   state,
		})
		that.send(connectionID, ActionPlayerSymbol, PlayerSymbolPayload{Symbol: binding.Mark})

		that.broadcast(room, ActionPlayerJoined, PlayerJoinedPayload{
			PlayerCount: len(room.Players),
			CanStart:    len(room.Players) == entity.MaxPlayers && !room.Started,
			Players:     state.Players,
		})

		that.saveSnapshot(ctx, room)

		log.Info("host resumed", "mark", binding.Mark)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to rejoin room: %w", err)
	}

	return nil
}

// StartGame starts a series. Zero rounds keeps the room's current setting.
func (that *GameManager) StartGame(ctx context.Context, connectionID, roomID string, rounds int) error {
	log := that.logger.With("method", "StartGame", "connection_id", connectionID, "room_id", roomID)

	binding, err := that.resolve(connectionID, roomID)
	if err != nil {
		return err
	}

	err = that.rooms.Update(binding.RoomID, func(room *entity.Room) error {
		if rounds == 0 {
			rounds = room.RoundsTotal
		}

		if err := room.StartGame(connectionID, rounds); err != nil {
			return err
		}

		that.broadcast(room, ActionGameStarted, StatePayload{State: NewRoomState(room)})
		that.saveSnapshot(ctx, room)

		log.Info("game started", "rounds", room.RoundsTotal)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}

	return nil
}

func (that *GameManager) MakeMove(ctx context.Context, connectionID, roomID string, cell int) error {
	log := that.logger.With("method", "MakeMove", "connection_id", connectionID, "room_id", roomID)

	binding, err := that.resolve(connectionID, roomID)
	if err != nil {
		return err
	}

	err = that.rooms.Update(binding.RoomID, func(room *entity.Room) error {
		outcome, err := room.ApplyMove(connectionID, cell)
		if err != nil {
			return err
		}

		state := NewRoomState(room)

		switch outcome {
		case entity.OutcomeRoundWon, entity.OutcomeRoundDrawn:
			that.broadcast(room, ActionRoundConcluded, RoundConcludedPayload{
				Winner: room.RoundWinner,
				Board:  state.Board,
				Scores: state.Scores,
				State:  state,
			})
			log.Info("round concluded", "round", room.CurrentRound, "winner", room.RoundWinner)
		default:
			that.broadcast(room, ActionBoardUpdated, MovePayload{
				Cell:   cell,
				Symbol: binding.Mark,
				State:  state,
			})
		}

		that.saveSnapshot(ctx, room)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	return nil
}

// MarkReady records that the requester wants the next round.
func (that *GameManager) MarkReady(ctx context.Context, connectionID, roomID string) error {
	log := that.logger.With("method", "MarkReady", "connection_id", connectionID, "room_id", roomID)

	binding, err := that.resolve(connectionID, roomID)
	if err != nil {
		return err
	}

	err = that.rooms.Update(binding.RoomID, func(room *entity.Room) error {
		outcome, err := room.MarkReady(connectionID)
		if err != nil {
			return err
		}

		switch outcome {
		case entity.ReadyRoundAdvanced:
			that.broadcast(room, ActionRoundAdvanced, StatePayload{State: NewRoomState(room)})
			log.Info("round advanced", "round", room.CurrentRound)
		case entity.ReadyGameConcluded:
			state := NewRoomState(room)
			that.broadcast(room, ActionGameConcluded, GameConcludedPayload{
				FinalScores: state.Scores,
				FinalWinner: room.FinalWinner,
				State:       state,
			})
			that.saveResult(ctx, room)
			log.Info("game concluded", "winner", room.FinalWinner)
		default:
			return nil
		}

		that.saveSnapshot(ctx, room)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark ready: %w", err)
	}

	return nil
}

// Disconnect removes a connection from its room. A departing host gets a grace period
// when the reconnect policy allows it, anybody else leaves immediately.
func (that *GameManager) Disconnect(ctx context.Context, connectionID string) error {
	log := that.logger.With("method", "Disconnect", "connection_id", connectionID)

	binding, ok := that.binder.Unbind(connectionID)
	if !ok {
		return nil
	}

	err := that.rooms.Update(binding.RoomID, func(room *entity.Room) error {
		if _, removed := room.RemoveParticipant(connectionID); !removed {
			return nil
		}

		if room.IsHost(connectionID) && that.options.ReconnectPolicy == config.ReconnectPolicyResume {
			that.awaitHost(ctx, room)
			log.Info("host disconnected, grace period started", "room_id", room.ID, "grace", that.options.GracePeriod)

			return nil
		}

		if room.IsEmpty() {
			that.scheduler.Cancel(room.ID)
			that.deleteRoom(ctx, room.ID)
			log.Info("last player left, room deleted", "room_id", room.ID)

			return nil
		}

		if room.IsHost(connectionID) {
			room.PromoteHost()
		}

		that.broadcast(room, ActionOpponentDisconnected, OpponentDisconnectedPayload{
			Message:      messageLeft,
			AwaitingHost: room.IsAwaitingHost(),
			State:        NewRoomState(room),
		})
		that.saveSnapshot(ctx, room)

		log.Info("player left", "room_id", room.ID, "mark", binding.Mark)

		return nil
	})
	if err != nil && !errors.Is(err, apperror.ErrRoomNotFound) {
		return fmt.Errorf("failed to disconnect: %w", err)
	}

	return nil
}

// awaitHost arms the grace timer. The caller must hold the room lock.
func (that *GameManager) awaitHost(ctx context.Context, room *entity.Room) {
	grace := room.BeginGrace(that.now().Add(that.options.GracePeriod))

	roomID := room.ID
	that.scheduler.Schedule(roomID, that.options.GracePeriod, func() {
		that.ExpireRoom(context.WithoutCancel(ctx), roomID, grace)
	})

	if !room.IsEmpty() {
		that.broadcast(room, ActionOpponentDisconnected, OpponentDisconnectedPayload{
			Message:      messageHostAway,
			AwaitingHost: true,
			State:        NewRoomState(room),
		})
	}

	that.saveSnapshot(ctx, room)
}

// ExpireRoom ends the grace period identified by grace. It is a no-op when the host came back,
// a newer grace period started, or the room is gone.
func (that *GameManager) ExpireRoom(ctx context.Context, roomID string, grace int) {
	log := that.logger.With("method", "ExpireRoom", "room_id", roomID, "grace", grace)

	err := that.rooms.Update(roomID, func(room *entity.Room) error {
		if !room.IsGraceCurrent(grace) {
			log.Debug("stale expiry ignored")
			return nil
		}

		if room.IsEmpty() {
			that.deleteRoom(ctx, room.ID)
			log.Info("grace period expired, room deleted")

			return nil
		}

		room.PendingDeletion = nil
		room.PromoteHost()

		that.broadcast(room, ActionHostChanged, HostChangedPayload{
			Message:    messageNewHost,
			HostSymbol: room.HostMark,
			State:      NewRoomState(room),
		})
		that.sendHostToken(room)
		that.saveSnapshot(ctx, room)

		log.Info("grace period expired, room kept", "host_mark", room.HostMark)

		return nil
	})
	if err != nil && !errors.Is(err, apperror.ErrRoomNotFound) {
		log.Error("failed to expire room", "error", err)
	}
}

func (that *GameManager) Room(roomID string) (entity.Room, error) {
	room, err := that.rooms.Find(roomID)
	if err != nil {
		return entity.Room{}, fmt.Errorf("failed to find room: %w", err)
	}

	return room, nil
}

// resolve checks that the requester acts in the room it is bound to.
func (that *GameManager) resolve(connectionID, roomID string) (session.Binding, error) {
	binding, err := that.binder.Resolve(connectionID)
	if err != nil {
		return session.Binding{}, err
	}

	if roomID != "" && roomID != binding.RoomID {
		return session.Binding{}, fmt.Errorf("%w: bound to %s", apperror.ErrNotParticipant, binding.RoomID)
	}

	return binding, nil
}

// sendHostToken hands the current host a token for resuming its seat.
func (that *GameManager) sendHostToken(room *entity.Room) {
	token, err := that.auth.GenerateHostToken(room.ID, room.HostEpoch)
	if err != nil {
		that.logger.Error("failed to generate host token", "room_id", room.ID, "error", err)
		return
	}

	that.send(room.HostID, ActionHostToken, HostTokenPayload{
		RoomID:    room.ID,
		HostToken: token,
	})
}

func (that *GameManager) broadcast(room *entity.Room, action string, payload any) {
	for _, player := range room.Players {
		that.send(player.ConnectionID, action, payload)
	}
}

func (that *GameManager) send(connectionID, action string, payload any) {
	if that.notifier == nil {
		return
	}

	that.notifier.Send(connectionID, Event{Action: action, Payload: payload})
}

// deleteRoom drops the room from the registry and the mirror. The caller must hold the room lock.
func (that *GameManager) deleteRoom(ctx context.Context, roomID string) {
	log := that.logger.With("method", "deleteRoom", "room_id", roomID)

	that.rooms.Delete(roomID)

	if that.roomRepo == nil {
		return
	}

	if err := that.roomRepo.DeleteByID(ctx, roomID); err != nil && !errors.Is(err, apperror.ErrNotFound) {
		log.Error("failed to delete room snapshot", "error", err)
	}
}

func (that *GameManager) saveSnapshot(ctx context.Context, room *entity.Room) {
	if that.roomRepo == nil {
		return
	}

	if err := that.roomRepo.CreateOrUpdate(ctx, room); err != nil {
		that.logger.Error("failed to save room snapshot", "room_id", room.ID, "error", err)
	}
}

func (that *GameManager) saveResult(ctx context.Context, room *entity.Room) {
	if that.resultRepo == nil {
		return
	}

	if err := that.resultRepo.Save(ctx, entity.NewResult(room)); err != nil {
		that.logger.Error("failed to save result", "room_id", room.ID, "error", err)
	}
}

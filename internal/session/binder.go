package session

import (
	"fmt"
	"sync"

	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/apperror"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/entity"
)

type roomRegistry interface {
	Create() (string, error)
	Update(id string, fn func(room *entity.Room) error) error
	Delete(id string) bool
}

// Binding is what a live connection is allowed to act on.
type Binding struct {
	ConnectionID string
	RoomID       string
	Mark         string
}

// Binder maps connections to the single room they act in.
type Binder struct {
	mu       sync.RWMutex
	bindings map[string]Binding

	rooms roomRegistry
}

func NewBinder(rooms roomRegistry) *Binder {
	return &Binder{
		bindings: make(map[string]Binding),
		rooms:    rooms,
	}
}

// BindHost creates a room and seats the connection as its host.
// fn runs under the new room's lock after the host joined.
func (that *Binder) BindHost(connectionID, name string, fn func(room *entity.Room) error) (Binding, error) {
	if that.isBound(connectionID) {
		return Binding{}, apperror.ErrAlreadyBound
	}

	roomID, err := that.rooms.Create()
	if err != nil {
		return Binding{}, fmt.Errorf("failed to create room: %w", err)
	}

	var binding Binding
	err = that.rooms.Update(roomID, func(room *entity.Room) error {
		player, joinErr := room.Join(connectionID, name)
		if joinErr != nil {
			return joinErr
		}

		binding, joinErr = that.bind(connectionID, roomID, player.Mark)
		if joinErr != nil {
			room.RemoveParticipant(connectionID)
			return joinErr
		}

		if fn != nil {
			return fn(room)
		}

		return nil
	})
	if err != nil {
		that.rooms.Delete(roomID)
		if bound, _ := that.Resolve(connectionID); bound.RoomID == roomID {
			that.Unbind(connectionID)
		}

		return Binding{}, fmt.Errorf("failed to seat host: %w", err)
	}

	return binding, nil
}

// BindGuest seats the connection in an existing room. The caller must hold the room lock.
func (that *Binder) BindGuest(room *entity.Room, connectionID, name string) (Binding, error) {
	if that.isBound(connectionID) {
		return Binding{}, apperror.ErrAlreadyBound
	}

	player, err := room.Join(connectionID, name)
	if err != nil {
		return Binding{}, err
	}

	binding, err := that.bind(connectionID, room.ID, player.Mark)
	if err != nil {
		room.RemoveParticipant(connectionID)
		return Binding{}, err
	}

	return binding, nil
}

// BindResumedHost hands the absent host seat to a new connection. The caller must hold the room lock.
func (that *Binder) BindResumedHost(room *entity.Room, connectionID, name string) (Binding, error) {
	if that.isBound(connectionID) {
		return Binding{}, apperror.ErrAlreadyBound
	}

	player, err := room.RestoreHost(connectionID, name)
	if err != nil {
		return Binding{}, err
	}

	binding, err := that.bind(connectionID, room.ID, player.Mark)
	if err != nil {
		room.RemoveParticipant(connectionID)
		return Binding{}, err
	}

	return binding, nil
}

func (that *Binder) Resolve(connectionID string) (Binding, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	binding, ok := that.bindings[connectionID]
	if !ok {
		return Binding{}, apperror.ErrNotBound
	}

	return binding, nil
}

// Unbind only forgets the binding, roster membership is left to the caller.
func (that *Binder) Unbind(connectionID string) (Binding, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	binding, ok := that.bindings[connectionID]
	if ok {
		delete(that.bindings, connectionID)
	}

	return binding, ok
}

func (that *Binder) Connections(roomID string) []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	var connections []string
	for id, binding := range that.bindings {
		if binding.RoomID == roomID {
			connections = append(connections, id)
		}
	}

	return connections
}

func (that *Binder) bind(connectionID, roomID, mark string) (Binding, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.bindings[connectionID]; ok {
		return Binding{}, apperror.ErrAlreadyBound
	}

	binding := Binding{
		ConnectionID: connectionID,
		RoomID:       roomID,
		Mark:         mark,
	}
	that.bindings[connectionID] = binding

	return binding, nil
}

func (that *Binder) isBound(connectionID string) bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	_, ok := that.bindings[connectionID]

	return ok
}

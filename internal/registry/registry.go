package registry

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/apperror"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/entity"
)

const (
	roomIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomIDLength   = 6

	maxCreateAttempts = 16
)

var ErrIDExhausted = errors.New("could not generate a unique room id")

type IDGenerator func() (string, error)

type Option func(*Registry)

// WithIDGenerator replaces the random room code generator.
func WithIDGenerator(generate IDGenerator) Option {
	return func(that *Registry) {
		that.generateID = generate
	}
}

type slot struct {
	mu      sync.Mutex
	room    *entity.Room
	deleted atomic.Bool
}

// Registry owns every live room. Mutations of one room are serialized by the room's own lock,
// so rooms never wait on each other.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*slot

	rules      entity.Rules
	generateID IDGenerator
}

func New(rules entity.Rules, opts ...Option) *Registry {
	registry := &Registry{
		rooms:      make(map[string]*slot),
		rules:      rules,
		generateID: GenerateRoomID,
	}

	for _, opt := range opts {
		opt(registry)
	}

	return registry
}

// Create stores a new empty room under a fresh id.
func (that *Registry) Create() (string, error) {
	for range maxCreateAttempts {
		id, err := that.generateID()
		if err != nil {
			return "", fmt.Errorf("failed to generate room id: %w", err)
		}

		that.mu.Lock()
		if _, exists := that.rooms[id]; exists {
			that.mu.Unlock()
			continue
		}

		that.rooms[id] = &slot{room: entity.NewRoom(id, that.rules)}
		that.mu.Unlock()

		return id, nil
	}

	return "", ErrIDExhausted
}

// Find returns a copy of the room.
func (that *Registry) Find(id string) (entity.Room, error) {
	var snapshot entity.Room

	err := that.Update(id, func(room *entity.Room) error {
		snapshot = room.Snapshot()
		return nil
	})
	if err != nil {
		return entity.Room{}, err
	}

	return snapshot, nil
}

// Update runs fn while holding the room lock. Errors returned by fn are passed through.
func (that *Registry) Update(id string, fn func(room *entity.Room) error) error {
	that.mu.RLock()
	s, ok := that.rooms[id]
	that.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// the room could be deleted while we were waiting for the lock
	if s.deleted.Load() {
		return fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, id)
	}

	return fn(s.room)
}

// Delete removes the room. It does not take the room lock, so it is safe inside Update.
func (that *Registry) Delete(id string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	s, ok := that.rooms[id]
	if !ok {
		return false
	}

	s.deleted.Store(true)
	delete(that.rooms, id)

	return true
}

func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}

// GenerateRoomID returns a short human friendly code.
func GenerateRoomID() (string, error) {
	alphabetLen := big.NewInt(int64(len(roomIDAlphabet)))

	id := make([]byte, roomIDLength)
	for i := range id {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to read random number: %w", err)
		}

		id[i] = roomIDAlphabet[n.Int64()]
	}

	return string(id), nil
}

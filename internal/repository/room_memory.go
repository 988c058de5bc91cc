package repository

import (
	"context"
	"sync"

	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/entity"
)

type memoryRoom struct {
	mu    sync.RWMutex
	rooms map[string]entity.Room
}

// NewMemoryRoomRepository is used when redis is disabled.
func NewMemoryRoomRepository() RoomRepository {
	return &memoryRoom{
		rooms: make(map[string]entity.Room),
	}
}

func (that *memoryRoom) CreateOrUpdate(_ context.Context, room *entity.Room) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.rooms[room.ID] = room.Snapshot()

	return nil
}

func (that *memoryRoom) GetByID(_ context.Context, id string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}

	snapshot := room.Snapshot()

	return &snapshot, nil
}

func (that *memoryRoom) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.rooms[id]; !ok {
		return ErrRoomNotFound
	}

	delete(that.rooms, id)

	return nil
}

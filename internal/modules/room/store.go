// Package room owns room membership and the countdown into a game.
package room

import (
	"context"
	"sync"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room/domain"
)

type Store interface {
	Get(ctx context.Context, id string) (domain.Room, error)
	GetByCode(ctx context.Context, code string) (domain.Room, error)
	// Put inserts a new room. It fails with Conflict if the id or code is taken.
	Put(ctx context.Context, room domain.Room) error
	Update(ctx context.Context, room domain.Room) error
}

type MemoryStore struct {
	mu     sync.RWMutex
	rooms  map[string]domain.Room
	byCode map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:  make(map[string]domain.Room),
		byCode: make(map[string]string),
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, found := s.rooms[id]
	if !found {
		return domain.Room{}, core.NotFound("room not found")
	}
	return room.Clone(), nil
}

func (s *MemoryStore) GetByCode(ctx context.Context, code string) (domain.Room, error) {
	s.mu.RLock()
	id, found := s.byCode[code]
	s.mu.RUnlock()

	if !found {
		return domain.Room{}, core.NotFound("room not found")
	}
	return s.Get(ctx, id)
}

func (s *MemoryStore) Put(_ context.Context, room domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.rooms[room.ID]; found {
		return core.Conflict("room already exists")
	}
	if _, found := s.byCode[room.Code]; found {
		return core.Conflict("room code already in use")
	}

	s.rooms[room.ID] = room.Clone()
	s.byCode[room.Code] = room.ID
	return nil
}

func (s *MemoryStore) Update(_ context.Context, room domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.rooms[room.ID]; !found {
		return core.NotFound("room not found")
	}

	s.rooms[room.ID] = room.Clone()
	return nil
}

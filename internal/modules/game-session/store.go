// Package gamesession collects bets for a room's game and settles it.
package gamesession

import (
	"context"
	"sync"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	"github.com/eskrenkovic/wager-rooms/internal/modules/game-session/domain"
)

type Store interface {
	Get(ctx context.Context, id string) (domain.Session, error)
	// Active returns the room's unresolved session or NotFound.
	Active(ctx context.Context, roomID string) (domain.Session, error)
	// Put inserts a session. It fails with Conflict when the room already has
	// an unresolved one.
	Put(ctx context.Context, session domain.Session) error
	Update(ctx context.Context, session domain.Session) error
}

var errActiveExists = core.Conflict("room already has an active session")

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	active   map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]domain.Session),
		active:   make(map[string]string),
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, found := s.sessions[id]
	if !found {
		return domain.Session{}, core.NotFound("session not found")
	}
	return session.Clone(), nil
}

func (s *MemoryStore) Active(ctx context.Context, roomID string) (domain.Session, error) {
	s.mu.RLock()
	id, found := s.active[roomID]
	s.mu.RUnlock()

	if !found {
		return domain.Session{}, core.NotFound("room has no active session")
	}
	return s.Get(ctx, id)
}

func (s *MemoryStore) Put(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.sessions[session.ID]; found {
		return core.Conflict("session already exists")
	}

	if session.Active() {
		if _, found := s.active[session.RoomID]; found {
			return errActiveExists
		}
		s.active[session.RoomID] = session.ID
	}

	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *MemoryStore) Update(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.sessions[session.ID]; !found {
		return core.NotFound("session not found")
	}

	if !session.Active() && s.active[session.RoomID] == session.ID {
		delete(s.active, session.RoomID)
	}

	s.sessions[session.ID] = session.Clone()
	return nil
}

package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"boards/internal/auth/models"
	id "boards/pkg/domain"
	"boards/pkg/platform/sentinel"
)

type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*models.Session
}

func New() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[id.SessionID]*models.Session)}
}

// Create stores a copy of session. Reusing an id is a conflict.
func (s *InMemorySessionStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return fmt.Errorf("session %s: %w", session.ID, sentinel.ErrConflict)
	}
	stored := *session
	s.sessions[session.ID] = &stored
	return nil
}

func (s *InMemorySessionStore) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *stored
	return &found, nil
}

// RevokeSessionIfActive marks the session revoked at now.
func (s *InMemorySessionStore) RevokeSessionIfActive(_ context.Context, sessionID id.SessionID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[sessionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.CanRevoke() != nil {
		return ErrSessionRevoked
	}
	stored.ApplyRevocation(now)
	return nil
}

// DeleteExpired drops sessions whose expiry is before now and returns how many went.
func (s *InMemorySessionStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for sessionID, stored := range s.sessions {
		if !now.Before(stored.ExpiresAt) {
			delete(s.sessions, sessionID)
			removed++
		}
	}
	return removed, nil
}

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"boards/internal/auth/models"
	id "boards/pkg/domain"
	"boards/pkg/platform/sentinel"
)

type SessionStoreSuite struct {
	suite.Suite
	store *InMemorySessionStore
	now   time.Time
}

func (s *SessionStoreSuite) SetupTest() {
	s.store = New()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreSuite))
}

func (s *SessionStoreSuite) newSession(userID id.UserID) *models.Session {
	return &models.Session{
		ID:        id.NewSessionID(),
		UserID:    userID,
		Username:  "john",
		CreatedAt: s.now,
		ExpiresAt: s.now.Add(time.Hour),
	}
}

func (s *SessionStoreSuite) TestSessionLookup() {
	ctx := context.Background()

	s.Run("returns stored session when found", func() {
		session := s.newSession(1)
		s.Require().NoError(s.store.Create(ctx, session))

		found, err := s.store.FindByID(ctx, session.ID)
		s.Require().NoError(err)
		s.Equal(session, found)
	})

	s.Run("returns ErrNotFound when session does not exist", func() {
		_, err := s.store.FindByID(ctx, id.NewSessionID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("reusing an id is a conflict", func() {
		session := s.newSession(1)
		s.Require().NoError(s.store.Create(ctx, session))
		s.Require().ErrorIs(s.store.Create(ctx, session), sentinel.ErrConflict)
	})

	s.Run("returned sessions are copies", func() {
		session := s.newSession(1)
		s.Require().NoError(s.store.Create(ctx, session))
		found, err := s.store.FindByID(ctx, session.ID)
		s.Require().NoError(err)
		found.Username = "mallory"

		again, err := s.store.FindByID(ctx, session.ID)
		s.Require().NoError(err)
		s.Equal("john", again.Username)
	})
}

func (s *SessionStoreSuite) TestSessionRevocation() {
	ctx := context.Background()

	s.Run("revokes active session and sets RevokedAt timestamp", func() {
		session := s.newSession(1)
		s.Require().NoError(s.store.Create(ctx, session))

		s.Require().NoError(s.store.RevokeSessionIfActive(ctx, session.ID, s.now))

		found, err := s.store.FindByID(ctx, session.ID)
		s.Require().NoError(err)
		s.Require().NotNil(found.RevokedAt)
		s.False(found.IsActive(s.now))
	})

	s.Run("revoking already-revoked session returns ErrSessionRevoked", func() {
		session := s.newSession(1)
		s.Require().NoError(s.store.Create(ctx, session))
		s.Require().NoError(s.store.RevokeSessionIfActive(ctx, session.ID, s.now))

		err := s.store.RevokeSessionIfActive(ctx, session.ID, s.now)
		s.Require().ErrorIs(err, ErrSessionRevoked)
	})

	s.Run("revoking non-existent session returns ErrNotFound", func() {
		err := s.store.RevokeSessionIfActive(ctx, id.NewSessionID(), s.now)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *SessionStoreSuite) TestDeleteExpired() {
	ctx := context.Background()
	live := s.newSession(1)
	expired := s.newSession(2)
	expired.ExpiresAt = s.now.Add(-time.Minute)
	s.Require().NoError(s.store.Create(ctx, live))
	s.Require().NoError(s.store.Create(ctx, expired))

	removed, err := s.store.DeleteExpired(ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.store.FindByID(ctx, expired.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByID(ctx, live.ID)
	s.NoError(err)
}

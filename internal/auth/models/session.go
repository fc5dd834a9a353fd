package models

import (
	"time"

	id "boards/pkg/domain"
	dErrors "boards/pkg/domain-errors"
)

// Session is a signed-in browser. It is live until ExpiresAt unless revoked
// by logging out.
type Session struct {
	ID                id.SessionID
	UserID            id.UserID
	Username          string
	DeviceDisplayName string
	IPAddress         string
	CreatedAt         time.Time
	ExpiresAt         time.Time
	RevokedAt         *time.Time
}

// NewSession opens a session for user lasting ttl from now.
func NewSession(user *User, device, ip string, now time.Time, ttl time.Duration) (*Session, error) {
	if user == nil || user.ID <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "session requires a stored user")
	}
	if ttl <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "session ttl must be positive")
	}
	return &Session{
		ID:                id.NewSessionID(),
		UserID:            user.ID,
		Username:          user.Username,
		DeviceDisplayName: device,
		IPAddress:         ip,
		CreatedAt:         now,
		ExpiresAt:         now.Add(ttl),
	}, nil
}

// IsActive reports whether the session can still authenticate requests at now.
func (s *Session) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// CanRevoke returns an error when the session was already revoked.
func (s *Session) CanRevoke() error {
	if s.RevokedAt != nil {
		return dErrors.New(dErrors.CodeConflict, "session already revoked")
	}
	return nil
}

func (s *Session) ApplyRevocation(now time.Time) {
	if s.RevokedAt == nil {
		s.RevokedAt = &now
	}
}

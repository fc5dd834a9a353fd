package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"boards/internal/auth/models"
	id "boards/pkg/domain"
	"boards/pkg/platform/sentinel"
)

const sessionKeyPrefix = "session:"

// RedisStore keeps each session as a JSON value expiring with the session.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type record struct {
	ID                string     `json:"id"`
	UserID            int64      `json:"user_id"`
	Username          string     `json:"username"`
	DeviceDisplayName string     `json:"device_display_name"`
	IPAddress         string     `json:"ip_address"`
	CreatedAt         time.Time  `json:"created_at"`
	ExpiresAt         time.Time  `json:"expires_at"`
	RevokedAt         *time.Time `json:"revoked_at,omitempty"`
}

func key(sessionID id.SessionID) string {
	return sessionKeyPrefix + sessionID.String()
}

func toRecord(s *models.Session) record {
	return record{
		ID:                s.ID.String(),
		UserID:            int64(s.UserID),
		Username:          s.Username,
		DeviceDisplayName: s.DeviceDisplayName,
		IPAddress:         s.IPAddress,
		CreatedAt:         s.CreatedAt,
		ExpiresAt:         s.ExpiresAt,
		RevokedAt:         s.RevokedAt,
	}
}

func (r record) toModel() (*models.Session, error) {
	sessionID, err := id.ParseSessionID(r.ID)
	if err != nil {
		return nil, fmt.Errorf("decode session id: %w", err)
	}
	return &models.Session{
		ID:                sessionID,
		UserID:            id.UserID(r.UserID),
		Username:          r.Username,
		DeviceDisplayName: r.DeviceDisplayName,
		IPAddress:         r.IPAddress,
		CreatedAt:         r.CreatedAt,
		ExpiresAt:         r.ExpiresAt,
		RevokedAt:         r.RevokedAt,
	}, nil
}

func ttlUntil(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

// Create writes the session with SETNX so an existing id is never overwritten.
func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(toRecord(session))
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ok, err := s.client.SetNX(ctx, key(session.ID), payload, ttlUntil(session.ExpiresAt)).Result()
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if !ok {
		return fmt.Errorf("session %s: %w", session.ID, sentinel.ErrConflict)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	return s.get(ctx, s.client, sessionID)
}

func (s *RedisStore) get(ctx context.Context, c redis.Cmdable, sessionID id.SessionID) (*models.Session, error) {
	payload, err := c.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var rec record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return rec.toModel()
}

// RevokeSessionIfActive marks the session revoked under WATCH. A concurrent
// writer makes it fail with redis.TxFailedErr.
func (s *RedisStore) RevokeSessionIfActive(ctx context.Context, sessionID id.SessionID, now time.Time) error {
	k := key(sessionID)
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		session, err := s.get(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if session.CanRevoke() != nil {
			return ErrSessionRevoked
		}
		session.ApplyRevocation(now)
		payload, err := json.Marshal(toRecord(session))
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, payload, redis.KeepTTL)
			return nil
		})
		return err
	}, k)
}

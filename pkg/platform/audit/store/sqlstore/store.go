// Package sqlstore persists audit events in the audit_events table.
//
// The table doubles as a transactional outbox: rows are written with a NULL
// published_at inside the caller's transaction and the relay worker forwards
// them to Kafka afterwards.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	id "boards/pkg/domain"
	audit "boards/pkg/platform/audit"
	txcontext "boards/pkg/platform/tx"
)

// Store implements audit.Store on top of database/sql.
type Store struct {
	db     *sql.DB
	rebind func(string) string
}

// New builds a store. rebind converts '?' placeholders into the driver's bind
// syntax; pass nil for drivers that accept '?'.
func New(db *sql.DB, rebind func(string) string) *Store {
	if rebind == nil {
		rebind = func(q string) string { return q }
	}
	return &Store{db: db, rebind: rebind}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const selectColumns = `id, category, created_at, user_id, subject, action, reason, request_id, ip`

// Append writes an event to the outbox. When ctx carries a transaction the row
// is written inside it.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	var userID sql.NullInt64
	if event.UserID > 0 {
		userID = sql.NullInt64{Int64: int64(event.UserID), Valid: true}
	}

	query := s.rebind(`
		INSERT INTO audit_events (id, category, created_at, user_id, subject, action, reason, request_id, ip)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.execer(ctx).ExecContext(ctx, query,
		event.ID,
		string(event.Category),
		event.Timestamp.UTC(),
		userID,
		event.Subject,
		event.Action,
		event.Reason,
		event.RequestID,
		event.IP,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByUser returns events for a specific user, oldest first.
func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	query := s.rebind(`SELECT ` + selectColumns + ` FROM audit_events WHERE user_id = ? ORDER BY created_at, id`)
	rows, err := s.execer(ctx).QueryContext(ctx, query, int64(userID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := s.rebind(`SELECT ` + selectColumns + ` FROM audit_events ORDER BY created_at DESC, id DESC LIMIT ?`)
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Pending returns up to limit events not yet forwarded, oldest first.
func (s *Store) Pending(ctx context.Context, limit int) ([]audit.Event, error) {
	query := s.rebind(`SELECT ` + selectColumns + ` FROM audit_events WHERE published_at IS NULL ORDER BY created_at, id LIMIT ?`)
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// MarkPublished stamps published_at on the given events.
func (s *Store) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, at.UTC())
	for _, eventID := range ids {
		args = append(args, eventID)
	}
	query := s.rebind(`UPDATE audit_events SET published_at = ? WHERE id IN (` + placeholders + `)`)
	if _, err := s.execer(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark audit events published: %w", err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			category string
			userID   sql.NullInt64
		)
		err := rows.Scan(
			&event.ID,
			&category,
			&event.Timestamp,
			&userID,
			&event.Subject,
			&event.Action,
			&event.Reason,
			&event.RequestID,
			&event.IP,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		if userID.Valid {
			event.UserID = id.UserID(userID.Int64)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

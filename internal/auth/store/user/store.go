// Package user persists registered users in the relational database.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"boards/internal/auth/models"
	"boards/internal/platform/database"
	id "boards/pkg/domain"
	"boards/pkg/platform/sentinel"
)

// Store is the SQL-backed user store. Methods join the transaction carried by ctx.
type Store struct {
	db *database.DB
}

func New(db *database.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `id, username, email, password_hash, first_name, last_name, date_joined, last_login`

// Create inserts the user and sets its ID. A taken username is sentinel.ErrConflict.
func (s *Store) Create(ctx context.Context, user *models.User) error {
	query := s.db.Rebind(`
		INSERT INTO users (username, email, password_hash, first_name, last_name, date_joined)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	var userID int64
	err := s.db.Executor(ctx).QueryRowContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		database.Timestamp(user.DateJoined),
	).Scan(&userID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("username %q: %w", user.Username, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID = id.UserID(userID)
	return nil
}

func (s *Store) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.findOne(ctx, `SELECT `+selectColumns+` FROM users WHERE id = ?`, int64(userID))
}

// FindByUsername matches the username exactly.
func (s *Store) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, `SELECT `+selectColumns+` FROM users WHERE username = ?`, username)
}

func (s *Store) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		u         models.User
		lastLogin sql.NullTime
	)
	err := s.db.Executor(ctx).QueryRowContext(ctx, s.db.Rebind(query), arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.DateJoined, &lastLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

// UpdateProfile writes the editable account fields.
func (s *Store) UpdateProfile(ctx context.Context, user *models.User) error {
	res, err := s.db.Executor(ctx).ExecContext(ctx,
		s.db.Rebind(`UPDATE users SET first_name = ?, last_name = ?, email = ? WHERE id = ?`),
		user.FirstName, user.LastName, user.Email, int64(user.ID))
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) TouchLastLogin(ctx context.Context, userID id.UserID, at time.Time) error {
	_, err := s.db.Executor(ctx).ExecContext(ctx,
		s.db.Rebind(`UPDATE users SET last_login = ? WHERE id = ?`),
		database.Timestamp(at), int64(userID))
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	dErrors "boards/pkg/domain-errors"
	txcontext "boards/pkg/platform/tx"
)

func TestRebind(t *testing.T) {
	pg := &DB{dialect: Postgres}
	lite := &DB{dialect: SQLite}
	q := `SELECT id FROM posts WHERE topic_id = ? AND id > ? LIMIT ?`

	assert.Equal(t, `SELECT id FROM posts WHERE topic_id = $1 AND id > $2 LIMIT $3`, pg.Rebind(q))
	assert.Equal(t, q, lite.Rebind(q))
}

func TestTimestampTruncatesToMicroseconds(t *testing.T) {
	in := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.FixedZone("X", 3600))
	out := Timestamp(in)
	assert.Equal(t, time.UTC, out.Location())
	assert.Equal(t, 123456000, out.Nanosecond())
}

type SQLiteSuite struct {
	suite.Suite
	db  *DB
	ctx context.Context
}

func TestSQLiteSuite(t *testing.T) {
	suite.Run(t, new(SQLiteSuite))
}

func (s *SQLiteSuite) SetupTest() {
	s.ctx = context.Background()
	db, err := OpenSQLite(s.ctx, ":memory:")
	s.Require().NoError(err)
	s.Require().NoError(db.Migrate(s.ctx))
	s.db = db
}

func (s *SQLiteSuite) TearDownTest() {
	s.Require().NoError(s.db.Close())
}

func (s *SQLiteSuite) insertBoard(ctx context.Context, name string) error {
	_, err := s.db.Executor(ctx).ExecContext(ctx,
		s.db.Rebind(`INSERT INTO boards (name, description, created_at) VALUES (?, ?, ?)`),
		name, "", Timestamp(time.Now()))
	return err
}

func (s *SQLiteSuite) countBoards() int {
	var n int
	s.Require().NoError(s.db.QueryRowContext(s.ctx, `SELECT COUNT(*) FROM boards`).Scan(&n))
	return n
}

func (s *SQLiteSuite) TestMigrateIsIdempotent() {
	s.Require().NoError(s.db.Migrate(s.ctx))
	s.Equal(SQLite, s.db.Dialect())
	s.NoError(s.db.Health(s.ctx))
}

func (s *SQLiteSuite) TestRunInTx() {
	s.Run("commits on success", func() {
		err := s.db.RunInTx(s.ctx, func(ctx context.Context) error {
			_, ok := txcontext.From(ctx)
			s.True(ok)
			return s.insertBoard(ctx, "Go")
		})
		s.Require().NoError(err)
		s.Equal(1, s.countBoards())
	})

	s.Run("rolls back on error", func() {
		boom := errors.New("boom")
		err := s.db.RunInTx(s.ctx, func(ctx context.Context) error {
			s.Require().NoError(s.insertBoard(ctx, "Rust"))
			return boom
		})
		s.ErrorIs(err, boom)
		s.Equal(1, s.countBoards())
	})

	s.Run("nested calls join the outer transaction", func() {
		err := s.db.RunInTx(s.ctx, func(ctx context.Context) error {
			return s.db.RunInTx(ctx, func(inner context.Context) error {
				return s.insertBoard(inner, "Zig")
			})
		})
		s.Require().NoError(err)
		s.Equal(2, s.countBoards())
	})

	s.Run("cancelled context is a timeout", func() {
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		err := s.db.RunInTx(ctx, func(context.Context) error { return nil })
		s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}

func (s *SQLiteSuite) TestConstraintViolations() {
	s.Require().NoError(s.insertBoard(s.ctx, "Django"))
	err := s.insertBoard(s.ctx, "Django")
	s.Require().Error(err)
	s.True(IsUniqueViolation(err))

	_, err = s.db.ExecContext(s.ctx,
		`INSERT INTO topics (subject, board_id, starter_id, created_at, last_updated) VALUES (?, ?, ?, ?, ?)`,
		"orphan", 999, 999, time.Now(), time.Now())
	s.Require().Error(err)
	s.True(IsForeignKeyViolation(err))
	s.False(IsUniqueViolation(err))
}

func TestIsUniqueViolationIgnoresOtherErrors(t *testing.T) {
	require.False(t, IsUniqueViolation(errors.New("plain")))
	require.False(t, IsUniqueViolation(nil))
}

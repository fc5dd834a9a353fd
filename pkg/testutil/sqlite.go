package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"boards/internal/platform/database"
)

// NewSQLiteDB opens a private, migrated in-memory database closed at test end.
func NewSQLiteDB(t testing.TB) *database.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

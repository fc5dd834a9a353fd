//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"boards/internal/platform/database"
	"boards/pkg/testutil/containers"
)

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, &StoreSuite{openDB: openPostgres})
}

func openPostgres(t testing.TB) *database.DB {
	ctx := context.Background()
	pg := containers.GetManager().GetPostgres(t)

	db, err := database.OpenPostgres(ctx, pg.DSN)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, pg.TruncateTables(ctx, "posts", "topics", "boards", "audit_events", "users"))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "boards/pkg/platform/audit"
	"boards/pkg/platform/audit/store/sqlstore"
	"boards/pkg/platform/audit/worker"
	"boards/pkg/testutil"
)

type recordingSink struct {
	batches [][]audit.Event
	err     error
}

func (s *recordingSink) Publish(_ context.Context, events []audit.Event) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, events)
	return nil
}

func seedOutbox(t *testing.T, n int) *sqlstore.Store {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	store := sqlstore.New(db.DB, db.Rebind)
	for range n {
		require.NoError(t, store.Append(context.Background(), audit.Event{
			UserID:    1,
			Action:    string(audit.EventPostCreated),
			Timestamp: time.Now(),
		}))
	}
	return store
}

func TestFlushForwardsInBatches(t *testing.T) {
	store := seedOutbox(t, 5)
	sink := &recordingSink{}
	relay := worker.NewRelay(store, sink, worker.WithBatchSize(2))

	n, err := relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.Len(t, sink.batches, 3)
	assert.Len(t, sink.batches[2], 1)

	pending, err := store.Pending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	n, err = relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFlushKeepsEventsWhenSinkFails(t *testing.T) {
	store := seedOutbox(t, 3)
	sink := &recordingSink{err: errors.New("broker down")}
	relay := worker.NewRelay(store, sink)

	_, err := relay.Flush(context.Background())
	require.Error(t, err)

	pending, err := store.Pending(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}

func TestRunStopsOnCancel(t *testing.T) {
	store := seedOutbox(t, 1)
	sink := &recordingSink{}
	relay := worker.NewRelay(store, sink, worker.WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool {
		pending, err := store.Pending(context.Background(), 10)
		return err == nil && len(pending) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

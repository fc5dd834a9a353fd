package compliance

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "boards/pkg/domain"
	audit "boards/pkg/platform/audit"
	"boards/pkg/platform/audit/store/memory"
)

type failingStore struct{ memory.InMemoryStore }

func (f *failingStore) Append(context.Context, audit.Event) error {
	return errors.New("disk full")
}

func TestEmit(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and counts by category", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		metrics := NewMetrics(prometheus.NewRegistry())
		pub := New(store, WithMetrics(metrics))

		require.NoError(t, pub.Emit(ctx, audit.Event{UserID: 4, Action: string(audit.EventTopicCreated), Subject: "topic:9"}))

		events, err := store.ListByUser(ctx, id.UserID(4))
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.CategoryContent, events[0].Category)
		assert.False(t, events[0].Timestamp.IsZero())
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsEmitted.WithLabelValues("content")))
	})

	t.Run("rejects incomplete events", func(t *testing.T) {
		pub := New(memory.NewInMemoryStore())
		assert.ErrorIs(t, pub.Emit(ctx, audit.Event{Action: "x"}), errMissingUser)
		assert.ErrorIs(t, pub.Emit(ctx, audit.Event{UserID: 1}), errMissingAction)
	})

	t.Run("fails closed", func(t *testing.T) {
		metrics := NewMetrics(prometheus.NewRegistry())
		pub := New(&failingStore{}, WithMetrics(metrics))

		err := pub.Emit(ctx, audit.Event{UserID: 1, Action: string(audit.EventPostCreated)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PersistFailures))
	})
}

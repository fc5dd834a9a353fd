package worker

import (
	"context"
	"log/slog"
	"time"

	audit "boards/pkg/platform/audit"
)

// OutboxStore exposes the audit rows not yet forwarded downstream.
type OutboxStore interface {
	Pending(ctx context.Context, limit int) ([]audit.Event, error)
	MarkPublished(ctx context.Context, ids []string, at time.Time) error
}

// Sink receives batches of audit events.
type Sink interface {
	Publish(ctx context.Context, events []audit.Event) error
}

// Relay periodically moves pending outbox events to a sink. Events are marked
// published only after the sink accepts them, so delivery is at-least-once.
type Relay struct {
	store     OutboxStore
	sink      Sink
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(store OutboxStore, sink Sink, opts ...Option) *Relay {
	r := &Relay{
		store:     store,
		sink:      sink,
		interval:  2 * time.Second,
		batchSize: 100,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run flushes on every tick until ctx is cancelled. Flush errors are logged and
// retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "audit relay flush failed", "error", err)
			}
		}
	}
}

// Flush forwards batches until the outbox is empty and returns how many events
// were published.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	total := 0
	for {
		events, err := r.store.Pending(ctx, r.batchSize)
		if err != nil {
			return total, err
		}
		if len(events) == 0 {
			return total, nil
		}
		if err := r.sink.Publish(ctx, events); err != nil {
			return total, err
		}
		ids := make([]string, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		if err := r.store.MarkPublished(ctx, ids, time.Now()); err != nil {
			return total, err
		}
		total += len(events)
		if len(events) < r.batchSize {
			return total, nil
		}
	}
}

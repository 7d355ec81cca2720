package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	defaultRelayInterval = 2 * time.Second
	defaultRelayBatch    = 100
)

// Producer delivers outbox entries to the event stream.
type Producer interface {
	Publish(ctx context.Context, entries []Entry) error
}

// Relay drains the outbox into a Producer. Entries are marked published only
// after the producer acknowledged them, so delivery is at least once.
type Relay struct {
	store    Store
	producer Producer
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

type RelayOption func(*Relay)

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batch = n
		}
	}
}

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(store Store, producer Producer, opts ...RelayOption) *Relay {
	r := &Relay{
		store:    store,
		producer: producer,
		logger:   slog.New(slog.DiscardHandler),
		interval: defaultRelayInterval,
		batch:    defaultRelayBatch,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run flushes the outbox on every tick until ctx is cancelled. Delivery
// failures are logged and retried on the next tick.
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

// Flush publishes pending entries in batches and returns how many were delivered.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	delivered := 0
	for {
		entries, err := r.store.Pending(ctx, r.batch)
		if err != nil {
			return delivered, fmt.Errorf("load pending outbox entries: %w", err)
		}
		if len(entries) == 0 {
			return delivered, nil
		}
		if err := r.producer.Publish(ctx, entries); err != nil {
			return delivered, fmt.Errorf("publish outbox entries: %w", err)
		}
		ids := make([]uuid.UUID, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		if err := r.store.MarkPublished(ctx, ids, time.Now()); err != nil {
			return delivered, err
		}
		delivered += len(entries)
		if len(entries) < r.batch {
			return delivered, nil
		}
	}
}

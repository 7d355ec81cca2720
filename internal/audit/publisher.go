package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Store is the outbox: entries are appended in the caller's transaction and
// drained by the Relay.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	Pending(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Publisher captures structured audit events. It is append-only and uses the
// outbox store so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	return p.store.Append(ctx, Entry{
		ID:          event.ID,
		EventType:   event.Type,
		AggregateID: strconv.FormatInt(event.SurveyID, 10),
		Payload:     payload,
		CreatedAt:   event.Timestamp,
	})
}

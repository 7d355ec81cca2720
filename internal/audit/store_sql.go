package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tracker/internal/platform/database"
	txcontext "tracker/pkg/platform/tx"
)

// SQLStore implements Store using the transactional outbox pattern. Append
// joins the transaction bound to ctx, so the event commits with the
// submission that produced it.
type SQLStore struct {
	db *database.DB
}

func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) execer(ctx context.Context) txcontext.Execer {
	return txcontext.Executor(ctx, s.db.DB)
}

func (s *SQLStore) Append(ctx context.Context, entry Entry) error {
	query := s.db.Rebind(`
		INSERT INTO audit_outbox (id, event_type, aggregate_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	_, err := s.execer(ctx).ExecContext(ctx, query,
		entry.ID.String(),
		string(entry.EventType),
		entry.AggregateID,
		string(entry.Payload),
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", database.TranslateError(err))
	}
	return nil
}

func (s *SQLStore) Pending(ctx context.Context, limit int) ([]Entry, error) {
	query := s.db.Rebind(`
		SELECT id, event_type, aggregate_id, payload, created_at
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT ?
	`)
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			id      string
			evType  string
			payload []byte
		)
		if err := rows.Scan(&id, &evType, &e.AggregateID, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse outbox id: %w", err)
		}
		e.EventType = EventType(evType)
		e.Payload = payload
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

func (s *SQLStore) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, sql.NullTime{Time: at.UTC(), Valid: true})
	for _, id := range ids {
		args = append(args, id.String())
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := s.db.Rebind(`UPDATE audit_outbox SET published_at = ? WHERE id IN (` + placeholders + `)`)
	if _, err := s.execer(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

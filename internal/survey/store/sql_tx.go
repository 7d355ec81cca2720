package store

import (
	"context"
	"fmt"
	"time"

	"tracker/internal/platform/database"
	txcontext "tracker/pkg/platform/tx"
)

// SQLTransactor runs a unit of work in one database transaction. The
// transaction rolls back on every path that does not reach Commit.
type SQLTransactor struct {
	db      *database.DB
	timeout time.Duration
}

func NewSQLTransactor(db *database.DB, timeout time.Duration) *SQLTransactor {
	return &SQLTransactor{db: db, timeout: timeout}
}

func (t *SQLTransactor) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel, err := withTxTimeout(ctx, t.timeout)
	defer cancel()
	if err != nil {
		return err
	}
	if _, nested := txcontext.From(ctx); nested {
		return fn(ctx)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", database.TranslateError(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", database.TranslateError(err))
	}
	return nil
}

// Package store persists surveys, sections and answers. InMemory backs tests
// and local runs; SQL backs Postgres and SQLite.
package store

import (
	"context"
	"time"

	dErrors "tracker/pkg/domain-errors"
)

// defaultTxTimeout bounds a transaction when the caller set no deadline.
const defaultTxTimeout = 5 * time.Second

func withTxTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return ctx, func() {}, dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, cancel, nil
}

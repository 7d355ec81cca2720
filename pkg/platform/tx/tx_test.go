package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithTxNilIsNoop(t *testing.T) {
	ctx := WithTx(context.Background(), nil)
	_, ok := From(ctx)
	assert.False(t, ok)
}

func TestExecutorFallsBackToDB(t *testing.T) {
	db := &sql.DB{}
	assert.Same(t, db, Executor(context.Background(), db))

	tx := &sql.Tx{}
	assert.Same(t, tx, Executor(WithTx(context.Background(), tx), db))
}

//go:build integration

package recorder_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"tracker/internal/survey/store"
	"tracker/pkg/testutil/containers"
)

func TestRecorderPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.GetManager().GetPostgres(t)

	suite.Run(t, &RecorderSuite{newBackend: func(t *testing.T) backend {
		if err := pg.TruncateTables(context.Background(),
			"audit_outbox", "survey_answers", "survey_sections", "questions", "categories", "surveys",
		); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return sqlBackend{SQL: store.NewSQL(pg.DB), SQLTransactor: store.NewSQLTransactor(pg.DB, 0)}
	}})
}

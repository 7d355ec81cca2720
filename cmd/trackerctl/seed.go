package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tracker/internal/survey/store"
)

var seedCmd = &cobra.Command{
	Use:         "seed [fixture.yaml]",
	Short:       "Load categories, questions and surveys from a YAML fixture",
	Long:        `Load seed data. Without an argument the built-in development fixture is used.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{needsDB: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		data := defaultFixture
		if len(args) == 1 {
			var err error
			if data, err = os.ReadFile(args[0]); err != nil {
				return fmt.Errorf("read fixture: %w", err)
			}
		}
		f, err := parseFixture(data)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		sqlStore := store.NewSQL(db)
		var sum seedSummary
		err = store.NewSQLTransactor(db, cfg.Database.TxTimeout).RunInTx(ctx, func(ctx context.Context) error {
			var err error
			if sum, err = f.apply(ctx, sqlStore); err != nil {
				return err
			}
			return sqlStore.ResetSequences(ctx)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories, %d questions, %d surveys, %d sections\n",
			sum.Categories, sum.Questions, sum.Surveys, sum.Sections)
		return nil
	},
}

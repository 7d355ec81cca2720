package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:         "migrate",
	Short:       "Create the schema if it does not exist",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{needsDB: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.Migrate(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", db.Dialect)
		return nil
	},
}

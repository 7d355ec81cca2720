// Command trackerctl administers a tracker database: schema, seed data,
// local submissions and development access tokens.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"tracker/internal/platform/config"
	"tracker/internal/platform/database"
	"tracker/internal/platform/logger"
)

// needsDB marks commands that open the database before running.
const needsDB = "needs-db"

var (
	// configFile is set by the --config flag.
	configFile string

	cfg *config.Config
	db  *database.DB
	log *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "trackerctl",
	Short:         "trackerctl administers the activity survey tracker",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		log = logger.New("text", cfg.Log.Level)
		if cmd.Annotations[needsDB] == "" {
			return nil
		}
		db, err = database.Open(cmd.Context(), database.Config{
			Dialect:         database.Dialect(cfg.Database.Driver),
			DSN:             cfg.Database.DSN,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if db != nil {
			return db.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./tracker.yaml if present)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(tokenCmd)
}

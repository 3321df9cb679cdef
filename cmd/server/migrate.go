package main

import (
	"github.com/spf13/cobra"

	"algo_tracker/internal/platform/config"
	"algo_tracker/internal/platform/database"
	"algo_tracker/internal/platform/logger"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or revert the database schema",
	Long:      `Runs the embedded schema migrations against the configured database. Defaults to "up".`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{database.MigrateUp, database.MigrateDown},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	direction := database.MigrateUp
	if len(args) == 1 {
		direction = args[0]
	}

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cmd.Context(), cfg.DBConnStr, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db.DB, direction); err != nil {
		return err
	}
	log.WithField("direction", direction).Info("migrations applied")
	return nil
}

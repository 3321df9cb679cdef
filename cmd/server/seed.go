package main

import (
	"github.com/spf13/cobra"

	"algo_tracker/internal/app/seed"
	"algo_tracker/internal/platform/config"
	"algo_tracker/internal/platform/database"
	"algo_tracker/internal/platform/logger"
)

var (
	adminEmail    string
	adminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Reset the database to the bundled sample data",
	Long: `Truncates users, problems and attempts, then loads the bundled sample data.
With --admin-email and --admin-password an admin account is created as well.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&adminEmail, "admin-email", "", "Email of an admin account to create")
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "", "Password of the admin account")
	seedCmd.MarkFlagsRequiredTogether("admin-email", "admin-password")
}

func runSeed(cmd *cobra.Command, args []string) error {
	data, err := seed.Default()
	if err != nil {
		return err
	}

	var admin *seed.Admin
	if adminEmail != "" {
		admin = &seed.Admin{Email: adminEmail, Password: adminPassword}
	}

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cmd.Context(), cfg.DBConnStr, log)
	if err != nil {
		return err
	}
	defer db.Close()

	return seed.New(db, log).Run(cmd.Context(), data, admin)
}

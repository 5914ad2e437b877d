package main

import (
	"context"
	"fmt"

	"holiday_greeter_bot/internal/infra/config"
	idb "holiday_greeter_bot/internal/infra/database"
	"holiday_greeter_bot/internal/infra/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reset, _ := cmd.Flags().GetBool("reset")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("could not load application configuration: %w", err)
		}
		logger.Init(cfg)
		log := logger.Component("migrate")

		ctx := context.Background()
		db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("could not connect to database: %w", err)
		}
		defer db.Close()

		if reset {
			if err := idb.Reset(ctx, db); err != nil {
				return err
			}
			log.Warn("Tables dropped and recreated.")
			return nil
		}
		if err := idb.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("Schema is up to date.")
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("reset", false, "drop every table before creating the schema")
}

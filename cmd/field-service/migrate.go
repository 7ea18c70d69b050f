package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"field-service/internal/config"
	"field-service/internal/db"
	"field-service/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Store != config.StoreDatabase {
			return fmt.Errorf("migrate needs STORE_BACKEND=%s", config.StoreDatabase)
		}

		appLogger := logger.New(cfg.Environment, cfg.LogLevel)
		database, err := db.New(cfg, appLogger)
		if err != nil {
			return err
		}
		if err := db.Migrate(database, cfg.DB.Driver); err != nil {
			return err
		}
		appLogger.Info().Str("driver", cfg.DB.Driver).Msg("migrations applied")
		return nil
	},
}

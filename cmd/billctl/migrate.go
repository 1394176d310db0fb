package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/repository"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Create or update the bills and profiles tables for the configured driver.
billsd runs the same migrations on start unless DB_AUTO_MIGRATE=false.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			logger := slog.Default()
			switch cfg.Database.Driver {
			case common.DriverPostgres:
				if cfg.Database.DSN == "" {
					return fmt.Errorf("database url is required for postgres")
				}
				err := repository.MigratePostgres(cfg.Database.DSN, logger)
				if err != nil {
					return err
				}
			case common.DriverSQLite:
				err := repository.MigrateSQLite(cfg.Database.SQLitePath, logger)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("driver %q has no migrations", cfg.Database.Driver)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the configured database is reachable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			cfg.Database.AutoMigrate = false
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			store, err := repository.Open(ctx, cfg.Database, slog.Default())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			start := time.Now()
			if err := store.Ping(ctx); err != nil {
				return fmt.Errorf("database unhealthy: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok (%s, %dms)\n", cfg.Database.Driver, time.Since(start).Milliseconds())
			return nil
		},
	}
}

package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
)

// Open builds the Store selected by cfg.Driver, running migrations when AutoMigrate is set.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case common.DriverPostgres:
		if cfg.AutoMigrate {
			if err := MigratePostgres(cfg.DSN, logger); err != nil {
				return nil, err
			}
		}
		pool, err := OpenPool(ctx, PoolConfig{
			DSN:              cfg.DSN,
			MaxConns:         cfg.MaxConns,
			MinConns:         cfg.MinConns,
			MaxConnLifetime:  cfg.MaxConnLifetime,
			MaxConnIdleTime:  cfg.MaxConnIdleTime,
			DialTimeout:      cfg.DialTimeout,
			StatementTimeout: cfg.StatementTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(pool, logger), nil
	case common.DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath, cfg.AutoMigrate, logger)
	case common.DriverMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		return NewMemoryStore(logger), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

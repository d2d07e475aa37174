package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/stock-metadata/internal/config"
	"github.com/kozaktomas/stock-metadata/internal/database"
	"github.com/kozaktomas/stock-metadata/internal/database/mariadb"
	"github.com/kozaktomas/stock-metadata/internal/database/postgres"
)

// openRunStore opens the configured run history backend.
func openRunStore(ctx context.Context, cfg *config.DatabaseConfig) (database.RunStore, error) {
	switch backend := cfg.Backend(); backend {
	case config.DriverMemory:
		return database.NewMemoryStore(cfg.HistorySize), nil
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg)
	case config.DriverMariaDB:
		return mariadb.Open(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown database driver: %s (supported: memory, postgres, mariadb)", backend)
	}
}

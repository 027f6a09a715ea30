package kvstore

import (
	"context"
	"fmt"

	"iesa-console/backend/internal/config"
	"iesa-console/backend/internal/db"
)

// Open returns the Store selected by cfg.StorageDriver.
// The postgres driver expects the kv_state migration to have been applied (cmd/migrate).
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return NewMemoryStore(), nil
	case config.StorageSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case config.StoragePostgres:
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return NewPostgresStore(conn), nil
	default:
		return nil, fmt.Errorf("kvstore: unknown storage driver %q", cfg.StorageDriver)
	}
}

package di

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/goliatone/go-docflow/internal/runtimeconfig"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// OpenBunDB opens a bun database for the configured storage driver. The
// caller owns the returned handle and closes it on shutdown.
func OpenBunDB(cfg runtimeconfig.StorageConfig) (*bun.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, runtimeconfig.ErrStorageDSNRequired
	}

	switch driver {
	case "postgres":
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	case "sqlite":
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		db := bun.NewDB(sqlDB, sqlitedialect.New())
		// SQLite serializes writers; a single connection avoids
		// SQLITE_BUSY under concurrent transitions.
		db.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, runtimeconfig.ErrStorageDriverUnknown
	}
}

package database

import (
	"context"
	"database/sql"
	"fmt"

	"p2000-receiver/common/config"

	_ "github.com/lib/pq"
)

// OpenPostgres opens a lib/pq pool for cfg and pings it within ctx.
func OpenPostgres(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s on %s: %w", cfg.Database, cfg.Host, err)
	}
	return db, nil
}

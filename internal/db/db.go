// Package db opens the profile database and checks its schema.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ProfileTables are the tables the feed reads, relative to the schema.
var ProfileTables = []string{"mentors", "users"}

// PoolConfig sizes the connection pool. Zero fields take their defaults.
type PoolConfig struct {
	MaxOpenConns    int           // Default: 25
	MaxIdleConns    int           // Default: 5
	ConnMaxLifetime time.Duration // Default: 30 minutes
	PingTimeout     time.Duration // Default: 5 seconds
}

// Open opens a PostgreSQL pool for dsn and pings it.
func Open(ctx context.Context, dsn string, cfg PoolConfig) (*sql.DB, error) {
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 5 * time.Second
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// VerifySchema checks that every profile table exists in schema.
func VerifySchema(ctx context.Context, db *sql.DB, schema string) error {
	for _, table := range ProfileTables {
		name := pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
		var found sql.NullString
		if err := db.QueryRowContext(ctx, "SELECT to_regclass($1)::text", name).Scan(&found); err != nil {
			return fmt.Errorf("failed to look up %s: %w", name, err)
		}
		if !found.Valid {
			return fmt.Errorf("missing table %s: apply migrations first", name)
		}
	}
	return nil
}

// Package health provides readiness checkers for external dependencies.
package health

import (
	"context"
	"database/sql"
	"fmt"
)

// DBChecker checks the profile database connection.
type DBChecker struct {
	db *sql.DB
}

// NewDBChecker creates a database health checker.
func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

// HealthCheck pings the database.
func (c *DBChecker) HealthCheck(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not configured")
	}
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

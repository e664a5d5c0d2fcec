package checkers

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotMigrated means the database answers but match_results is missing.
var ErrNotMigrated = errors.New("schema is not migrated")

// PostgresChecker pings the pool and makes sure migrations have run.
type PostgresChecker struct {
	pool *pgxpool.Pool
}

func NewPostgresChecker(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{pool: pool}
}

func (c *PostgresChecker) Name() string { return "postgres" }

func (c *PostgresChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	var ok bool
	if err := c.pool.QueryRow(ctx, `SELECT to_regclass('match_results') IS NOT NULL`).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return ErrNotMigrated
	}
	return nil
}

// Package postgres opens PostgreSQL pools through lib/pq or the pgx stdlib
// driver and classifies their errors.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/lib/pq"

	"github.com/Starbem/star-db-query-builder/internal/adapters/database"
	"github.com/Starbem/star-db-query-builder/query/dialect"
	"github.com/Starbem/star-db-query-builder/runtime"
)

// database/sql driver names.
const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

// Open opens a PostgreSQL pool. cfg.Driver defaults to DriverPQ.
func Open(ctx context.Context, cfg database.Config) (*database.Pool, error) {
	switch cfg.Driver {
	case "":
		cfg.Driver = DriverPQ
	case DriverPQ, DriverPGX:
	default:
		return nil, fmt.Errorf("postgres: unsupported driver %q", cfg.Driver)
	}
	return database.Open(ctx, cfg, dialect.Postgres, NormalizeError)
}

// NormalizeError maps pq and pgconn errors onto the transient code set.
func NormalizeError(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return sqlState(string(pqErr.Code))
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return sqlState(pgErr.Code)
	}
	if pgconn.Timeout(err) {
		return runtime.CodeTimeout
	}
	if pgconn.SafeToRetry(err) {
		return runtime.CodeConnReset
	}
	return ""
}

// sqlState classifies a SQLSTATE code. Class 08 covers connection
// exceptions; 57P01-57P03 are server shutdown and startup states.
func sqlState(code string) string {
	switch {
	case len(code) == 5 && code[:2] == "08":
		if code == "08001" || code == "08004" {
			return runtime.CodeConnRefused
		}
		return runtime.CodeConnectionLost
	case code == "57P01", code == "57P02":
		return runtime.CodeConnectionLost
	case code == "57P03":
		return runtime.CodeConnRefused
	}
	return ""
}

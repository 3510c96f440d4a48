// Package mysql opens MySQL and MariaDB pools through go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/Starbem/star-db-query-builder/internal/adapters/database"
	"github.com/Starbem/star-db-query-builder/query/dialect"
	"github.com/Starbem/star-db-query-builder/runtime"
)

// DriverName is the database/sql driver name.
const DriverName = "mysql"

// Client error numbers for a connection that went away mid-statement, and
// the server error sent while it shuts down.
const (
	errServerGone     = 2006
	errServerLost     = 2013
	errServerShutdown = 1053
)

// ParseURL parses a DSN and enables time.Time scanning for DATE and
// DATETIME columns.
func ParseURL(url string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(url)
	if err != nil {
		return nil, fmt.Errorf("mysql: invalid dsn: %w", err)
	}
	cfg.ParseTime = true
	return cfg, nil
}

// Open opens a MySQL pool.
func Open(ctx context.Context, cfg database.Config) (*database.Pool, error) {
	if cfg.Driver != "" && cfg.Driver != DriverName {
		return nil, fmt.Errorf("mysql: unsupported driver %q", cfg.Driver)
	}
	mc, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("mysql: %w", err)
	}
	return database.Connect(ctx, sql.OpenDB(connector), cfg, dialect.MySQL, NormalizeError)
}

// NormalizeError maps driver errors onto the transient code set.
func NormalizeError(err error) string {
	if errors.Is(err, mysql.ErrInvalidConn) {
		return runtime.CodeConnectionLost
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errServerGone, errServerLost, errServerShutdown:
			return runtime.CodeConnectionLost
		}
	}
	return ""
}

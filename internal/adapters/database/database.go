// Package database adapts database/sql handles to the connection ports the
// execution client runs against. Driver packages live below it.
package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/Starbem/star-db-query-builder/query/dialect"
	"github.com/Starbem/star-db-query-builder/runtime"
)

// Config holds the settings passed through to database/sql.
type Config struct {
	Driver          string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// ConnectTimeout bounds the initial ping. Zero means no bound beyond ctx.
	ConnectTimeout time.Duration
}

// Normalizer maps a driver error onto a transient code, or "" when the driver
// has nothing specific to say about it.
type Normalizer func(err error) string

// Pool implements runtime.Pool over a *sql.DB.
type Pool struct {
	db        *sql.DB
	dialect   dialect.Dialect
	normalize Normalizer
}

// Open opens cfg.Driver and verifies the connection.
func Open(ctx context.Context, cfg Config, d dialect.Dialect, n Normalizer) (*Pool, error) {
	if cfg.Driver == "" {
		return nil, errors.New("database: driver is required")
	}
	if cfg.URL == "" {
		return nil, errors.New("database: url is required")
	}
	db, err := sql.Open(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return Connect(ctx, db, cfg, d, n)
}

// Connect applies the pool settings from cfg to db and pings it. db is
// closed when the ping fails.
func Connect(ctx context.Context, db *sql.DB, cfg Config, d dialect.Dialect, n Normalizer) (*Pool, error) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to ping database: %w", err), db.Close())
	}
	return New(db, d, n), nil
}

// New wraps an already opened db without pinging it.
func New(db *sql.DB, d dialect.Dialect, n Normalizer) *Pool {
	return &Pool{db: db, dialect: d, normalize: n}
}

// Dialect returns the dialect statements for this pool are compiled with.
func (p *Pool) Dialect() dialect.Dialect { return p.dialect }

// DB returns the underlying handle.
func (p *Pool) DB() *sql.DB { return p.db }

// Exec runs query on any pooled connection.
func (p *Pool) Exec(ctx context.Context, query string, args []any) (*runtime.Result, error) {
	return execute(ctx, p.db, query, args)
}

// Acquire reserves one connection until it is released.
func (p *Pool) Acquire(ctx context.Context) (runtime.Conn, error) {
	c, err := p.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: c}, nil
}

// Close closes every connection of the pool.
func (p *Pool) Close() error {
	return p.db.Close()
}

// NormalizeError implements runtime.ErrorNormalizer.
func (p *Pool) NormalizeError(err error) string {
	if p.normalize == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ""
	}
	return p.normalize(err)
}

// Conn is a connection reserved from a Pool.
type Conn struct {
	conn *sql.Conn
}

// Exec runs query on the reserved connection.
func (c *Conn) Exec(ctx context.Context, query string, args []any) (*runtime.Result, error) {
	return execute(ctx, c.conn, query, args)
}

// Release returns the connection to its pool.
func (c *Conn) Release() error {
	return c.conn.Close()
}

// Discard closes the driver connection so database/sql drops it instead of
// handing it to the next caller.
func (c *Conn) Discard() error {
	err := c.conn.Raw(func(any) error { return driver.ErrBadConn })
	if errors.Is(err, driver.ErrBadConn) {
		return nil
	}
	return errors.Join(err, c.conn.Close())
}

var (
	_ runtime.Pool            = (*Pool)(nil)
	_ runtime.ErrorNormalizer = (*Pool)(nil)
	_ runtime.Conn            = (*Conn)(nil)
	_ runtime.Discarder       = (*Conn)(nil)
)

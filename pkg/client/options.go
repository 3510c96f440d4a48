package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Starbem/star-db-query-builder/internal/adapters/database"
	"github.com/Starbem/star-db-query-builder/internal/adapters/database/mysql"
	"github.com/Starbem/star-db-query-builder/internal/adapters/database/postgres"
	"github.com/Starbem/star-db-query-builder/internal/adapters/database/sqlite"
	"github.com/Starbem/star-db-query-builder/query/dialect"
	"github.com/Starbem/star-db-query-builder/query/executor"
	"github.com/Starbem/star-db-query-builder/runtime"
)

// PoolOpener opens the connection pool for a resolved dialect.
type PoolOpener func(ctx context.Context, d dialect.Dialect, cfg *Config) (runtime.Pool, error)

type options struct {
	opener    PoolOpener
	observers []runtime.Observer
	logger    *slog.Logger
	executor  []executor.Option
}

// Option configures Open, OpenConfig and Registry.
type Option func(*options)

// WithPoolOpener replaces the built-in driver adapters. Use it for dialects
// registered outside this module or to open pools by other means.
func WithPoolOpener(fn PoolOpener) Option {
	return func(o *options) {
		o.opener = fn
	}
}

// WithObserver adds an event observer next to the configured sink.
func WithObserver(obs runtime.Observer) Option {
	return func(o *options) {
		o.observers = append(o.observers, obs)
	}
}

// WithLogger sets the logger of the slog sink and the slow-query log.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithExecutorOptions passes options to the repository.
func WithExecutorOptions(opts ...executor.Option) Option {
	return func(o *options) {
		o.executor = append(o.executor, opts...)
	}
}

func buildOptions(opts []Option) options {
	o := options{opener: openPool}
	for _, opt := range opts {
		opt(&o)
	}
	if o.opener == nil {
		o.opener = openPool
	}
	return o
}

// openPool opens a pool through the driver adapter of d.
func openPool(ctx context.Context, d dialect.Dialect, cfg *Config) (runtime.Pool, error) {
	dbcfg := database.Config{
		Driver:          cfg.Driver,
		URL:             cfg.URL,
		MaxOpenConns:    cfg.Pool.MaxOpen,
		MaxIdleConns:    cfg.Pool.MaxIdle,
		ConnMaxLifetime: cfg.Pool.ConnMaxLifetime,
	}
	var (
		pool *database.Pool
		err  error
	)
	switch d.Name() {
	case dialect.NamePostgres:
		pool, err = postgres.Open(ctx, dbcfg)
	case dialect.NameMySQL:
		pool, err = mysql.Open(ctx, dbcfg)
	case dialect.NameSQLite:
		pool, err = sqlite.Open(ctx, dbcfg)
	default:
		return nil, fmt.Errorf("no driver adapter for dialect %q; use WithPoolOpener", d.Name())
	}
	if err != nil {
		return nil, err
	}
	return pool, nil
}

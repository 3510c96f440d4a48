// Package client opens database connections with the execution client, the
// event sink and the repository wired together.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/Starbem/star-db-query-builder/internal/adapters/telemetry"
	"github.com/Starbem/star-db-query-builder/internal/config"
	"github.com/Starbem/star-db-query-builder/internal/debug"
	"github.com/Starbem/star-db-query-builder/query/dialect"
	"github.com/Starbem/star-db-query-builder/query/executor"
	"github.com/Starbem/star-db-query-builder/runtime"
)

// Config is the connection configuration.
type Config = config.Config

// Connection is a named connection entry of Config.
type Connection = config.Connection

// DefaultConfig returns a configuration with default retry and event
// settings and no connection target.
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig loads configuration from .stardb.yaml, STARDB_ environment
// variables and .env files.
func LoadConfig() (*Config, error) {
	return config.Load()
}

// DB is an open connection.
type DB struct {
	client *runtime.Client
	repo   *executor.Executor
	stats  *telemetry.StatsSink
}

// Open connects to url with default settings. dialectName may be empty when
// the url implies the dialect.
func Open(ctx context.Context, dialectName, url string, opts ...Option) (*DB, error) {
	cfg := DefaultConfig()
	cfg.Dialect = dialectName
	cfg.URL = url
	return OpenConfig(ctx, cfg, opts...)
}

// OpenConfig connects using cfg. Named connections in cfg are ignored; use
// FromConfig for those.
func OpenConfig(ctx context.Context, cfg *Config, opts ...Option) (*DB, error) {
	if cfg == nil {
		return nil, errors.New("client: config is required")
	}
	if cfg.URL == "" {
		return nil, errors.New("client: url is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("client: invalid config: %w", err)
	}
	if cfg.Debug {
		debug.Init(true)
	}
	o := buildOptions(opts)

	d, err := config.ResolveDialect(cfg.Dialect, cfg.URL)
	if err != nil {
		return nil, err
	}

	sink, err := telemetry.New(&telemetry.Config{
		Type:          telemetry.Type(cfg.Events.Sink),
		Logger:        o.logger,
		SlowThreshold: cfg.Events.SlowThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	stats, _ := sink.(*telemetry.StatsSink)

	pool, err := o.opener(ctx, d, cfg)
	if err != nil {
		return nil, fmt.Errorf("client: open %s: %w", d.Name(), err)
	}

	rc, err := runtime.NewClient(pool,
		runtime.WithRetry(retryConfig(cfg.Retry)),
		runtime.WithObserver(telemetry.Multi(append([]runtime.Observer{sink}, o.observers...)...)),
		runtime.WithEventBuffer(cfg.Events.Buffer),
	)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("client: %w", err), pool.Close())
	}

	debug.Debug("connection opened", "dialect", d.Name(), "sink", cfg.Events.Sink)
	return &DB{
		client: rc,
		repo:   executor.New(o.executor...),
		stats:  stats,
	}, nil
}

func retryConfig(r config.Retry) runtime.RetryConfig {
	return runtime.RetryConfig{
		Retries:       r.Count,
		BackoffFactor: r.Factor,
		MinDelay:      r.MinDelay,
		MaxDelay:      r.MaxDelay,
		Jitter:        r.Jitter,
	}
}

// Client returns the execution client. It satisfies runtime.Querier and can
// be passed to every repository operation.
func (db *DB) Client() *runtime.Client { return db.client }

// Repository returns the generic repository.
func (db *DB) Repository() *executor.Executor { return db.repo }

// Dialect returns the connection dialect.
func (db *DB) Dialect() dialect.Dialect { return db.client.Dialect() }

// Snapshot is a point-in-time copy of the connection counters.
type Snapshot = telemetry.Snapshot

// Stats returns the counters. ok is false unless the stats sink is
// configured.
func (db *DB) Stats() (s Snapshot, ok bool) {
	if db.stats == nil {
		return Snapshot{}, false
	}
	return db.stats.Snapshot(), true
}

// Transaction runs fn inside a transaction on one connection.
func (db *DB) Transaction(ctx context.Context, fn func(tx *runtime.Tx) error) error {
	return db.client.Transaction(ctx, fn)
}

// Close drains pending events and closes the pool.
func (db *DB) Close() error {
	return db.client.Close()
}

package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Starbem/star-db-query-builder/internal/debug"
)

// DefaultName is the registry name of the top-level connection in a config.
const DefaultName = "default"

// Registry errors.
var (
	ErrConnectionExists  = errors.New("connection already exists")
	ErrUnknownConnection = errors.New("unknown connection")
)

// Registry holds named connections. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*DB
	opts  []Option
}

// NewRegistry creates an empty registry. opts apply to every connection it
// creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{conns: make(map[string]*DB), opts: opts}
}

// FromConfig creates a registry holding the top-level connection of cfg, if
// it has a url, under DefaultName and every named connection. Connections
// already opened are closed when one fails.
func FromConfig(ctx context.Context, cfg *Config, opts ...Option) (*Registry, error) {
	if cfg == nil {
		return nil, errors.New("client: config is required")
	}
	r := NewRegistry(opts...)

	targets := make(map[string]*Config, len(cfg.Connections)+1)
	if cfg.URL != "" {
		targets[DefaultName] = cfg
	}
	for _, name := range cfg.Names() {
		conn := cfg.Connections[name]
		sub := *cfg
		sub.Dialect, sub.Driver, sub.URL = conn.Dialect, conn.Driver, conn.URL
		sub.Connections = nil
		targets[name] = &sub
	}

	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := r.Create(ctx, name, targets[name]); err != nil {
			return nil, errors.Join(err, r.Close(ctx))
		}
	}
	return r, nil
}

// Create opens a connection and registers it under name.
func (r *Registry) Create(ctx context.Context, name string, cfg *Config) (*DB, error) {
	if name == "" {
		return nil, errors.New("client: connection name is required")
	}
	r.mu.RLock()
	_, exists := r.conns[name]
	r.mu.RUnlock()
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrConnectionExists, name)
	}

	db, err := OpenConfig(ctx, cfg, r.opts...)
	if err != nil {
		return nil, fmt.Errorf("connection %s: %w", name, err)
	}

	r.mu.Lock()
	if _, exists := r.conns[name]; exists {
		r.mu.Unlock()
		return nil, errors.Join(fmt.Errorf("%w: %s", ErrConnectionExists, name), db.Close())
	}
	r.conns[name] = db
	r.mu.Unlock()

	debug.Info("registry create", "name", name, "dialect", db.Dialect().Name())
	return db, nil
}

// Get returns the connection registered under name.
func (r *Registry) Get(name string) (*DB, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	db, ok := r.conns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConnection, name)
	}
	return db, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.conns))
	for name := range r.conns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Drop unregisters name and closes its connection.
func (r *Registry) Drop(ctx context.Context, name string) error {
	r.mu.Lock()
	db, ok := r.conns[name]
	delete(r.conns, name)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, name)
	}

	debug.Info("registry drop", "name", name)
	return within(ctx, db.Close)
}

// Close closes every connection concurrently and empties the registry.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]*DB)
	r.mu.Unlock()

	var g errgroup.Group
	for name, db := range conns {
		g.Go(func() error {
			if err := db.Close(); err != nil {
				return fmt.Errorf("close %s: %w", name, err)
			}
			return nil
		})
	}
	return within(ctx, g.Wait)
}

// within runs fn and waits for it until ctx is done. fn keeps running in
// the background when ctx ends first.
func within(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/Starbem/star-db-query-builder/query/dialect"
	"github.com/Starbem/star-db-query-builder/query/qerr"
)

// Client executes statements on a Pool with classified retries.
// It is safe for concurrent use.
type Client struct {
	pool   Pool
	retry  RetryConfig
	events *dispatcher
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	retry    RetryConfig
	observer Observer
	buffer   int
}

// WithRetry replaces the retry policy.
func WithRetry(cfg RetryConfig) Option {
	return func(o *clientOptions) {
		o.retry = cfg
	}
}

// WithRetryOptions adjusts the default retry policy.
func WithRetryOptions(opts ...RetryOption) Option {
	return func(o *clientOptions) {
		for _, opt := range opts {
			opt(&o.retry)
		}
	}
}

// WithObserver sets the event consumer. Events are delivered asynchronously.
func WithObserver(obs Observer) Option {
	return func(o *clientOptions) {
		o.observer = obs
	}
}

// WithEventBuffer sets the event queue size.
func WithEventBuffer(n int) Option {
	return func(o *clientOptions) {
		o.buffer = n
	}
}

// NewClient wraps pool.
func NewClient(pool Pool, opts ...Option) (*Client, error) {
	if pool == nil {
		return nil, qerr.Missing("client", "pool")
	}
	o := clientOptions{retry: DefaultRetryConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.retry.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		pool:  pool,
		retry: o.retry,
		now:   time.Now,
		sleep: sleep,
	}
	if o.observer != nil {
		c.events = newDispatcher(o.observer, o.buffer)
	}
	c.emit(Event{Type: EventConnectionCreated})
	return c, nil
}

// Dialect returns the pool dialect.
func (c *Client) Dialect() dialect.Dialect {
	return c.pool.Dialect()
}

// RetryConfig returns the active retry policy.
func (c *Client) RetryConfig() RetryConfig {
	return c.retry
}

// Pool returns the underlying pool.
func (c *Client) Pool() Pool {
	return c.pool
}

// Query runs query, retrying transient failures per the retry policy.
// Permanent failures surface immediately. Once retries are exhausted the
// last error is returned.
func (c *Client) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	for attempt := 1; ; attempt++ {
		c.emit(Event{Type: EventQueryStart, SQL: query, Params: args, Attempt: attempt})

		start := c.now()
		res, err := c.pool.Exec(ctx, query, args)
		elapsed := c.now().Sub(start)
		if err == nil {
			c.emit(Event{Type: EventQueryEnd, SQL: query, Params: args, Attempt: attempt, Elapsed: elapsed, Rows: res.Len()})
			return res, nil
		}

		code := classify(c.pool, err)
		if c.retry.Next(attempt, code != "") == StateFailedPermanently {
			c.emit(Event{Type: EventQueryError, SQL: query, Params: args, Attempt: attempt, Elapsed: elapsed, Err: err})
			return nil, &qerr.ExecutionError{Transient: code != "", Code: code, Attempts: attempt, Query: query, Cause: err}
		}

		wait := c.retry.Delay(attempt)
		c.emit(Event{Type: EventRetryAttempt, SQL: query, Params: args, Attempt: attempt, Elapsed: wait, Err: err})
		if werr := c.sleep(ctx, wait); werr != nil {
			c.emit(Event{Type: EventQueryError, SQL: query, Params: args, Attempt: attempt, Err: werr})
			return nil, &qerr.ExecutionError{Transient: true, Code: code, Attempts: attempt, Query: query, Cause: errors.Join(err, werr)}
		}
	}
}

// BeginTransaction acquires one dedicated connection and issues BEGIN on it.
// The connection is discarded if BEGIN fails.
func (c *Client) BeginTransaction(ctx context.Context) (*Tx, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, &qerr.TransactionError{Phase: qerr.PhaseAcquire, Cause: err}
	}
	c.emit(Event{Type: EventConnectionCreated, InTx: true})

	if _, err := conn.Exec(ctx, "BEGIN", nil); err != nil {
		c.emit(Event{Type: EventQueryError, SQL: "BEGIN", Attempt: 1, Err: err, InTx: true})
		return nil, &qerr.TransactionError{Phase: qerr.PhaseBegin, Cause: errors.Join(err, discard(conn))}
	}
	return &Tx{client: c, conn: conn}, nil
}

// Transaction runs fn inside a transaction. It commits when fn returns nil
// and rolls back otherwise, including when fn panics.
func (c *Client) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := c.BeginTransaction(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

// DroppedEvents returns how many events were discarded because the event
// queue was full or closed.
func (c *Client) DroppedEvents() int64 {
	if c.events == nil {
		return 0
	}
	return c.events.dropped.Load()
}

// Close drains pending events and closes the pool.
func (c *Client) Close() error {
	if c.events != nil {
		c.events.close()
	}
	return c.pool.Close()
}

func (c *Client) emit(e Event) {
	if c.events == nil {
		return
	}
	e.Time = c.now()
	e.Dialect = c.pool.Dialect().Name()
	c.events.emit(e)
}

package runtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Starbem/star-db-query-builder/query/dialect"
)

// fakePool replays scripted errors, one per Exec call. The last entry
// repeats; a nil entry succeeds.
type fakePool struct {
	mu         sync.Mutex
	dialect    dialect.Dialect
	script     []error
	result     *Result
	calls      []string
	conn       *fakeConn
	acquireErr error
	plain      bool
	closed     bool
	normalize  func(error) string
}

func newFakePool(script ...error) *fakePool {
	return &fakePool{
		dialect: dialect.Postgres,
		script:  script,
		result:  &Result{Rows: []Row{{"id": 1}}},
		conn:    &fakeConn{},
	}
}

func (p *fakePool) Dialect() dialect.Dialect { return p.dialect }

func (p *fakePool) Exec(ctx context.Context, query string, _ []any) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, query)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(p.script) > 0 {
		err := p.script[0]
		if len(p.script) > 1 {
			p.script = p.script[1:]
		}
		if err != nil {
			return nil, err
		}
	}
	return p.result, nil
}

func (p *fakePool) Acquire(context.Context) (Conn, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	if p.plain {
		return plainConn{c: p.conn}, nil
	}
	return p.conn, nil
}

func (p *fakePool) Close() error {
	p.closed = true
	return nil
}

func (p *fakePool) attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// normalizingPool adds driver-specific classification to fakePool.
type normalizingPool struct {
	*fakePool
}

func (p normalizingPool) NormalizeError(err error) string {
	return p.normalize(err)
}

// fakeConn records statements and fails the ones listed in failOn.
type fakeConn struct {
	mu         sync.Mutex
	statements []string
	failOn     map[string]error
	releases   int
	discards   int
	releaseErr error
}

func (c *fakeConn) Exec(_ context.Context, query string, _ []any) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statements = append(c.statements, query)
	if err, ok := c.failOn[query]; ok {
		return nil, err
	}
	return &Result{Rows: []Row{}}, nil
}

func (c *fakeConn) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releases++
	return c.releaseErr
}

func (c *fakeConn) Discard() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discards++
	return c.releaseErr
}

// plainConn is a Conn without Discard support.
type plainConn struct {
	c *fakeConn
}

func (p plainConn) Exec(ctx context.Context, query string, args []any) (*Result, error) {
	return p.c.Exec(ctx, query, args)
}

func (p plainConn) Release() error { return p.c.Release() }

// recorder collects events delivered by the dispatcher.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

var errConnReset = errors.New("read tcp 10.0.0.1:5432: connection reset by peer")

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

package runtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Starbem/star-db-query-builder/query/dialect"
	"github.com/Starbem/star-db-query-builder/query/qerr"
)

// Tx is a transaction bound to one exclusive connection. Statements run in
// the order the caller issues them and are never retried. A Tx must not be
// used from several goroutines at once.
type Tx struct {
	client  *Client
	conn    Conn
	done    atomic.Bool
	release sync.Once
	relErr  error
}

// Dialect returns the dialect of the owning client.
func (t *Tx) Dialect() dialect.Dialect {
	return t.client.Dialect()
}

// Query runs query on the transaction connection, exactly once.
func (t *Tx) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	if t.done.Load() {
		return nil, qerr.ErrTxDone
	}
	c := t.client
	c.emit(Event{Type: EventQueryStart, SQL: query, Params: args, Attempt: 1, InTx: true})

	start := c.now()
	res, err := t.conn.Exec(ctx, query, args)
	elapsed := c.now().Sub(start)
	if err != nil {
		c.emit(Event{Type: EventQueryError, SQL: query, Params: args, Attempt: 1, Elapsed: elapsed, Err: err, InTx: true})
		code := classify(c.pool, err)
		return nil, &qerr.ExecutionError{Transient: code != "", Code: code, Attempts: 1, Query: query, Cause: err}
	}
	c.emit(Event{Type: EventQueryEnd, SQL: query, Params: args, Attempt: 1, Elapsed: elapsed, Rows: res.Len(), InTx: true})
	return res, nil
}

// Commit issues COMMIT and releases the connection. When COMMIT fails the
// connection is discarded instead of going back to the pool.
func (t *Tx) Commit(ctx context.Context) error {
	return t.finish(ctx, "COMMIT", qerr.PhaseCommit, EventTransactionCommit)
}

// Rollback issues ROLLBACK and releases the connection. When ROLLBACK fails
// the connection is discarded instead of going back to the pool.
func (t *Tx) Rollback(ctx context.Context) error {
	return t.finish(ctx, "ROLLBACK", qerr.PhaseRollback, EventTransactionRollback)
}

// Done reports whether the transaction was committed or rolled back.
func (t *Tx) Done() bool {
	return t.done.Load()
}

func (t *Tx) finish(ctx context.Context, stmt string, phase qerr.TxPhase, typ EventType) error {
	if !t.done.CompareAndSwap(false, true) {
		return &qerr.TransactionError{Phase: phase, Cause: qerr.ErrTxDone}
	}

	start := t.client.now()
	_, err := t.conn.Exec(ctx, stmt, nil)
	relErr := t.releaseConn(err != nil)
	t.client.emit(Event{Type: typ, SQL: stmt, Attempt: 1, Elapsed: t.client.now().Sub(start), Err: errors.Join(err, relErr), InTx: true})

	switch {
	case err != nil:
		return &qerr.TransactionError{Phase: phase, Cause: errors.Join(err, relErr)}
	case relErr != nil:
		return &qerr.TransactionError{Phase: qerr.PhaseRelease, Cause: relErr}
	}
	return nil
}

// releaseConn gives up the connection exactly once. A broken connection
// still has a transaction open and must not be handed to another caller.
func (t *Tx) releaseConn(broken bool) error {
	t.release.Do(func() {
		if broken {
			t.relErr = discard(t.conn)
			return
		}
		t.relErr = t.conn.Release()
	})
	return t.relErr
}

// discard closes conn when it supports it and releases it otherwise.
func discard(conn Conn) error {
	if d, ok := conn.(Discarder); ok {
		return d.Discard()
	}
	return conn.Release()
}

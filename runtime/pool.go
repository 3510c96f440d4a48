// Package runtime executes compiled queries against a connection pool,
// retrying classified transient failures and scoping work in transactions.
package runtime

import (
	"context"

	"github.com/Starbem/star-db-query-builder/query/dialect"
)

// Row is one result row keyed by column name.
type Row = map[string]any

// Result is what a statement returned.
type Result struct {
	Rows         []Row
	RowsAffected int64
}

// Len returns the number of rows, or zero for a nil result.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Pool is the database connection collaborator. Implementations own the
// driver, sockets and pool sizing.
type Pool interface {
	// Dialect returns the SQL dialect spoken by the pool.
	Dialect() dialect.Dialect
	// Exec runs one statement on any pooled connection.
	Exec(ctx context.Context, query string, args []any) (*Result, error)
	// Acquire reserves one connection for exclusive use.
	Acquire(ctx context.Context) (Conn, error)
	// Close releases every pooled resource.
	Close() error
}

// Conn is an exclusively held connection.
type Conn interface {
	Exec(ctx context.Context, query string, args []any) (*Result, error)
	// Release returns the connection to the pool.
	Release() error
}

// Discarder is optionally implemented by a Conn. Discard closes the
// underlying session instead of returning it to the pool; it is used when a
// failed BEGIN, COMMIT or ROLLBACK may have left a transaction open on it.
type Discarder interface {
	Discard() error
}

// ErrorNormalizer is optionally implemented by a Pool to map driver
// specific errors onto the transient code set. It returns "" when the error
// is not one it recognizes.
type ErrorNormalizer interface {
	NormalizeError(err error) string
}

// Querier runs statements. Both *Client and *Tx implement it.
type Querier interface {
	Dialect() dialect.Dialect
	Query(ctx context.Context, query string, args ...any) (*Result, error)
}

// Package executor provides the generic repository: typed CRUD over any
// table, written once against the dialect interface.
package executor

import (
	"time"

	"github.com/google/uuid"

	"github.com/Starbem/star-db-query-builder/query/ast"
	"github.com/Starbem/star-db-query-builder/query/sqlgen"
	"github.com/Starbem/star-db-query-builder/runtime"
)

// Conventions name the columns the repository manages itself. An empty
// timestamp column disables stamping it.
type Conventions struct {
	IDColumn        string
	CreatedAtColumn string
	UpdatedAtColumn string
	StatusColumn    string
	DeletedStatus   string
	DeletedAtColumn string
}

// DefaultConventions returns the column conventions used when none are given.
func DefaultConventions() Conventions {
	return Conventions{
		IDColumn:        "id",
		CreatedAtColumn: "created_at",
		StatusColumn:    "status",
		DeletedStatus:   "deleted",
	}
}

// Executor runs repository operations. The zero value is not usable; call New.
type Executor struct {
	conv  Conventions
	newID func() (string, error)
	now   func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithConventions replaces the column conventions.
func WithConventions(c Conventions) Option {
	return func(e *Executor) {
		e.conv = c
	}
}

// WithIDGenerator replaces the identifier generator.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(e *Executor) {
		e.newID = fn
	}
}

// WithClock replaces the clock used for timestamps.
func WithClock(fn func() time.Time) Option {
	return func(e *Executor) {
		e.now = fn
	}
}

// New creates an Executor. Identifiers default to UUIDv7 strings.
func New(opts ...Option) *Executor {
	e := &Executor{
		conv:  DefaultConventions(),
		newID: newUUID,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.conv.IDColumn == "" {
		e.conv.IDColumn = "id"
	}
	return e
}

// Conventions returns the active column conventions.
func (e *Executor) Conventions() Conventions {
	return e.conv
}

func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// FindInput selects rows from one table.
type FindInput struct {
	Table    string
	Client   runtime.Querier
	Select   []string
	Where    ast.Filter
	GroupBy  []string
	OrderBy  []sqlgen.OrderBy
	Limit    int
	Offset   int
	Unaccent bool
}

// InsertInput inserts one row.
type InsertInput struct {
	Table     string
	Client    runtime.Querier
	Data      *ast.Data
	Returning []string // defaults to *
}

// InsertManyInput inserts several rows in one statement.
type InsertManyInput struct {
	Table     string
	Client    runtime.Querier
	Data      []*ast.Data
	Returning []string // defaults to *
}

// UpdateInput updates the row whose identifier equals ID.
type UpdateInput struct {
	Table  string
	Client runtime.Querier
	ID     any
	Data   *ast.Data
	// Returning lists the columns to return. When empty the update returns
	// no row.
	Returning []string
}

// UpdateManyInput updates every row matching Where.
type UpdateManyInput struct {
	Table     string
	Client    runtime.Querier
	Data      *ast.Data
	Where     ast.Filter
	Returning []string // defaults to *
}

// DeleteInput deletes the row whose Field equals ID.
type DeleteInput struct {
	Table  string
	Client runtime.Querier
	ID     any
	// Field is the unique column to match, defaulting to the identifier.
	Field string
	// Permanently issues DELETE instead of marking the row deleted.
	Permanently bool
}

// DeleteManyInput deletes every row whose Field is in IDs.
type DeleteManyInput struct {
	Table       string
	Client      runtime.Querier
	IDs         []any
	Field       string
	Permanently bool
}

// JoinInput selects from a table joined to others.
type JoinInput struct {
	Table    string
	Client   runtime.Querier
	Select   []string
	Joins    []sqlgen.Join
	Where    ast.Filter
	GroupBy  []string
	OrderBy  []sqlgen.OrderBy
	Limit    int
	Offset   int
	Unaccent bool
}

// CountInput counts rows matching Where.
type CountInput struct {
	Table    string
	Client   runtime.Querier
	Where    ast.Filter
	Unaccent bool
}

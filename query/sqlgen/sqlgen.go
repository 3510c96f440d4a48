// Package sqlgen compiles condition trees and statement descriptions into
// dialect-specific SQL text and ordered bind parameters.
//
// Every function in this package is pure: the running placeholder index is
// passed in and returned explicitly, never kept in shared state.
package sqlgen

import "github.com/Starbem/star-db-query-builder/query/dialect"

// Query represents a SQL query with arguments.
type Query struct {
	SQL  string
	Args []any
}

// Clause is a compiled SQL fragment. Next is the placeholder index the
// following fragment must start from, so Next-start == len(Args).
type Clause struct {
	SQL  string
	Args []any
	Next int
}

// Empty reports whether the clause emitted no SQL.
func (c Clause) Empty() bool {
	return c.SQL == ""
}

// Options tweak how conditions are compiled.
type Options struct {
	// Unaccent wraps both sides of plain comparisons against string values
	// in the dialect's accent-folding function when the dialect has one.
	Unaccent bool
}

// placeholders allocates n consecutive placeholders starting at start.
func placeholders(d dialect.Dialect, start, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = d.Placeholder(start + i)
	}
	return out
}

package sqlgen

import (
	"strings"

	"github.com/Starbem/star-db-query-builder/query/ast"
	"github.com/Starbem/star-db-query-builder/query/dialect"
	"github.com/Starbem/star-db-query-builder/query/qerr"
)

// Plan describes a SELECT statement. Build serializes it once, in the fixed
// order SELECT, FROM, JOIN, WHERE, GROUP BY, ORDER BY, LIMIT, OFFSET.
type Plan struct {
	Select   []string
	From     string
	Joins    []Join
	Where    ast.Filter
	GroupBy  []string
	OrderBy  []OrderBy
	Limit    int
	Offset   int
	Unaccent bool
}

// Build compiles the plan for d with placeholders numbered from 1.
func (p Plan) Build(d dialect.Dialect) (Query, error) {
	if strings.TrimSpace(p.From) == "" {
		return Query{}, qerr.Missing("select", "table")
	}

	joins, err := CompileJoins(p.Joins)
	if err != nil {
		return Query{}, err
	}
	where, err := CompileWhere(p.Where, 1, d, Options{Unaccent: p.Unaccent})
	if err != nil {
		return Query{}, err
	}
	orderBy, err := CompileOrderBy(p.OrderBy)
	if err != nil {
		return Query{}, err
	}
	limit := CompileLimit(p.Limit, where.Next, d)
	offset := CompileOffset(p.Offset, limit.Next, d)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(CompileSelect(p.Select))
	b.WriteString(" FROM ")
	b.WriteString(p.From)
	b.WriteString(joins)
	b.WriteString(where.SQL)
	b.WriteString(CompileGroupBy(p.GroupBy))
	b.WriteString(orderBy)
	b.WriteString(limit.SQL)
	b.WriteString(offset.SQL)

	args := make([]any, 0, len(where.Args)+len(limit.Args)+len(offset.Args))
	args = append(args, where.Args...)
	args = append(args, limit.Args...)
	args = append(args, offset.Args...)
	return Query{SQL: b.String(), Args: args}, nil
}

// Count builds SELECT COUNT(*) AS count FROM table WHERE ...
func Count(table string, where ast.Filter, d dialect.Dialect, opts Options) (Query, error) {
	return Plan{
		Select:   []string{"COUNT(*) AS count"},
		From:     table,
		Where:    where,
		Unaccent: opts.Unaccent,
	}.Build(d)
}

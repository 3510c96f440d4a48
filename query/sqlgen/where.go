package sqlgen

import (
	"fmt"
	"strings"

	"github.com/Starbem/star-db-query-builder/query/ast"
	"github.com/Starbem/star-db-query-builder/query/dialect"
	"github.com/Starbem/star-db-query-builder/query/qerr"
)

// CompileWhere compiles filter into " WHERE ..." with placeholders numbered
// from start. An empty filter yields an empty clause with Next == start.
func CompileWhere(filter ast.Filter, start int, d dialect.Dialect, opts Options) (Clause, error) {
	c, err := compileTerms(filter, ast.AND, start, d, opts)
	if err != nil {
		return Clause{}, err
	}
	if c.Empty() {
		return Clause{Next: start}, nil
	}
	c.SQL = " WHERE " + c.SQL
	return c, nil
}

// CompileCondition compiles a single condition without the WHERE keyword.
// A nil condition, typed or not, compiles to an empty clause.
func CompileCondition(cond ast.Condition, start int, d dialect.Dialect, opts Options) (Clause, error) {
	switch c := cond.(type) {
	case ast.Leaf:
		return compileLeaf(c, start, d, opts)
	case *ast.Leaf:
		if c == nil {
			return Clause{Next: start}, nil
		}
		return compileLeaf(*c, start, d, opts)
	case ast.Group:
		return compileGroup(c.Children, c.Logic, start, d, opts)
	case *ast.Group:
		if c == nil {
			return Clause{Next: start}, nil
		}
		return compileGroup(c.Children, c.Logic, start, d, opts)
	case ast.JoinGroup:
		return compileGroup(c.Children, ast.AND, start, d, opts)
	case *ast.JoinGroup:
		if c == nil {
			return Clause{Next: start}, nil
		}
		return compileGroup(c.Children, ast.AND, start, d, opts)
	case nil:
		return Clause{Next: start}, nil
	default:
		return Clause{}, qerr.Malformed("", "", "unsupported condition type %T", cond)
	}
}

// compileTerms compiles terms in order, each one continuing from the index
// the previous one returned, and joins them with logic.
func compileTerms(terms []ast.Condition, logic ast.LogicalOperator, start int, d dialect.Dialect, opts Options) (Clause, error) {
	op, err := logicKeyword(logic)
	if err != nil {
		return Clause{}, err
	}

	var parts []string
	var args []any
	next := start
	for _, term := range terms {
		c, err := CompileCondition(term, next, d, opts)
		if err != nil {
			return Clause{}, err
		}
		if c.Empty() {
			continue
		}
		parts = append(parts, c.SQL)
		args = append(args, c.Args...)
		next = c.Next
	}
	return Clause{SQL: strings.Join(parts, " "+op+" "), Args: args, Next: next}, nil
}

// compileGroup wraps the joined children in one pair of parentheses so the
// group contributes exactly one term to its parent.
func compileGroup(children []ast.Condition, logic ast.LogicalOperator, start int, d dialect.Dialect, opts Options) (Clause, error) {
	c, err := compileTerms(children, logic, start, d, opts)
	if err != nil || c.Empty() {
		return c, err
	}
	c.SQL = "(" + c.SQL + ")"
	return c, nil
}

func logicKeyword(logic ast.LogicalOperator) (string, error) {
	switch strings.ToUpper(string(logic)) {
	case "", "AND":
		return "AND", nil
	case "OR":
		return "OR", nil
	default:
		return "", qerr.Malformed("", string(logic), "unknown logical operator")
	}
}

func compileLeaf(l ast.Leaf, start int, d dialect.Dialect, opts Options) (Clause, error) {
	if err := l.Validate(); err != nil {
		return Clause{}, err
	}
	op := l.Operator.Normalize()

	switch op {
	case ast.OpIsNull, ast.OpIsNotNull:
		return Clause{SQL: fmt.Sprintf("%s %s", l.Field, op), Next: start}, nil

	case ast.OpNotExists:
		// The subquery is trusted caller input and is emitted verbatim.
		sub := strings.TrimSpace(l.Value.(string))
		return Clause{SQL: fmt.Sprintf("NOT EXISTS (%s)", sub), Next: start}, nil

	case ast.OpBetween:
		values, _ := ast.Values(l.Value)
		ph := placeholders(d, start, 2)
		return Clause{
			SQL:  fmt.Sprintf("%s BETWEEN %s AND %s", l.Field, ph[0], ph[1]),
			Args: values,
			Next: start + 2,
		}, nil

	case ast.OpIn, ast.OpNotIn:
		values, _ := ast.Values(l.Value)
		ph := placeholders(d, start, len(values))
		return Clause{
			SQL:  fmt.Sprintf("%s %s (%s)", l.Field, op, strings.Join(ph, ", ")),
			Args: values,
			Next: start + len(values),
		}, nil
	}

	field, ph := l.Field, d.Placeholder(start)
	if _, text := l.Value.(string); opts.Unaccent && text {
		if wrapped, ok := d.Unaccent(field); ok {
			field = wrapped
			ph, _ = d.Unaccent(ph)
		}
	}
	return Clause{
		SQL:  fmt.Sprintf("%s %s %s", field, op, ph),
		Args: []any{l.Value},
		Next: start + 1,
	}, nil
}

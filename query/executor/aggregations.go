package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/Starbem/star-db-query-builder/query/ast"
	"github.com/Starbem/star-db-query-builder/query/qerr"
	"github.com/Starbem/star-db-query-builder/query/sqlgen"
	"github.com/Starbem/star-db-query-builder/runtime"
)

// AggregateFunc is a numeric SQL aggregate.
type AggregateFunc string

const (
	Sum AggregateFunc = "SUM"
	Avg AggregateFunc = "AVG"
	Min AggregateFunc = "MIN"
	Max AggregateFunc = "MAX"
)

// AggregateInput applies Func to Field over the rows matching Where.
type AggregateInput struct {
	Table  string
	Client runtime.Querier
	Func   AggregateFunc
	Field  string
	Where  ast.Filter
}

// Count returns the number of rows matching in.Where.
func (e *Executor) Count(ctx context.Context, in CountInput) (int64, error) {
	if err := validateTarget("count", in.Table, in.Client); err != nil {
		return 0, err
	}
	q, err := sqlgen.Count(in.Table, in.Where, in.Client.Dialect(), sqlgen.Options{Unaccent: in.Unaccent})
	if err != nil {
		return 0, err
	}
	rows, err := run(ctx, "count", in.Table, in.Client, q)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	n, err := toInt64(rows[0]["count"])
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", in.Table, err)
	}
	return n, nil
}

// Aggregate returns the aggregate value, or 0 when it is NULL.
func (e *Executor) Aggregate(ctx context.Context, in AggregateInput) (float64, error) {
	if err := validateTarget("aggregate", in.Table, in.Client); err != nil {
		return 0, err
	}
	if in.Field == "" {
		return 0, qerr.Missing("aggregate", "field")
	}
	fn := AggregateFunc(strings.ToUpper(string(in.Func)))
	switch fn {
	case Sum, Avg, Min, Max:
	default:
		return 0, &qerr.ValidationError{Operation: "aggregate", Field: "func", Reason: fmt.Sprintf("has invalid value %q", in.Func)}
	}

	q, err := sqlgen.Plan{
		Select: []string{fmt.Sprintf("%s(%s) AS value", fn, in.Field)},
		From:   in.Table,
		Where:  in.Where,
	}.Build(in.Client.Dialect())
	if err != nil {
		return 0, err
	}
	rows, err := run(ctx, "aggregate", in.Table, in.Client, q)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	v, err := toFloat64(rows[0]["value"])
	if err != nil {
		return 0, fmt.Errorf("aggregate %s: %w", in.Table, err)
	}
	return v, nil
}

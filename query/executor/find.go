package executor

import (
	"context"
	"fmt"

	"github.com/Starbem/star-db-query-builder/query/sqlgen"
	"github.com/Starbem/star-db-query-builder/runtime"
)

// FindFirst returns the first row of the SELECT, or nil when nothing
// matched. No LIMIT is added; pass OrderBy for a deterministic row.
func (e *Executor) FindFirst(ctx context.Context, in FindInput) (runtime.Row, error) {
	rows, err := e.find(ctx, "findFirst", in)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// FindMany returns every matching row. The result is never nil.
func (e *Executor) FindMany(ctx context.Context, in FindInput) ([]runtime.Row, error) {
	return e.find(ctx, "findMany", in)
}

func (e *Executor) find(ctx context.Context, op string, in FindInput) ([]runtime.Row, error) {
	if err := validateTarget(op, in.Table, in.Client); err != nil {
		return nil, err
	}
	q, err := sqlgen.Plan{
		Select:   in.Select,
		From:     in.Table,
		Where:    in.Where,
		GroupBy:  in.GroupBy,
		OrderBy:  in.OrderBy,
		Limit:    in.Limit,
		Offset:   in.Offset,
		Unaccent: in.Unaccent,
	}.Build(in.Client.Dialect())
	if err != nil {
		return nil, err
	}
	return run(ctx, op, in.Table, in.Client, q)
}

// run executes q and returns its rows, never nil.
func run(ctx context.Context, op, table string, client runtime.Querier, q sqlgen.Query) ([]runtime.Row, error) {
	res, err := client.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, table, err)
	}
	if res == nil || res.Rows == nil {
		return []runtime.Row{}, nil
	}
	return res.Rows, nil
}

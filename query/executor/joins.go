package executor

import (
	"context"

	"github.com/Starbem/star-db-query-builder/query/qerr"
	"github.com/Starbem/star-db-query-builder/query/sqlgen"
	"github.com/Starbem/star-db-query-builder/runtime"
)

// Joins runs a SELECT over in.Table and its joins. JOIN predicates are
// emitted verbatim in declaration order.
func (e *Executor) Joins(ctx context.Context, in JoinInput) ([]runtime.Row, error) {
	if err := validateTarget("joins", in.Table, in.Client); err != nil {
		return nil, err
	}
	if len(in.Joins) == 0 {
		return nil, qerr.Missing("joins", "joins")
	}
	q, err := sqlgen.Plan{
		Select:   in.Select,
		From:     in.Table,
		Joins:    in.Joins,
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
	return run(ctx, "joins", in.Table, in.Client, q)
}

package executor

import (
	"context"

	"github.com/Starbem/star-db-query-builder/query/ast"
	"github.com/Starbem/star-db-query-builder/query/qerr"
	"github.com/Starbem/star-db-query-builder/query/sqlgen"
	"github.com/Starbem/star-db-query-builder/runtime"
)

// DeleteOne removes the row whose Field equals ID. Unless Permanently is set
// the row is only marked deleted through the status column.
func (e *Executor) DeleteOne(ctx context.Context, in DeleteInput) error {
	if err := validateTarget("deleteOne", in.Table, in.Client); err != nil {
		return err
	}
	if isEmptyID(in.ID) {
		return qerr.Missing("deleteOne", "id")
	}
	where := ast.All(ast.Eq(e.field(in.Field), in.ID))
	return e.remove(ctx, "deleteOne", in.Table, in.Client, where, in.Permanently)
}

// DeleteMany removes every row whose Field is one of IDs. Field may name any
// unique column.
func (e *Executor) DeleteMany(ctx context.Context, in DeleteManyInput) error {
	if err := validateTarget("deleteMany", in.Table, in.Client); err != nil {
		return err
	}
	if len(in.IDs) == 0 {
		return qerr.Missing("deleteMany", "ids")
	}
	where := ast.All(ast.In(e.field(in.Field), in.IDs...))
	return e.remove(ctx, "deleteMany", in.Table, in.Client, where, in.Permanently)
}

func (e *Executor) field(f string) string {
	if f == "" {
		return e.conv.IDColumn
	}
	return f
}

func (e *Executor) remove(ctx context.Context, op, table string, client runtime.Querier, where ast.Filter, permanently bool) error {
	d := client.Dialect()

	var q sqlgen.Query
	var err error
	if permanently {
		q, err = sqlgen.Delete(table, where, d)
	} else {
		if e.conv.StatusColumn == "" {
			return &qerr.ValidationError{Operation: op, Field: "status column", Reason: "is not configured for soft delete"}
		}
		data := ast.NewData().Set(e.conv.StatusColumn, e.conv.DeletedStatus)
		if e.conv.DeletedAtColumn != "" {
			data.Set(e.conv.DeletedAtColumn, e.now())
		}
		q, err = sqlgen.Update(table, data, where, nil, d)
	}
	if err != nil {
		return err
	}
	_, err = run(ctx, op, table, client, q)
	return err
}

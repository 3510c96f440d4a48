package executor

import (
	"context"
	"fmt"

	"github.com/Starbem/star-db-query-builder/query/ast"
	"github.com/Starbem/star-db-query-builder/query/qerr"
	"github.com/Starbem/star-db-query-builder/query/sqlgen"
	"github.com/Starbem/star-db-query-builder/runtime"
)

// Insert inserts one row after assigning its identifier and creation
// timestamp. Without RETURNING the row is fetched back by that identifier.
func (e *Executor) Insert(ctx context.Context, in InsertInput) (runtime.Row, error) {
	if err := validateTarget("insert", in.Table, in.Client); err != nil {
		return nil, err
	}
	if in.Data.Len() == 0 {
		return nil, qerr.Missing("insert", "data")
	}

	row, id, err := e.stamp(in.Data)
	if err != nil {
		return nil, err
	}
	rows, err := e.insertRows(ctx, "insert", in.Table, in.Client, []*ast.Data{row}, []any{id}, in.Returning)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// InsertMany inserts every row with one multi-row INSERT. The returned rows
// follow the input order on every dialect.
func (e *Executor) InsertMany(ctx context.Context, in InsertManyInput) ([]runtime.Row, error) {
	if err := validateTarget("insertMany", in.Table, in.Client); err != nil {
		return nil, err
	}
	if len(in.Data) == 0 {
		return nil, qerr.Missing("insertMany", "data")
	}

	rows := make([]*ast.Data, len(in.Data))
	ids := make([]any, len(in.Data))
	for i, d := range in.Data {
		if d.Len() == 0 {
			return nil, qerr.Missing("insertMany", fmt.Sprintf("data[%d]", i))
		}
		row, id, err := e.stamp(d)
		if err != nil {
			return nil, err
		}
		rows[i], ids[i] = row, id
	}
	return e.insertRows(ctx, "insertMany", in.Table, in.Client, rows, ids, in.Returning)
}

func (e *Executor) insertRows(ctx context.Context, op, table string, client runtime.Querier, rows []*ast.Data, ids []any, returning []string) ([]runtime.Row, error) {
	d := client.Dialect()
	returning = defaultReturning(returning)

	q, err := sqlgen.InsertMany(table, rows, returning, d)
	if err != nil {
		return nil, err
	}
	inserted, err := run(ctx, op, table, client, q)
	if err != nil {
		return nil, err
	}
	if d.SupportsReturning() {
		return reorderByID(inserted, ids, e.conv.IDColumn), nil
	}
	return e.fetchByIDs(ctx, op, table, client, ids, returning)
}

// fetchByIDs selects the rows whose identifier is in ids, in ids order.
func (e *Executor) fetchByIDs(ctx context.Context, op, table string, client runtime.Querier, ids []any, fields []string) ([]runtime.Row, error) {
	if len(ids) == 0 {
		return []runtime.Row{}, nil
	}
	sel, strip := selectWithID(fields, e.conv.IDColumn)

	where := ast.All(ast.In(e.conv.IDColumn, ids...))
	if len(ids) == 1 {
		where = ast.All(ast.Eq(e.conv.IDColumn, ids[0]))
	}
	q, err := sqlgen.Plan{Select: sel, From: table, Where: where}.Build(client.Dialect())
	if err != nil {
		return nil, err
	}
	rows, err := run(ctx, op, table, client, q)
	if err != nil {
		return nil, err
	}
	rows = reorderByID(rows, ids, e.conv.IDColumn)
	if strip {
		stripColumn(rows, e.conv.IDColumn)
	}
	return rows, nil
}

// stamp copies d with the identifier first and the creation timestamp last.
// Values the caller already set are kept.
func (e *Executor) stamp(d *ast.Data) (*ast.Data, any, error) {
	idCol := e.conv.IDColumn
	id, ok := d.Get(idCol)
	if !ok || isEmptyID(id) {
		gen, err := e.newID()
		if err != nil {
			return nil, nil, fmt.Errorf("generate identifier: %w", err)
		}
		id = gen
	}

	out := ast.NewData().Set(idCol, id)
	for _, p := range d.Pairs() {
		if p.Column != idCol {
			out.Set(p.Column, p.Value)
		}
	}
	if col := e.conv.CreatedAtColumn; col != "" && !out.Has(col) {
		out.Set(col, e.now())
	}
	return out, id, nil
}

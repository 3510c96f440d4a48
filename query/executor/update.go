package executor

import (
	"context"

	"github.com/Starbem/star-db-query-builder/query/ast"
	"github.com/Starbem/star-db-query-builder/query/qerr"
	"github.com/Starbem/star-db-query-builder/query/sqlgen"
	"github.com/Starbem/star-db-query-builder/runtime"
)

// Update changes the row whose identifier equals in.ID. It returns the
// updated row when in.Returning is set and the row exists, nil otherwise.
func (e *Executor) Update(ctx context.Context, in UpdateInput) (runtime.Row, error) {
	if err := validateTarget("update", in.Table, in.Client); err != nil {
		return nil, err
	}
	if isEmptyID(in.ID) {
		return nil, qerr.Missing("update", "id")
	}
	if in.Data.Len() == 0 {
		return nil, qerr.Missing("update", "data")
	}

	d := in.Client.Dialect()
	where := ast.All(ast.Eq(e.conv.IDColumn, in.ID))
	q, err := sqlgen.Update(in.Table, e.stampUpdate(in.Data), where, in.Returning, d)
	if err != nil {
		return nil, err
	}
	rows, err := run(ctx, "update", in.Table, in.Client, q)
	if err != nil || len(in.Returning) == 0 {
		return nil, err
	}
	if !d.SupportsReturning() {
		rows, err = e.fetchByIDs(ctx, "update", in.Table, in.Client, []any{in.ID}, in.Returning)
		if err != nil {
			return nil, err
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// UpdateMany changes every row matching in.Where and returns the updated
// rows. SET placeholders come first and the filter continues after them.
//
// Without RETURNING the identifiers of the matching rows are selected before
// the UPDATE, so rows whose filtered columns the UPDATE changes are still
// returned.
func (e *Executor) UpdateMany(ctx context.Context, in UpdateManyInput) ([]runtime.Row, error) {
	if err := validateTarget("updateMany", in.Table, in.Client); err != nil {
		return nil, err
	}
	if in.Data.Len() == 0 {
		return nil, qerr.Missing("updateMany", "data")
	}
	if len(in.Where) == 0 {
		return nil, qerr.Missing("updateMany", "where")
	}

	d := in.Client.Dialect()
	data := e.stampUpdate(in.Data)
	returning := defaultReturning(in.Returning)

	if d.SupportsReturning() {
		q, err := sqlgen.Update(in.Table, data, in.Where, returning, d)
		if err != nil {
			return nil, err
		}
		return run(ctx, "updateMany", in.Table, in.Client, q)
	}

	pre, err := sqlgen.Plan{Select: []string{e.conv.IDColumn}, From: in.Table, Where: in.Where}.Build(d)
	if err != nil {
		return nil, err
	}
	matched, err := run(ctx, "updateMany", in.Table, in.Client, pre)
	if err != nil {
		return nil, err
	}

	q, err := sqlgen.Update(in.Table, data, in.Where, nil, d)
	if err != nil {
		return nil, err
	}
	if _, err := run(ctx, "updateMany", in.Table, in.Client, q); err != nil {
		return nil, err
	}

	ids := make([]any, 0, len(matched))
	for _, row := range matched {
		if id, ok := row[e.conv.IDColumn]; ok {
			ids = append(ids, id)
		}
	}
	return e.fetchByIDs(ctx, "updateMany", in.Table, in.Client, ids, returning)
}

// stampUpdate adds the update timestamp when the convention names one and the
// caller did not set it.
func (e *Executor) stampUpdate(d *ast.Data) *ast.Data {
	col := e.conv.UpdatedAtColumn
	if col == "" || d.Has(col) {
		return d
	}
	return d.Clone().Set(col, e.now())
}

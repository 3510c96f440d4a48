package sqlgen

import (
	"fmt"
	"strings"

	"github.com/Starbem/star-db-query-builder/query/ast"
	"github.com/Starbem/star-db-query-builder/query/dialect"
	"github.com/Starbem/star-db-query-builder/query/qerr"
)

// CompileSet compiles data into `"col" = ?, ...` in column insertion order,
// with placeholders numbered from start.
func CompileSet(data *ast.Data, start int, d dialect.Dialect) (Clause, error) {
	if data.Len() == 0 {
		return Clause{}, qerr.Missing("update", "data")
	}
	pairs := data.Pairs()
	parts := make([]string, len(pairs))
	args := make([]any, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s = %s", d.QuoteIdentifier(p.Column), d.Placeholder(start+i))
		args[i] = p.Value
	}
	return Clause{SQL: strings.Join(parts, ", "), Args: args, Next: start + len(pairs)}, nil
}

// Insert builds a single-row INSERT.
func Insert(table string, data *ast.Data, returning []string, d dialect.Dialect) (Query, error) {
	if data.Len() == 0 {
		return Query{}, qerr.Missing("insert", "data")
	}
	return InsertMany(table, []*ast.Data{data}, returning, d)
}

// InsertMany builds one multi-row INSERT. The column list is the union of
// the row columns in first-seen order; a row missing a column binds NULL.
// Each row advances the placeholder index by the column count.
func InsertMany(table string, rows []*ast.Data, returning []string, d dialect.Dialect) (Query, error) {
	if strings.TrimSpace(table) == "" {
		return Query{}, qerr.Missing("insert", "table")
	}
	if len(rows) == 0 {
		return Query{}, qerr.Missing("insert", "data")
	}

	columns := unionColumns(rows)
	if len(columns) == 0 {
		return Query{}, qerr.Missing("insert", "data")
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdentifier(c)
	}

	stride := len(columns)
	tuples := make([]string, len(rows))
	args := make([]any, 0, stride*len(rows))
	for r, row := range rows {
		ph := placeholders(d, 1+r*stride, stride)
		tuples[r] = "(" + strings.Join(ph, ", ") + ")"
		for _, c := range columns {
			v, _ := row.Get(c)
			args = append(args, v)
		}
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(quoted, ", "), strings.Join(tuples, ", "))
	return Query{SQL: sql + compileReturning(returning, d), Args: args}, nil
}

// Update builds UPDATE table SET ... WHERE .... SET placeholders take indices
// 1..N and the filter continues from N+1.
func Update(table string, data *ast.Data, where ast.Filter, returning []string, d dialect.Dialect) (Query, error) {
	if strings.TrimSpace(table) == "" {
		return Query{}, qerr.Missing("update", "table")
	}
	set, err := CompileSet(data, 1, d)
	if err != nil {
		return Query{}, err
	}
	w, err := CompileWhere(where, set.Next, d, Options{})
	if err != nil {
		return Query{}, err
	}
	sql := fmt.Sprintf("UPDATE %s SET %s%s", table, set.SQL, w.SQL)
	return Query{SQL: sql + compileReturning(returning, d), Args: append(set.Args, w.Args...)}, nil
}

// Delete builds DELETE FROM table WHERE ....
func Delete(table string, where ast.Filter, d dialect.Dialect) (Query, error) {
	if strings.TrimSpace(table) == "" {
		return Query{}, qerr.Missing("delete", "table")
	}
	w, err := CompileWhere(where, 1, d, Options{})
	if err != nil {
		return Query{}, err
	}
	return Query{SQL: "DELETE FROM " + table + w.SQL, Args: w.Args}, nil
}

// compileReturning returns " RETURNING ..." when the dialect supports it and
// fields were requested.
func compileReturning(fields []string, d dialect.Dialect) string {
	if len(fields) == 0 || !d.SupportsReturning() {
		return ""
	}
	return " RETURNING " + strings.Join(fields, ", ")
}

func unionColumns(rows []*ast.Data) []string {
	seen := make(map[string]struct{})
	var columns []string
	for _, row := range rows {
		for _, c := range row.Columns() {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			columns = append(columns, c)
		}
	}
	return columns
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"unicode"

	"github.com/Starbem/star-db-query-builder/runtime"
)

// execQuerier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var rowKeywords = map[string]struct{}{
	"SELECT":   {},
	"WITH":     {},
	"VALUES":   {},
	"SHOW":     {},
	"EXPLAIN":  {},
	"DESCRIBE": {},
	"PRAGMA":   {},
	"TABLE":    {},
}

// ReturnsRows reports whether query produces a result set: it starts with a
// reading keyword or carries a RETURNING clause outside any quotes.
func ReturnsRows(query string) bool {
	words := keywords(query)
	if len(words) == 0 {
		return false
	}
	if _, ok := rowKeywords[words[0]]; ok {
		return true
	}
	for _, w := range words[1:] {
		if w == "RETURNING" {
			return true
		}
	}
	return false
}

// keywords splits query into upper-cased words, skipping string literals and
// quoted identifiers.
func keywords(query string) []string {
	var (
		words []string
		word  strings.Builder
		quote rune
	)
	flush := func() {
		if word.Len() > 0 {
			words = append(words, strings.ToUpper(word.String()))
			word.Reset()
		}
	}
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			flush()
			quote = r
		case unicode.IsLetter(r) || r == '_':
			word.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return words
}

func execute(ctx context.Context, q execQuerier, query string, args []any) (*runtime.Result, error) {
	if !ReturnsRows(query) {
		res, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		// Some drivers cannot report affected rows; that is not a failure.
		n, _ := res.RowsAffected()
		return &runtime.Result{Rows: []runtime.Row{}, RowsAffected: n}, nil
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	return &runtime.Result{Rows: out, RowsAffected: int64(len(out))}, nil
}

// scanRows reads every row into a column map and closes rows. Byte slices
// are copied into strings because drivers reuse their buffers.
func scanRows(rows *sql.Rows) (out []runtime.Row, err error) {
	defer func() { err = errors.Join(err, rows.Close()) }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out = []runtime.Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(runtime.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

package sqlgen

import (
	"fmt"
	"strings"

	"github.com/Starbem/star-db-query-builder/query/dialect"
	"github.com/Starbem/star-db-query-builder/query/qerr"
)

// Direction is an ORDER BY direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// OrderBy represents one ORDER BY term.
type OrderBy struct {
	Field     string
	Direction Direction
}

// CompileSelect returns the select list, or * when fields is empty.
func CompileSelect(fields []string) string {
	if len(fields) == 0 {
		return "*"
	}
	return strings.Join(fields, ", ")
}

// CompileGroupBy returns " GROUP BY ..." or an empty string.
func CompileGroupBy(fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	return " GROUP BY " + strings.Join(fields, ", ")
}

// CompileOrderBy returns " ORDER BY ..." or an empty string. A missing
// direction defaults to ASC.
func CompileOrderBy(orders []OrderBy) (string, error) {
	if len(orders) == 0 {
		return "", nil
	}
	parts := make([]string, len(orders))
	for i, o := range orders {
		if o.Field == "" {
			return "", qerr.Missing("order by", "field")
		}
		dir := Direction(strings.ToUpper(strings.TrimSpace(string(o.Direction))))
		switch dir {
		case "":
			dir = Asc
		case Asc, Desc:
		default:
			return "", &qerr.ValidationError{Operation: "order by", Field: o.Field, Reason: fmt.Sprintf("has invalid direction %q", o.Direction)}
		}
		parts[i] = fmt.Sprintf("%s %s", o.Field, dir)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// CompileLimit returns a parameterized " LIMIT ?" clause. Non-positive
// limits emit nothing.
func CompileLimit(limit, start int, d dialect.Dialect) Clause {
	if limit <= 0 {
		return Clause{Next: start}
	}
	return Clause{SQL: " LIMIT " + d.Placeholder(start), Args: []any{limit}, Next: start + 1}
}

// CompileOffset returns a parameterized " OFFSET ?" clause. Non-positive
// offsets emit nothing.
func CompileOffset(offset, start int, d dialect.Dialect) Clause {
	if offset <= 0 {
		return Clause{Next: start}
	}
	return Clause{SQL: " OFFSET " + d.Placeholder(start), Args: []any{offset}, Next: start + 1}
}

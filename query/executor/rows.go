package executor

import (
	"fmt"
	"strconv"

	"github.com/Starbem/star-db-query-builder/runtime"
)

// idKey renders an identifier so values of different Go types that print
// the same (int64 7 and "7") compare equal.
func idKey(v any) string {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// reorderByID returns rows arranged in the order of ids. Rows whose
// identifier is not in ids keep their relative order at the end. Rows are
// returned unchanged when they do not carry the identifier column.
func reorderByID(rows []runtime.Row, ids []any, idColumn string) []runtime.Row {
	if len(rows) < 2 {
		return rows
	}
	byID := make(map[string]runtime.Row, len(rows))
	var rest []runtime.Row
	for _, row := range rows {
		v, ok := row[idColumn]
		if !ok {
			return rows
		}
		key := idKey(v)
		if _, dup := byID[key]; dup {
			rest = append(rest, row)
			continue
		}
		byID[key] = row
	}

	out := make([]runtime.Row, 0, len(rows))
	for _, id := range ids {
		key := idKey(id)
		if row, ok := byID[key]; ok {
			out = append(out, row)
			delete(byID, key)
		}
	}
	for _, row := range rows {
		if len(byID) == 0 {
			break
		}
		key := idKey(row[idColumn])
		if r, ok := byID[key]; ok {
			out = append(out, r)
			delete(byID, key)
		}
	}
	return append(out, rest...)
}

// selectWithID makes sure the identifier column is selected so fetched rows
// can be matched. strip reports whether the caller must remove it again.
func selectWithID(fields []string, idColumn string) (sel []string, strip bool) {
	for _, f := range fields {
		if f == "*" || f == idColumn {
			return fields, false
		}
	}
	return append(append([]string(nil), fields...), idColumn), true
}

func stripColumn(rows []runtime.Row, column string) {
	for _, row := range rows {
		delete(row, column)
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint64:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case string:
		return strconv.ParseInt(x, 10, 64)
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("cannot convert %T to int64", v)
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(x, 64)
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("cannot convert %T to float64", v)
}

package executor

import (
	"reflect"
	"strings"

	"github.com/Starbem/star-db-query-builder/query/qerr"
	"github.com/Starbem/star-db-query-builder/runtime"
)

// validateTarget checks the inputs every operation needs.
func validateTarget(op, table string, client runtime.Querier) error {
	if strings.TrimSpace(table) == "" {
		return qerr.Missing(op, "table")
	}
	if isNil(client) {
		return qerr.Missing(op, "client")
	}
	return nil
}

// isNil reports whether v is nil or a typed nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// isEmptyID reports whether id cannot identify a row.
func isEmptyID(id any) bool {
	if isNil(id) {
		return true
	}
	if s, ok := id.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func defaultReturning(fields []string) []string {
	if len(fields) == 0 {
		return []string{"*"}
	}
	return fields
}

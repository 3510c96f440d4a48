// Package dialect encapsulates the SQL syntax differences between backends:
// placeholder style, identifier quoting, RETURNING support and accent folding.
package dialect

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Dialect is implemented by every supported backend. The compiler and the
// repository only talk to this interface and never branch on Name.
type Dialect interface {
	// Name returns the canonical dialect name.
	Name() string
	// Placeholder returns the bind marker for the 1-based parameter index.
	Placeholder(index int) string
	// QuoteIdentifier quotes a column or table name.
	QuoteIdentifier(name string) string
	// SupportsReturning reports whether mutating statements accept RETURNING.
	SupportsReturning() bool
	// Unaccent wraps expr in an accent-folding call. It reports false when the
	// dialect has no such function.
	Unaccent(expr string) (string, bool)
}

const (
	NamePostgres = "postgres"
	NameMySQL    = "mysql"
	NameSQLite   = "sqlite"
)

var (
	mu       sync.RWMutex
	registry = map[string]Dialect{}
	aliases  = map[string]string{
		"postgresql": NamePostgres,
		"pg":         NamePostgres,
		"pgx":        NamePostgres,
		"mariadb":    NameMySQL,
		"sqlite3":    NameSQLite,
	}
)

func init() {
	Register(Postgres)
	Register(MySQL)
	Register(SQLite)
}

// Register makes d available to Lookup under d.Name(). A later registration
// with the same name replaces the earlier one.
func Register(d Dialect) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(d.Name())] = d
}

// Lookup returns the dialect registered under name or one of its aliases.
func Lookup(name string) (Dialect, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	mu.RLock()
	defer mu.RUnlock()
	if d, ok := registry[key]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("unsupported dialect %q", name)
}

// Names returns the registered dialect names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// quote wraps every dot-separated part of name in q, doubling embedded
// quote characters. A bare * is left alone.
func quote(name string, q byte) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		if len(p) >= 2 && p[0] == q && p[len(p)-1] == q {
			continue
		}
		s := string(q)
		parts[i] = s + strings.ReplaceAll(p, s, s+s) + s
	}
	return strings.Join(parts, ".")
}

// Package sqlite opens SQLite databases through mattn/go-sqlite3. Every
// connection gets an unaccent() SQL function so accent-insensitive filters
// compile the same way they do on PostgreSQL.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Starbem/star-db-query-builder/internal/adapters/database"
	"github.com/Starbem/star-db-query-builder/query/dialect"
	"github.com/Starbem/star-db-query-builder/runtime"
)

// DriverName is the database/sql driver registered by this package.
const DriverName = "sqlite3_stardb"

const defaultBusyTimeout = "5000"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("unaccent", unaccentValue, true)
		},
	})
}

// Open opens the database file named by cfg.URL. In-memory databases are
// limited to one connection because each connection would see its own
// database.
func Open(ctx context.Context, cfg database.Config) (*database.Pool, error) {
	switch cfg.Driver {
	case "", DriverName, "sqlite3", "sqlite":
	default:
		return nil, fmt.Errorf("sqlite: unsupported driver %q", cfg.Driver)
	}
	cfg.Driver = DriverName
	cfg.URL = withBusyTimeout(cfg.URL)
	if isMemory(cfg.URL) {
		cfg.MaxOpenConns = 1
	}
	return database.Open(ctx, cfg, dialect.SQLite, NormalizeError)
}

func isMemory(url string) bool {
	return strings.Contains(url, ":memory:") || strings.Contains(url, "mode=memory")
}

func withBusyTimeout(url string) string {
	if url == "" || strings.Contains(url, "_timeout") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_busy_timeout=" + defaultBusyTimeout
}

// NormalizeError maps a busy or locked database onto the timeout code. Other
// SQLite errors are permanent.
func NormalizeError(err error) string {
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return runtime.CodeTimeout
		}
	}
	return ""
}

// Unaccent removes combining marks: "José" becomes "Jose".
func Unaccent(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// unaccentValue is the SQL function body. Non-text values pass through so
// numeric comparisons keep working.
func unaccentValue(v any) any {
	switch x := v.(type) {
	case string:
		return Unaccent(x)
	case []byte:
		return Unaccent(string(x))
	}
	return v
}

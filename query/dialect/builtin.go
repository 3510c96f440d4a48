package dialect

import "strconv"

// Built-in dialects.
var (
	Postgres Dialect = postgres{}
	MySQL    Dialect = mysql{}
	SQLite   Dialect = sqlite{}
)

// postgres uses numbered placeholders and supports RETURNING.
type postgres struct{}

func (postgres) Name() string { return NamePostgres }
func (postgres) Placeholder(index int) string { return "$" + strconv.Itoa(index) }
func (postgres) QuoteIdentifier(name string) string { return quote(name, '"') }
func (postgres) SupportsReturning() bool { return true }

// Unaccent requires the unaccent extension on the server.
func (postgres) Unaccent(expr string) (string, bool) {
	return "unaccent(" + expr + ")", true
}

// mysql uses anonymous placeholders. Inserted rows are fetched back with a
// follow-up SELECT.
type mysql struct{}

func (mysql) Name() string { return NameMySQL }
func (mysql) Placeholder(int) string { return "?" }
func (mysql) QuoteIdentifier(name string) string { return quote(name, '`') }
func (mysql) SupportsReturning() bool { return false }

// Unaccent is not available; accent insensitivity comes from the column
// collation.
func (mysql) Unaccent(expr string) (string, bool) { return expr, false }

// sqlite uses anonymous placeholders and supports RETURNING since 3.35.
type sqlite struct{}

func (sqlite) Name() string { return NameSQLite }
func (sqlite) Placeholder(int) string { return "?" }
func (sqlite) QuoteIdentifier(name string) string { return quote(name, '"') }
func (sqlite) SupportsReturning() bool { return true }

// Unaccent relies on the unaccent function registered by the sqlite adapter.
func (sqlite) Unaccent(expr string) (string, bool) {
	return "unaccent(" + expr + ")", true
}

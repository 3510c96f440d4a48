package sqlgen_test

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Starbem/star-db-query-builder/query/ast"
	"github.com/Starbem/star-db-query-builder/query/dialect"
	"github.com/Starbem/star-db-query-builder/query/qerr"
	"github.com/Starbem/star-db-query-builder/query/sqlgen"
)

func newGolden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
}

func reportPlan() sqlgen.Plan {
	return sqlgen.Plan{
		Select: []string{"u.id", "u.name", "COUNT(o.id) AS orders"},
		From:   "users u",
		Joins:  []sqlgen.Join{{Type: sqlgen.LeftJoin, Table: "orders o", On: "o.user_id = u.id"}},
		Where: ast.All(
			ast.Eq("u.status", "active"),
			ast.Or(ast.Like("u.name", "%ana%"), ast.Gt("u.age", 30)),
		),
		GroupBy: []string{"u.id", "u.name"},
		OrderBy: []sqlgen.OrderBy{{Field: "u.name", Direction: sqlgen.Asc}},
		Limit:   10,
		Offset:  20,
	}
}

func TestPlanBuild(t *testing.T) {
	g := newGolden(t)

	for _, d := range []dialect.Dialect{dialect.Postgres, dialect.MySQL} {
		t.Run(d.Name(), func(t *testing.T) {
			q, err := reportPlan().Build(d)
			require.NoError(t, err)
			assert.Equal(t, []any{"active", "%ana%", 30, 10, 20}, q.Args)
			g.Assert(t, "select_report_"+d.Name(), []byte(q.SQL))
		})
	}
}

func TestPlanBuildMinimal(t *testing.T) {
	q, err := sqlgen.Plan{From: "users"}.Build(dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users", q.SQL)
	assert.Empty(t, q.Args)

	q, err = sqlgen.Plan{From: "users", Offset: 5}.Build(dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users OFFSET $1", q.SQL)
	assert.Equal(t, []any{5}, q.Args)
}

func TestPlanBuildValidation(t *testing.T) {
	_, err := sqlgen.Plan{}.Build(dialect.Postgres)
	assert.ErrorIs(t, err, qerr.ErrValidation)

	_, err = sqlgen.Plan{From: "users", OrderBy: []sqlgen.OrderBy{{Field: "name", Direction: "sideways"}}}.Build(dialect.Postgres)
	assert.ErrorIs(t, err, qerr.ErrValidation)

	_, err = sqlgen.Plan{From: "users", Joins: []sqlgen.Join{{Table: "orders"}}}.Build(dialect.Postgres)
	assert.ErrorIs(t, err, qerr.ErrValidation)
}

func TestCompileJoins(t *testing.T) {
	sql, err := sqlgen.CompileJoins([]sqlgen.Join{
		{Table: "orders o", On: "o.user_id = u.id"},
		{Type: "left", Table: "payments p", On: "p.order_id = o.id"},
		{Type: sqlgen.CrossJoin, Table: "regions r"},
	})
	require.NoError(t, err)
	assert.Equal(t, " INNER JOIN orders o ON o.user_id = u.id LEFT JOIN payments p ON p.order_id = o.id CROSS JOIN regions r", sql)
}

func TestCompileOrderBy(t *testing.T) {
	sql, err := sqlgen.CompileOrderBy([]sqlgen.OrderBy{{Field: "created_at", Direction: "desc"}, {Field: "id"}})
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY created_at DESC, id ASC", sql)
}

func TestCount(t *testing.T) {
	q, err := sqlgen.Count("users", ast.All(ast.Eq("status", "active")), dialect.MySQL, sqlgen.Options{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) AS count FROM users WHERE status = ?", q.SQL)
	assert.Equal(t, []any{"active"}, q.Args)
}

func TestInsert(t *testing.T) {
	data := ast.NewData().Set("id", "u1").Set("name", "Ana").Set("created_at", "now")

	pg, err := sqlgen.Insert("users", data, []string{"*"}, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO users ("id", "name", "created_at") VALUES ($1, $2, $3) RETURNING *`, pg.SQL)
	assert.Equal(t, []any{"u1", "Ana", "now"}, pg.Args)

	my, err := sqlgen.Insert("users", data, []string{"*"}, dialect.MySQL)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (`id`, `name`, `created_at`) VALUES (?, ?, ?)", my.SQL)

	_, err = sqlgen.Insert("users", ast.NewData(), nil, dialect.Postgres)
	assert.ErrorIs(t, err, qerr.ErrValidation)
	_, err = sqlgen.Insert("", data, nil, dialect.Postgres)
	assert.ErrorIs(t, err, qerr.ErrValidation)
}

func TestInsertMany(t *testing.T) {
	g := newGolden(t)
	rows := []*ast.Data{
		ast.NewData().Set("id", "a").Set("name", "Ana"),
		ast.NewData().Set("id", "b").Set("email", "bia@example.com"),
		ast.NewData().Set("id", "c").Set("name", "Caio").Set("email", "caio@example.com"),
	}

	for _, d := range []dialect.Dialect{dialect.Postgres, dialect.MySQL} {
		t.Run(d.Name(), func(t *testing.T) {
			q, err := sqlgen.InsertMany("users", rows, []string{"*"}, d)
			require.NoError(t, err)
			assert.Equal(t, []any{
				"a", "Ana", nil,
				"b", nil, "bia@example.com",
				"c", "Caio", "caio@example.com",
			}, q.Args)
			g.Assert(t, "insert_many_"+d.Name(), []byte(q.SQL))
		})
	}
}

func TestUpdate(t *testing.T) {
	g := newGolden(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	data := ast.NewData().Set("status", "inactive").Set("updated_at", at)
	where := ast.All(ast.Lt("age", 18), ast.In("role", "guest", "trial"))

	for _, d := range []dialect.Dialect{dialect.Postgres, dialect.MySQL} {
		t.Run(d.Name(), func(t *testing.T) {
			q, err := sqlgen.Update("users", data, where, []string{"*"}, d)
			require.NoError(t, err)
			assert.Equal(t, []any{"inactive", at, 18, "guest", "trial"}, q.Args)
			g.Assert(t, "update_many_"+d.Name(), []byte(q.SQL))
		})
	}
}

func TestCompileSet(t *testing.T) {
	c, err := sqlgen.CompileSet(ast.NewData().Set("a", 1).Set("b", 2), 1, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, `"a" = $1, "b" = $2`, c.SQL)
	assert.Equal(t, 3, c.Next)

	_, err = sqlgen.CompileSet(nil, 1, dialect.Postgres)
	assert.ErrorIs(t, err, qerr.ErrValidation)
}

func TestDelete(t *testing.T) {
	q, err := sqlgen.Delete("users", ast.All(ast.Eq("id", "u1")), dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM users WHERE id = $1", q.SQL)
	assert.Equal(t, []any{"u1"}, q.Args)
}

package sqlgen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Starbem/star-db-query-builder/query/ast"
	"github.com/Starbem/star-db-query-builder/query/dialect"
	"github.com/Starbem/star-db-query-builder/query/qerr"
	"github.com/Starbem/star-db-query-builder/query/sqlgen"
)

func TestCompileWhere(t *testing.T) {
	tests := []struct {
		name     string
		filter   ast.Filter
		start    int
		dialect  dialect.Dialect
		wantSQL  string
		wantArgs []any
		wantNext int
	}{
		{
			name:     "empty",
			filter:   nil,
			start:    1,
			dialect:  dialect.Postgres,
			wantSQL:  "",
			wantNext: 1,
		},
		{
			name:     "or group",
			filter:   ast.All(ast.Or(ast.Eq("status", "active"), ast.Eq("status", "pending"))),
			start:    1,
			dialect:  dialect.Postgres,
			wantSQL:  " WHERE (status = $1 OR status = $2)",
			wantArgs: []any{"active", "pending"},
			wantNext: 3,
		},
		{
			name:     "implicit leaves with trailing group",
			filter:   ast.All(ast.Eq("a", 1), ast.Gt("b", 2), ast.Or(ast.Eq("c", 3), ast.IsNull("d"))),
			start:    1,
			dialect:  dialect.Postgres,
			wantSQL:  " WHERE a = $1 AND b > $2 AND (c = $3 OR d IS NULL)",
			wantArgs: []any{1, 2, 3},
			wantNext: 4,
		},
		{
			name:     "continues from start",
			filter:   ast.All(ast.Eq("id", "x")),
			start:    4,
			dialect:  dialect.Postgres,
			wantSQL:  " WHERE id = $4",
			wantArgs: []any{"x"},
			wantNext: 5,
		},
		{
			name:     "between",
			filter:   ast.All(ast.Between("age", 18, 65)),
			start:    1,
			dialect:  dialect.Postgres,
			wantSQL:  " WHERE age BETWEEN $1 AND $2",
			wantArgs: []any{18, 65},
			wantNext: 3,
		},
		{
			name:     "in and not in",
			filter:   ast.All(ast.In("id", 1, 2, 3), ast.Where("role", "not in", []string{"admin"})),
			start:    1,
			dialect:  dialect.Postgres,
			wantSQL:  " WHERE id IN ($1, $2, $3) AND role NOT IN ($4)",
			wantArgs: []any{1, 2, 3, "admin"},
			wantNext: 5,
		},
		{
			name:     "null checks consume no slot",
			filter:   ast.All(ast.Where("deleted_at", "is null", "ignored"), ast.IsNotNull("email"), ast.Eq("id", 7)),
			start:    1,
			dialect:  dialect.Postgres,
			wantSQL:  " WHERE deleted_at IS NULL AND email IS NOT NULL AND id = $1",
			wantArgs: []any{7},
			wantNext: 2,
		},
		{
			name:     "not exists is verbatim",
			filter:   ast.All(ast.Eq("u.active", true), ast.NotExists("SELECT 1 FROM bans b WHERE b.user_id = u.id")),
			start:    1,
			dialect:  dialect.Postgres,
			wantSQL:  " WHERE u.active = $1 AND NOT EXISTS (SELECT 1 FROM bans b WHERE b.user_id = u.id)",
			wantArgs: []any{true},
			wantNext: 2,
		},
		{
			name: "nested groups",
			filter: ast.All(ast.And(
				ast.Eq("a", 1),
				ast.Or(ast.Eq("b", 2), ast.And(ast.Eq("c", 3), ast.Eq("d", 4))),
			)),
			start:    1,
			dialect:  dialect.Postgres,
			wantSQL:  " WHERE (a = $1 AND (b = $2 OR (c = $3 AND d = $4)))",
			wantArgs: []any{1, 2, 3, 4},
			wantNext: 5,
		},
		{
			name:     "join group",
			filter:   ast.All(ast.Eq("u.id", 1), ast.Join(ast.Gt("o.total", 100), ast.Eq("o.state", "paid"))),
			start:    1,
			dialect:  dialect.Postgres,
			wantSQL:  " WHERE u.id = $1 AND (o.total > $2 AND o.state = $3)",
			wantArgs: []any{1, 100, "paid"},
			wantNext: 4,
		},
		{
			name:     "empty group is skipped",
			filter:   ast.All(ast.Or(), ast.Eq("a", 1)),
			start:    1,
			dialect:  dialect.Postgres,
			wantSQL:  " WHERE a = $1",
			wantArgs: []any{1},
			wantNext: 2,
		},
		{
			name:     "mysql placeholders",
			filter:   ast.All(ast.Eq("a", 1), ast.In("b", "x", "y"), ast.Between("c", 1, 9)),
			start:    1,
			dialect:  dialect.MySQL,
			wantSQL:  " WHERE a = ? AND b IN (?, ?) AND c BETWEEN ? AND ?",
			wantArgs: []any{1, "x", "y", 1, 9},
			wantNext: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := sqlgen.CompileWhere(tt.filter, tt.start, tt.dialect, sqlgen.Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, c.SQL)
			assert.Equal(t, tt.wantArgs, c.Args)
			assert.Equal(t, tt.wantNext, c.Next)
			assert.Equal(t, len(c.Args), c.Next-tt.start)
		})
	}
}

func TestCompileWhereUnaccent(t *testing.T) {
	filter := ast.All(ast.ILike("name", "%jose%"), ast.In("id", 1, 2), ast.IsNull("deleted_at"))

	pg, err := sqlgen.CompileWhere(filter, 1, dialect.Postgres, sqlgen.Options{Unaccent: true})
	require.NoError(t, err)
	assert.Equal(t, " WHERE unaccent(name) ILIKE unaccent($1) AND id IN ($2, $3) AND deleted_at IS NULL", pg.SQL)
	assert.Equal(t, 4, pg.Next)

	mixed, err := sqlgen.CompileWhere(ast.All(ast.Eq("age", 5), ast.Eq("city", "São Paulo"), ast.Gt("score", 1.5)), 1, dialect.Postgres, sqlgen.Options{Unaccent: true})
	require.NoError(t, err)
	assert.Equal(t, " WHERE age = $1 AND unaccent(city) = unaccent($2) AND score > $3", mixed.SQL)
	assert.Equal(t, []any{5, "São Paulo", 1.5}, mixed.Args)
	assert.Equal(t, 4, mixed.Next)

	my, err := sqlgen.CompileWhere(ast.All(ast.Like("name", "%jose%")), 1, dialect.MySQL, sqlgen.Options{Unaccent: true})
	require.NoError(t, err)
	assert.Equal(t, " WHERE name LIKE ?", my.SQL)
	assert.Equal(t, 2, my.Next)
}

func TestCompileWhereScalarLeafAdvancesByOne(t *testing.T) {
	ops := []ast.Operator{ast.OpEq, ast.OpNeq, "<>", ast.OpGt, ast.OpGte, ast.OpLt, ast.OpLte, ast.OpLike, ast.OpNotLike, ast.OpILike}
	for _, d := range []dialect.Dialect{dialect.Postgres, dialect.MySQL, dialect.SQLite} {
		for _, op := range ops {
			for _, unaccent := range []bool{false, true} {
				c, err := sqlgen.CompileCondition(ast.Where("f", op, "v"), 5, d, sqlgen.Options{Unaccent: unaccent})
				require.NoError(t, err)
				assert.Equal(t, 6, c.Next, "%s %s", d.Name(), op)
				assert.Equal(t, []any{"v"}, c.Args)
			}
		}
	}
}

func TestCompileWhereIsDeterministic(t *testing.T) {
	filter := ast.All(
		ast.Eq("a", 1),
		ast.Or(ast.In("b", 1, 2, 3), ast.Between("c", 4, 5)),
		ast.Join(ast.Like("d", "%x%")),
	)
	first, err := sqlgen.CompileWhere(filter, 1, dialect.Postgres, sqlgen.Options{})
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := sqlgen.CompileWhere(filter, 1, dialect.Postgres, sqlgen.Options{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCompileWhereMalformed(t *testing.T) {
	tests := []struct {
		name   string
		filter ast.Filter
	}{
		{"in with scalar", ast.All(ast.Where("id", ast.OpIn, 3))},
		{"between with one", ast.All(ast.Where("age", ast.OpBetween, []int{1}))},
		{"unknown operator", ast.All(ast.Where("age", "===", 1))},
		{"nested bad leaf", ast.All(ast.Or(ast.Eq("a", 1), ast.Where("b", ast.OpNotIn, "x")))},
		{"bad logic", ast.All(ast.Group{Logic: "XOR", Children: []ast.Condition{ast.Eq("a", 1)}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sqlgen.CompileWhere(tt.filter, 1, dialect.Postgres, sqlgen.Options{})
			assert.ErrorIs(t, err, qerr.ErrMalformedCondition)
		})
	}
}

func TestCompileConditionPointers(t *testing.T) {
	leaf := ast.Eq("a", 1)
	c, err := sqlgen.CompileCondition(&leaf, 1, dialect.Postgres, sqlgen.Options{})
	require.NoError(t, err)
	assert.Equal(t, "a = $1", c.SQL)

	g := ast.Or(ast.Eq("a", 1), ast.Eq("b", 2))
	c, err = sqlgen.CompileCondition(&g, 1, dialect.Postgres, sqlgen.Options{})
	require.NoError(t, err)
	assert.Equal(t, "(a = $1 OR b = $2)", c.SQL)
}

func TestCompileWhereSkipsTypedNil(t *testing.T) {
	filter := ast.All(
		ast.Eq("a", 1),
		(*ast.Leaf)(nil),
		(*ast.Group)(nil),
		(*ast.JoinGroup)(nil),
		ast.Or(ast.Eq("b", 2), (*ast.Leaf)(nil)),
	)
	var c sqlgen.Clause
	var err error
	require.NotPanics(t, func() {
		c, err = sqlgen.CompileWhere(filter, 1, dialect.Postgres, sqlgen.Options{})
	})
	require.NoError(t, err)
	assert.Equal(t, " WHERE a = $1 AND (b = $2)", c.SQL)
	assert.Equal(t, []any{1, 2}, c.Args)
	assert.Equal(t, 3, c.Next)

	c, err = sqlgen.CompileWhere(ast.All((*ast.Leaf)(nil)), 4, dialect.MySQL, sqlgen.Options{})
	require.NoError(t, err)
	assert.True(t, c.Empty())
	assert.Equal(t, 4, c.Next)
}

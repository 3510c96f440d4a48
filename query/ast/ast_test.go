package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Starbem/star-db-query-builder/query/ast"
	"github.com/Starbem/star-db-query-builder/query/qerr"
)

func TestLeafValidate(t *testing.T) {
	tests := []struct {
		name    string
		leaf    ast.Leaf
		wantErr bool
	}{
		{"equality", ast.Eq("status", "active"), false},
		{"lower case operator", ast.Where("name", "like", "%a%"), false},
		{"not equal alias", ast.Where("age", "<>", 3), false},
		{"null check ignores value", ast.Where("deleted_at", ast.OpIsNull, "ignored"), false},
		{"in with typed slice", ast.Where("id", ast.OpIn, []int{1, 2, 3}), false},
		{"in with scalar", ast.Where("id", ast.OpIn, 1), true},
		{"in with empty slice", ast.Where("id", ast.OpIn, []string{}), true},
		{"in with bytes", ast.Where("id", ast.OpIn, []byte("ab")), true},
		{"between with two", ast.Between("age", 18, 65), false},
		{"between with three", ast.Where("age", ast.OpBetween, []int{1, 2, 3}), true},
		{"between with scalar", ast.Where("age", ast.OpBetween, 5), true},
		{"not exists subquery", ast.NotExists("SELECT 1 FROM bans b WHERE b.user_id = users.id"), false},
		{"not exists without subquery", ast.Where("", ast.OpNotExists, 42), true},
		{"unknown operator", ast.Where("age", "~~", 1), true},
		{"missing field", ast.Eq("", 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.leaf.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, qerr.ErrMalformedCondition)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOperatorNormalize(t *testing.T) {
	assert.Equal(t, ast.OpIsNotNull, ast.Operator("is  not   null").Normalize())
	assert.True(t, ast.Operator("is null").IsNullCheck())
	assert.True(t, ast.Operator("not in").IsSet())
	assert.False(t, ast.OpEq.IsSet())
}

func TestValues(t *testing.T) {
	values, ok := ast.Values([2]string{"a", "b"})
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, values)

	_, ok = ast.Values("abc")
	assert.False(t, ok)

	_, ok = ast.Values(nil)
	assert.False(t, ok)
}

func TestGroupConstructors(t *testing.T) {
	g := ast.Or(ast.Eq("status", "active"), ast.Eq("status", "pending"))
	assert.Equal(t, ast.OR, g.Logic)
	assert.Len(t, g.Children, 2)

	j := ast.Join(ast.Eq("o.total", 10))
	assert.Len(t, j.Children, 1)

	f := ast.All(ast.Eq("a", 1), g, j)
	assert.Len(t, f, 3)
}

func TestData(t *testing.T) {
	d := ast.NewData().Set("name", "Ana").Set("age", 30).Set("name", "Bia")

	assert.Equal(t, []string{"name", "age"}, d.Columns())
	v, ok := d.Get("name")
	require.True(t, ok)
	assert.Equal(t, "Bia", v)
	assert.Equal(t, 2, d.Len())
	assert.False(t, d.Has("email"))

	clone := d.Clone().Set("email", "b@x.io")
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, 3, clone.Len())
}

func TestDataFromMapIsSorted(t *testing.T) {
	d := ast.DataFromMap(map[string]any{"b": 2, "c": 3, "a": 1})
	assert.Equal(t, []string{"a", "b", "c"}, d.Columns())
	assert.Equal(t, []ast.Pair{{"a", 1}, {"b", 2}, {"c", 3}}, d.Pairs())
}

func TestNilData(t *testing.T) {
	var d *ast.Data
	assert.Equal(t, 0, d.Len())
	assert.Nil(t, d.Columns())
	assert.Equal(t, 0, d.Clone().Len())
}

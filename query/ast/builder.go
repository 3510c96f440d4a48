package ast

// Where returns a leaf with an arbitrary operator.
func Where(field string, op Operator, value any) Leaf {
	return Leaf{Field: field, Operator: op, Value: value}
}

// Eq returns field = value.
func Eq(field string, value any) Leaf { return Where(field, OpEq, value) }

// Neq returns field != value.
func Neq(field string, value any) Leaf { return Where(field, OpNeq, value) }

// Gt returns field > value.
func Gt(field string, value any) Leaf { return Where(field, OpGt, value) }

// Gte returns field >= value.
func Gte(field string, value any) Leaf { return Where(field, OpGte, value) }

// Lt returns field < value.
func Lt(field string, value any) Leaf { return Where(field, OpLt, value) }

// Lte returns field <= value.
func Lte(field string, value any) Leaf { return Where(field, OpLte, value) }

// Like returns field LIKE pattern.
func Like(field, pattern string) Leaf { return Where(field, OpLike, pattern) }

// NotLike returns field NOT LIKE pattern.
func NotLike(field, pattern string) Leaf { return Where(field, OpNotLike, pattern) }

// ILike returns field ILIKE pattern. Only Postgres understands ILIKE.
func ILike(field, pattern string) Leaf { return Where(field, OpILike, pattern) }

// In returns field IN (values...).
func In(field string, values ...any) Leaf { return Where(field, OpIn, values) }

// NotIn returns field NOT IN (values...).
func NotIn(field string, values ...any) Leaf { return Where(field, OpNotIn, values) }

// Between returns field BETWEEN low AND high.
func Between(field string, low, high any) Leaf {
	return Where(field, OpBetween, []any{low, high})
}

// IsNull returns field IS NULL.
func IsNull(field string) Leaf { return Where(field, OpIsNull, nil) }

// IsNotNull returns field IS NOT NULL.
func IsNotNull(field string) Leaf { return Where(field, OpIsNotNull, nil) }

// NotExists returns NOT EXISTS (subquery). The subquery is emitted verbatim and
// is never parameterized: the caller owns its safety.
func NotExists(subquery string) Leaf { return Where("", OpNotExists, subquery) }

// And groups children with AND.
func And(children ...Condition) Group { return Group{Logic: AND, Children: children} }

// Or groups children with OR.
func Or(children ...Condition) Group { return Group{Logic: OR, Children: children} }

// Join groups predicates on joined tables; children are AND-ed.
func Join(children ...Condition) JoinGroup { return JoinGroup{Children: children} }

// All builds a Filter from its terms.
func All(terms ...Condition) Filter { return Filter(terms) }

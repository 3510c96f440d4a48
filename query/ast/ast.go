// Package ast defines the condition tree compiled into WHERE clauses.
//
// A condition is one of three variants:
//
//	Leaf      field OPERATOR value
//	Group     (child AND child ...) or (child OR child ...)
//	JoinGroup (child AND child ...), used to scope predicates on joined tables
//
// A Filter is the top-level list of terms; its terms are AND-ed together.
package ast

import (
	"reflect"
	"strings"

	"github.com/Starbem/star-db-query-builder/query/qerr"
)

// Condition is a node of the condition tree. The interface is sealed:
// only Leaf, Group and JoinGroup implement it.
type Condition interface {
	condition()
}

// Operator is a comparison operator of a Leaf.
type Operator string

const (
	OpEq        Operator = "="
	OpNeq       Operator = "!="
	OpGt        Operator = ">"
	OpGte       Operator = ">="
	OpLt        Operator = "<"
	OpLte       Operator = "<="
	OpLike      Operator = "LIKE"
	OpNotLike   Operator = "NOT LIKE"
	OpILike     Operator = "ILIKE"
	OpIn        Operator = "IN"
	OpNotIn     Operator = "NOT IN"
	OpBetween   Operator = "BETWEEN"
	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
	OpNotExists Operator = "NOT EXISTS"
)

var knownOperators = map[Operator]struct{}{
	OpEq: {}, "<>": {}, OpNeq: {}, OpGt: {}, OpGte: {}, OpLt: {}, OpLte: {},
	OpLike: {}, OpNotLike: {}, OpILike: {}, OpIn: {}, OpNotIn: {}, OpBetween: {},
	OpIsNull: {}, OpIsNotNull: {}, OpNotExists: {},
}

// Normalize upper-cases the operator and collapses inner whitespace.
func (o Operator) Normalize() Operator {
	return Operator(strings.Join(strings.Fields(strings.ToUpper(string(o))), " "))
}

// IsNullCheck reports whether the operator ignores its value.
func (o Operator) IsNullCheck() bool {
	o = o.Normalize()
	return o == OpIsNull || o == OpIsNotNull
}

// IsSet reports whether the operator requires an array value.
func (o Operator) IsSet() bool {
	o = o.Normalize()
	return o == OpIn || o == OpNotIn || o == OpBetween
}

// LogicalOperator joins the children of a Group.
type LogicalOperator string

const (
	AND LogicalOperator = "AND"
	OR  LogicalOperator = "OR"
)

// Leaf is a single predicate on one field.
type Leaf struct {
	Field    string
	Operator Operator
	// Value holds the bound value. Set operators take a slice, NOT EXISTS takes
	// the raw subquery string, null checks ignore it.
	Value any
}

func (Leaf) condition() {}

// Group combines its children with Logic inside one parenthesized term.
type Group struct {
	Logic    LogicalOperator
	Children []Condition
}

func (Group) condition() {}

// JoinGroup combines its children with AND inside one parenthesized term.
type JoinGroup struct {
	Children []Condition
}

func (JoinGroup) condition() {}

// Filter is the top-level WHERE input. Its terms are AND-ed in order.
type Filter []Condition

// Validate checks the operator and the value shape of the leaf.
func (l Leaf) Validate() error {
	op := l.Operator.Normalize()
	if l.Field == "" && op != OpNotExists {
		return qerr.Malformed(l.Field, string(op), "field is required")
	}
	if _, ok := knownOperators[op]; !ok {
		return qerr.Malformed(l.Field, string(l.Operator), "unknown operator")
	}
	switch op {
	case OpIn, OpNotIn:
		values, ok := Values(l.Value)
		if !ok {
			return qerr.Malformed(l.Field, string(op), "value must be an array, got %T", l.Value)
		}
		if len(values) == 0 {
			return qerr.Malformed(l.Field, string(op), "value must contain at least one element")
		}
	case OpBetween:
		values, ok := Values(l.Value)
		if !ok {
			return qerr.Malformed(l.Field, string(op), "value must be an array, got %T", l.Value)
		}
		if len(values) != 2 {
			return qerr.Malformed(l.Field, string(op), "value must contain exactly 2 elements, got %d", len(values))
		}
	case OpNotExists:
		sub, ok := l.Value.(string)
		if !ok || strings.TrimSpace(sub) == "" {
			return qerr.Malformed(l.Field, string(op), "value must be a subquery string")
		}
	}
	return nil
}

// Values flattens a slice or array value into its elements, in order.
// It reports false for scalars, nil and []byte.
func Values(v any) ([]any, bool) {
	switch vs := v.(type) {
	case nil, []byte:
		return nil, false
	case []any:
		return vs, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

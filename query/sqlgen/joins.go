package sqlgen

import (
	"fmt"
	"strings"

	"github.com/Starbem/star-db-query-builder/query/qerr"
)

// JoinType is the kind of a JOIN.
type JoinType string

const (
	InnerJoin JoinType = "INNER"
	LeftJoin  JoinType = "LEFT"
	RightJoin JoinType = "RIGHT"
	FullJoin  JoinType = "FULL"
	CrossJoin JoinType = "CROSS"
)

// Join represents a JOIN clause.
type Join struct {
	Type  JoinType // defaults to INNER
	Table string   // table to join, optionally with an alias: "orders o"
	// On is the join predicate. It is trusted caller input and is emitted
	// verbatim, never parameterized.
	On string
}

// CompileJoins returns the JOIN fragments in declaration order.
func CompileJoins(joins []Join) (string, error) {
	var b strings.Builder
	for i, j := range joins {
		if strings.TrimSpace(j.Table) == "" {
			return "", qerr.Missing("join", fmt.Sprintf("joins[%d].table", i))
		}
		typ := JoinType(strings.ToUpper(strings.TrimSpace(string(j.Type))))
		if typ == "" {
			typ = InnerJoin
		}
		switch typ {
		case InnerJoin, LeftJoin, RightJoin, FullJoin:
			if strings.TrimSpace(j.On) == "" {
				return "", qerr.Missing("join", fmt.Sprintf("joins[%d].on", i))
			}
			fmt.Fprintf(&b, " %s JOIN %s ON %s", typ, j.Table, j.On)
		case CrossJoin:
			fmt.Fprintf(&b, " CROSS JOIN %s", j.Table)
		default:
			return "", &qerr.ValidationError{Operation: "join", Field: fmt.Sprintf("joins[%d].type", i), Reason: fmt.Sprintf("has invalid value %q", j.Type)}
		}
	}
	return b.String(), nil
}

package sqlbuilder

import (
	"strings"

	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
)

// Assignment is one column = value pair in an UPDATE's SET clause.
type Assignment struct {
	Column string
	Value  any
}

// Update describes an UPDATE statement. Its WHERE clause reuses the
// same filter-tree compiler as Select and Delete (Design Notes).
type Update struct {
	Table       string
	Assignments []Assignment
	Where       Filter
	SoftDelete  SoftDelete
	Returning   []string
}

func (u Update) Build(d dialect.Dialect) (string, []any) {
	pc := &paramCounter{}
	var b strings.Builder

	b.WriteString("UPDATE ")
	b.WriteString(quoteIdent(u.Table))
	b.WriteString(" SET ")

	sets := make([]string, len(u.Assignments))
	for i, a := range u.Assignments {
		sets[i] = quoteIdent(a.Column) + " = " + bindPlaceholder(d, pc, a.Value)
	}
	b.WriteString(strings.Join(sets, ", "))

	where := withSoftDelete(u.Where, u.SoftDelete)
	if clause := compile(where, d, pc); clause != "" {
		b.WriteString(" WHERE ")
		b.WriteString(clause)
	}

	if len(u.Returning) > 0 {
		b.WriteString(" RETURNING ")
		b.WriteString(quoteIdentList(u.Returning))
	}

	return b.String(), pc.values
}

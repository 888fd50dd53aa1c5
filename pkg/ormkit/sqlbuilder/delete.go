package sqlbuilder

import (
	"strings"

	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
)

// Delete describes a DELETE statement. When SoftDelete.Column is set
// and the caller did not request a hard delete, session-layer callers
// should instead build this as an Update setting the marker column —
// Delete itself always emits a literal SQL DELETE (hard delete); the
// soft-delete/hard-delete choice is made one layer up in session, not
// here (this builder stays a pure, single-purpose emitter per
// statement kind).
type Delete struct {
	Table      string
	Where      Filter
	SoftDelete SoftDelete
	Returning  []string
}

func (del Delete) Build(d dialect.Dialect) (string, []any) {
	pc := &paramCounter{}
	var b strings.Builder

	b.WriteString("DELETE FROM ")
	b.WriteString(quoteIdent(del.Table))

	where := withSoftDelete(del.Where, del.SoftDelete)
	if clause := compile(where, d, pc); clause != "" {
		b.WriteString(" WHERE ")
		b.WriteString(clause)
	}

	if len(del.Returning) > 0 {
		b.WriteString(" RETURNING ")
		b.WriteString(quoteIdentList(del.Returning))
	}

	return b.String(), pc.values
}

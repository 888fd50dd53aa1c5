/*
Package sqlbuilder renders (sql, params) pairs for select, insert,
update, and delete statements. Every function here is pure: given the
same arguments it returns the same string, never consulting a clock,
random source, or unordered map iteration (§8, builder determinism).

Grounded on the teacher's dynamic-SQL idiom throughout
store_postgres.go — a strings.Builder accumulating clause text while a
running parameter index threads through nested calls
(fmt.Sprintf(" AND c.status = ANY($%d)", argID)) — generalized here
into dialect-parameterized emitters built around one *paramCounter so
nested filter-tree recursion never collides over placeholder numbers.
*/
package sqlbuilder

import (
	"strconv"
	"strings"

	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
)

// paramCounter hands out 1-based positional parameter indexes and
// accumulates the bound values in emission order.
type paramCounter struct {
	values []any
}

func (p *paramCounter) bind(v any) int {
	p.values = append(p.values, v)
	return len(p.values)
}

// quoteIdent double-quotes an identifier for safe interpolation
// (table/column/alias names never come from untrusted input — they
// come from the registered schema — but are still quoted so
// reserved-word column names don't break the emitted SQL).
func quoteIdent(name string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			b.WriteByte('"')
		}
		b.WriteByte(name[i])
	}
	b.WriteByte('"')
	return b.String()
}

// alias produces the deterministic base-table alias ("_t0") and
// successive join aliases ("_j1", "_j2", …) used throughout joined
// hydration.
func baseAlias() string        { return "_t0" }
func joinAlias(n int) string   { return "_j" + strconv.Itoa(n) }
func joinColumnLabel(alias, column string) string {
	return alias + "_" + column
}

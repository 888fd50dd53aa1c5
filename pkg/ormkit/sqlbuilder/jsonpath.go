package sqlbuilder

import (
	"strings"

	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
)

// compilePath renders a dotted path ("metadata.address.city") into a
// dialect-specific column or JSON-descent expression. A path with no
// "." is an ordinary column reference.
func compilePath(path string, d dialect.Dialect) string {
	segments := strings.Split(path, ".")
	if len(segments) == 1 {
		return quoteIdent(segments[0])
	}

	column := quoteIdent(segments[0])
	keys := segments[1:]

	if d == dialect.SQLite {
		return compileSQLiteJSONPath(column, keys)
	}
	return compilePostgresJSONPath(column, keys)
}

// compilePostgresJSONPath chains -> for intermediate descent and ->>
// for the final, text-producing hop: col->'k1'->>'k2'.
func compilePostgresJSONPath(column string, keys []string) string {
	var b strings.Builder
	b.WriteString(column)
	for i, k := range keys {
		if i == len(keys)-1 {
			b.WriteString("->>")
		} else {
			b.WriteString("->")
		}
		b.WriteByte('\'')
		b.WriteString(strings.ReplaceAll(k, "'", "''"))
		b.WriteByte('\'')
	}
	return b.String()
}

// compileSQLiteJSONPath emits json_extract(col, '$.k1.k2').
func compileSQLiteJSONPath(column string, keys []string) string {
	return "json_extract(" + column + ", '$." + strings.Join(keys, ".") + "')"
}

// compilePostgresJSONObjectPath chains -> for every hop (never ->>,
// unlike compilePostgresJSONPath) so the result stays a jsonb object
// usable with the `?` has-key and `@>` containment operators.
func compilePostgresJSONObjectPath(column string, keys []string) string {
	var b strings.Builder
	b.WriteString(column)
	for _, k := range keys {
		b.WriteString("->")
		b.WriteByte('\'')
		b.WriteString(strings.ReplaceAll(k, "'", "''"))
		b.WriteByte('\'')
	}
	return b.String()
}

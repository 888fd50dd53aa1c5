package sqlbuilder

import (
	"strings"

	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
)

// Insert describes a multi-row INSERT, optionally an upsert.
type Insert struct {
	Table   string
	Columns []string
	// Rows holds one []any per row, each aligned with Columns.
	Rows [][]any

	// ConflictColumns, when non-empty, turns this into an upsert
	// targeting those columns (typically the primary key or a unique
	// constraint).
	ConflictColumns []string
	// ConflictDoNothing selects ON CONFLICT DO NOTHING over DO UPDATE.
	ConflictDoNothing bool
	// UpdateColumns lists the columns to refresh on conflict (ignored
	// when ConflictDoNothing is set).
	UpdateColumns []string

	Returning []string
}

// Build renders i into (sql, params). On SQLite, Returning is honored
// only via the SQLite 3.35+ RETURNING clause, which go-sqlite3
// supports; callers targeting older SQLite builds should omit
// Returning and re-select instead (session layer does this for
// upsert, see §4.D).
func (i Insert) Build(d dialect.Dialect) (string, []any) {
	pc := &paramCounter{}
	var b strings.Builder

	b.WriteString("INSERT INTO ")
	b.WriteString(quoteIdent(i.Table))
	b.WriteString(" (")
	b.WriteString(quoteIdentList(i.Columns))
	b.WriteString(") VALUES ")

	rowStrs := make([]string, len(i.Rows))
	for r, row := range i.Rows {
		placeholders := make([]string, len(row))
		for c, v := range row {
			placeholders[c] = bindPlaceholder(d, pc, v)
		}
		rowStrs[r] = "(" + strings.Join(placeholders, ", ") + ")"
	}
	b.WriteString(strings.Join(rowStrs, ", "))

	if len(i.ConflictColumns) > 0 {
		b.WriteString(" ON CONFLICT (")
		b.WriteString(quoteIdentList(i.ConflictColumns))
		b.WriteString(") DO ")
		if i.ConflictDoNothing {
			b.WriteString("NOTHING")
		} else {
			b.WriteString("UPDATE SET ")
			excluded := "EXCLUDED"
			if d == dialect.SQLite {
				excluded = "excluded"
			}
			sets := make([]string, len(i.UpdateColumns))
			for idx, col := range i.UpdateColumns {
				q := quoteIdent(col)
				sets[idx] = q + " = " + excluded + "." + q
			}
			b.WriteString(strings.Join(sets, ", "))
		}
	}

	if len(i.Returning) > 0 {
		b.WriteString(" RETURNING ")
		b.WriteString(quoteIdentList(i.Returning))
	}

	return b.String(), pc.values
}

func quoteIdentList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

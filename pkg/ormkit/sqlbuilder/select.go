package sqlbuilder

import (
	"strconv"
	"strings"

	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
)

// JoinSpec describes one joined-load hydration target.
type JoinSpec struct {
	Alias      string
	Table      string
	Columns    []string
	OnLeftCol  string
	OnRightCol string
}

// Select describes a SELECT statement.
type Select struct {
	Table      string
	Columns    []string
	Distinct   bool
	Where      Filter
	GroupBy    []string
	Having     Filter
	OrderBy    []string // "col" or "col DESC"
	Limit      int
	Offset     int
	HasLimit   bool
	HasOffset  bool
	Joins      []JoinSpec
	SoftDelete SoftDelete
}

// Build renders s into (sql, params) for dialect d.
func (s Select) Build(d dialect.Dialect) (string, []any) {
	pc := &paramCounter{}
	var b strings.Builder

	base := baseAlias()
	b.WriteString("SELECT ")
	if s.Distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(selectColumnList(s.Columns, base, s.Joins))
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(s.Table))
	b.WriteString(" AS ")
	b.WriteString(base)

	for _, j := range s.Joins {
		b.WriteString(" LEFT JOIN ")
		b.WriteString(quoteIdent(j.Table))
		b.WriteString(" AS ")
		b.WriteString(j.Alias)
		b.WriteString(" ON ")
		b.WriteString(base)
		b.WriteByte('.')
		b.WriteString(quoteIdent(j.OnLeftCol))
		b.WriteString(" = ")
		b.WriteString(j.Alias)
		b.WriteByte('.')
		b.WriteString(quoteIdent(j.OnRightCol))
	}

	where := withSoftDelete(s.Where, s.SoftDelete)
	if clause := compile(where, d, pc); clause != "" {
		b.WriteString(" WHERE ")
		b.WriteString(clause)
	}

	if len(s.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		cols := make([]string, len(s.GroupBy))
		for i, c := range s.GroupBy {
			cols[i] = quoteIdent(c)
		}
		b.WriteString(strings.Join(cols, ", "))
	}

	if clause := compile(s.Having, d, pc); clause != "" {
		b.WriteString(" HAVING ")
		b.WriteString(clause)
	}

	if len(s.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.OrderBy, ", "))
	}
	if s.HasLimit {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(s.Limit))
	}
	if s.HasOffset {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(s.Offset))
	}

	return b.String(), pc.values
}

func selectColumnList(columns []string, base string, joins []JoinSpec) string {
	parts := make([]string, 0, len(columns)+4)
	for _, c := range columns {
		parts = append(parts, base+"."+quoteIdent(c)+" AS "+quoteIdent(c))
	}
	for _, j := range joins {
		for _, c := range j.Columns {
			label := joinColumnLabel(j.Alias, c)
			parts = append(parts, j.Alias+"."+quoteIdent(c)+" AS "+quoteIdent(label))
		}
	}
	return strings.Join(parts, ", ")
}

// Aggregate builds a single-column aggregate select (COUNT/SUM/AVG/
// MIN/MAX) honoring the same WHERE/soft-delete rules as Select.
type Aggregate struct {
	Table      string
	Func       string // "COUNT", "SUM", "AVG", "MIN", "MAX"
	Column     string // "*" for COUNT(*)
	Where      Filter
	SoftDelete SoftDelete
}

func (a Aggregate) Build(d dialect.Dialect) (string, []any) {
	pc := &paramCounter{}
	var b strings.Builder

	target := a.Column
	if target != "*" {
		target = quoteIdent(target)
	}

	b.WriteString("SELECT ")
	b.WriteString(a.Func)
	b.WriteByte('(')
	b.WriteString(target)
	b.WriteString(") FROM ")
	b.WriteString(quoteIdent(a.Table))

	where := withSoftDelete(a.Where, a.SoftDelete)
	if clause := compile(where, d, pc); clause != "" {
		b.WriteString(" WHERE ")
		b.WriteString(clause)
	}

	return b.String(), pc.values
}

// Exists wraps a SELECT 1 ... LIMIT 1 existence check.
type Exists struct {
	Table      string
	Where      Filter
	SoftDelete SoftDelete
}

func (e Exists) Build(d dialect.Dialect) (string, []any) {
	pc := &paramCounter{}
	var b strings.Builder

	b.WriteString("SELECT 1 FROM ")
	b.WriteString(quoteIdent(e.Table))

	where := withSoftDelete(e.Where, e.SoftDelete)
	if clause := compile(where, d, pc); clause != "" {
		b.WriteString(" WHERE ")
		b.WriteString(clause)
	}
	b.WriteString(" LIMIT 1")

	return b.String(), pc.values
}

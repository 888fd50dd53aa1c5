package sqlbuilder

import (
	"strings"

	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
	"github.com/alexogeny/ormkit/pkg/ormkit/jsoncodec"
)

// Op is the closed set of comparison operators a Leaf may use.
type Op string

const (
	Eq          Op = "eq"
	Ne          Op = "ne"
	Lt          Op = "lt"
	Lte         Op = "lte"
	Gt          Op = "gt"
	Gte         Op = "gte"
	In          Op = "in"
	NotIn       Op = "notin"
	Like        Op = "like"
	ILike       Op = "ilike"
	Contains    Op = "contains"
	IContains   Op = "icontains"
	StartsWith  Op = "startswith"
	IStartsWith Op = "istartswith"
	EndsWith    Op = "endswith"
	IEndsWith   Op = "iendswith"
	IsNull      Op = "isnull"
	IsNotNull   Op = "isnotnull"
	HasKey      Op = "has_key"
	JSONContains Op = "json_contains"
)

// Filter is the internal boolean AST every query condition lowers to.
// Two surface constructors — Q and And/Or/Not — both produce Filter
// values; there is exactly one tree shape underneath (Design Notes).
type Filter struct {
	and   []Filter
	or    []Filter
	not   *Filter
	leaf  *leaf
}

type leaf struct {
	path  string // dotted path; "." segments descend into JSON columns
	op    Op
	value any
}

// Leaf builds a single comparison.
func Leaf(path string, op Op, value any) Filter {
	return Filter{leaf: &leaf{path: path, op: op, value: value}}
}

// And combines filters with conjunction. Flattened: And(And(a,b),c)
// and And(a,b,c) compile identically.
func And(filters ...Filter) Filter {
	flat := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f.leaf == nil && f.not == nil && len(f.or) == 0 && len(f.and) > 0 {
			flat = append(flat, f.and...)
			continue
		}
		flat = append(flat, f)
	}
	return Filter{and: flat}
}

// Or combines filters with disjunction.
func Or(filters ...Filter) Filter {
	return Filter{or: filters}
}

// Not negates f.
func Not(f Filter) Filter {
	return Filter{not: &f}
}

// Q builds a conjunction of equality leaves from a field:value map, the
// keyword-argument-style constructor. Multiple calls to Q combined via
// And/Or compose with the same-constructor leaves AND-joined rule
// (Design Notes).
func Q(fields map[string]any) Filter {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sortStrings(keys)

	leaves := make([]Filter, 0, len(keys))
	for _, k := range keys {
		leaves = append(leaves, Leaf(k, Eq, fields[k]))
	}
	return And(leaves...)
}

func (f Filter) isZero() bool {
	return f.leaf == nil && f.not == nil && len(f.and) == 0 && len(f.or) == 0
}

// compile renders f into SQL text against pc, returning "" when f is
// the zero Filter (no WHERE clause needed).
func compile(f Filter, d dialect.Dialect, pc *paramCounter) string {
	if f.isZero() {
		return ""
	}
	if f.leaf != nil {
		return compileLeaf(*f.leaf, d, pc)
	}
	if f.not != nil {
		inner := compile(*f.not, d, pc)
		if inner == "" {
			return ""
		}
		return "NOT (" + inner + ")"
	}
	if len(f.and) > 0 {
		return joinParts(f.and, " AND ", d, pc)
	}
	if len(f.or) > 0 {
		return joinParts(f.or, " OR ", d, pc)
	}
	return ""
}

func joinParts(fs []Filter, sep string, d dialect.Dialect, pc *paramCounter) string {
	var parts []string
	for _, sub := range fs {
		s := compile(sub, d, pc)
		if s != "" {
			parts = append(parts, "("+s+")")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, sep)
}

func compileLeaf(l leaf, d dialect.Dialect, pc *paramCounter) string {
	column := compilePath(l.path, d)

	switch l.op {
	case Eq:
		return column + " = " + bindPlaceholder(d, pc, l.value)
	case Ne:
		return column + " != " + bindPlaceholder(d, pc, l.value)
	case Lt:
		return column + " < " + bindPlaceholder(d, pc, l.value)
	case Lte:
		return column + " <= " + bindPlaceholder(d, pc, l.value)
	case Gt:
		return column + " > " + bindPlaceholder(d, pc, l.value)
	case Gte:
		return column + " >= " + bindPlaceholder(d, pc, l.value)
	case In:
		return compileInClause(column, l.value, false, d, pc)
	case NotIn:
		return compileInClause(column, l.value, true, d, pc)
	case Contains:
		return column + " LIKE " + bindPlaceholder(d, pc, likeWildcard(l.value, false))
	case IContains:
		if d == dialect.SQLite {
			return "LOWER(" + column + ") LIKE LOWER(" + bindPlaceholder(d, pc, likeWildcard(l.value, false)) + ")"
		}
		return column + " ILIKE " + bindPlaceholder(d, pc, likeWildcard(l.value, false))
	case Like:
		return column + " LIKE " + bindPlaceholder(d, pc, l.value)
	case ILike:
		if d == dialect.SQLite {
			return "LOWER(" + column + ") LIKE LOWER(" + bindPlaceholder(d, pc, l.value) + ")"
		}
		return column + " ILIKE " + bindPlaceholder(d, pc, l.value)
	case StartsWith:
		return column + " LIKE " + bindPlaceholder(d, pc, prefixWildcard(l.value))
	case IStartsWith:
		if d == dialect.SQLite {
			return "LOWER(" + column + ") LIKE LOWER(" + bindPlaceholder(d, pc, prefixWildcard(l.value)) + ")"
		}
		return column + " ILIKE " + bindPlaceholder(d, pc, prefixWildcard(l.value))
	case EndsWith:
		return column + " LIKE " + bindPlaceholder(d, pc, suffixWildcard(l.value))
	case IEndsWith:
		if d == dialect.SQLite {
			return "LOWER(" + column + ") LIKE LOWER(" + bindPlaceholder(d, pc, suffixWildcard(l.value)) + ")"
		}
		return column + " ILIKE " + bindPlaceholder(d, pc, suffixWildcard(l.value))
	case IsNull:
		if truthy(l.value) {
			return column + " IS NULL"
		}
		return column + " IS NOT NULL"
	case IsNotNull:
		if truthy(l.value) {
			return column + " IS NOT NULL"
		}
		return column + " IS NULL"
	case HasKey:
		return compileHasKey(l, d, pc)
	case JSONContains:
		return compileJSONContains(l, d, pc)
	default:
		return column + " = " + bindPlaceholder(d, pc, l.value)
	}
}

// compileHasKey checks whether the JSON object at every path segment but
// the last has a top-level key named by the last segment (§4.B: `col ?
// $n` on PostgreSQL, `json_extract(col, '$.path') IS NOT NULL` on
// SQLite).
func compileHasKey(l leaf, d dialect.Dialect, pc *paramCounter) string {
	segments := strings.Split(l.path, ".")
	key := segments[len(segments)-1]
	parent := segments[:len(segments)-1]

	if d == dialect.SQLite {
		return compileSQLiteJSONPath(quoteIdent(segments[0]), segments[1:]) + " IS NOT NULL"
	}

	var object string
	if len(parent) == 0 {
		object = quoteIdent(segments[0])
	} else {
		object = compilePostgresJSONObjectPath(quoteIdent(parent[0]), parent[1:])
	}
	return object + " ? " + bindPlaceholder(d, pc, key)
}

// compileJSONContains emits a containment predicate (§4.B: `col @>
// $n::jsonb` on PostgreSQL, an equality over `json(col)` on SQLite,
// best-effort since SQLite has no native containment operator).
func compileJSONContains(l leaf, d dialect.Dialect, pc *paramCounter) string {
	segments := strings.Split(l.path, ".")
	encoded := marshalJSONBestEffort(l.value)

	if d == dialect.SQLite {
		column := quoteIdent(segments[0])
		if len(segments) > 1 {
			column = compileSQLiteJSONPath(column, segments[1:])
		}
		return "json(" + column + ") = json(" + bindPlaceholder(d, pc, encoded) + ")"
	}

	var object string
	if len(segments) == 1 {
		object = quoteIdent(segments[0])
	} else {
		object = compilePostgresJSONObjectPath(quoteIdent(segments[0]), segments[1:])
	}
	return object + " @> " + bindPlaceholder(d, pc, encoded) + "::jsonb"
}

// compileInClause short-circuits on an empty slice per §7: `in []`
// compiles to the always-false "1 = 0" (never a malformed "IN ()"),
// and `notin []` to the always-true "1 = 1".
func compileInClause(column string, value any, negate bool, d dialect.Dialect, pc *paramCounter) string {
	items, ok := value.([]any)
	if !ok {
		items = toAnySlice(value)
	}
	if len(items) == 0 {
		if negate {
			return "1 = 1"
		}
		return "1 = 0"
	}
	placeholders := make([]string, len(items))
	for i, v := range items {
		placeholders[i] = bindPlaceholder(d, pc, v)
	}
	op := "IN"
	if negate {
		op = "NOT IN"
	}
	return column + " " + op + " (" + strings.Join(placeholders, ", ") + ")"
}

func bindPlaceholder(d dialect.Dialect, pc *paramCounter, value any) string {
	n := pc.bind(value)
	return d.Placeholder(n)
}

func likeWildcard(v any, _ bool) string {
	s, _ := v.(string)
	return "%" + escapeLike(s) + "%"
}

func prefixWildcard(v any) string {
	s, _ := v.(string)
	return escapeLike(s) + "%"
}

func suffixWildcard(v any) string {
	s, _ := v.(string)
	return "%" + escapeLike(s)
}

// marshalJSONBestEffort encodes v via the default JSON codec for a
// json_contains comparison. A marshal failure (an unsupported Go type
// reaching the builder) degrades to the JSON literal null rather than
// panicking or erroring the builder call — json_contains against a
// non-encodable value simply never matches.
func marshalJSONBestEffort(v any) string {
	data, err := jsoncodec.Default.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

func escapeLike(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "%", "\\%", "_", "\\_")
	return r.Replace(s)
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func toAnySlice(v any) []any {
	switch vv := v.(type) {
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(vv))
		for i, n := range vv {
			out[i] = n
		}
		return out
	case []int64:
		out := make([]any, len(vv))
		for i, n := range vv {
			out[i] = n
		}
		return out
	default:
		return nil
	}
}

// Package autogen implements the migration engine's schema diff:
// comparing the live database (read through pool.Introspector) against
// the model registry's derived schema and emitting the operation IR
// that would bring the former in line with the latter (spec.md §4.E).
package autogen

import "strings"

// typeClass buckets a raw column type string into one of the
// equivalence classes §4.E names: INTEGER/INT/SERIAL, TEXT/VARCHAR,
// FLOAT/REAL/DOUBLE PRECISION, BOOLEAN/BOOL. Two columns whose raw
// types fall in the same class are not considered to have changed,
// even though their literal type strings differ across dialects or
// driver-reported spellings.
func typeClass(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	// Strip a length/precision suffix like "varchar(255)".
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	switch t {
	case "integer", "int", "int4", "serial", "bigserial", "int8", "bigint":
		return "integer"
	case "text", "varchar", "character varying", "char", "string":
		return "text"
	case "float", "float4", "float8", "real", "double precision", "double", "numeric", "decimal":
		return "float"
	case "boolean", "bool":
		return "boolean"
	case "timestamp", "timestamptz", "timestamp with time zone", "timestamp without time zone", "datetime":
		return "timestamp"
	case "json", "jsonb":
		return "json"
	case "uuid":
		return "uuid"
	default:
		return t
	}
}

// typesEquivalent reports whether a and b belong to the same
// equivalence class.
func typesEquivalent(a, b string) bool {
	return typeClass(a) == typeClass(b)
}

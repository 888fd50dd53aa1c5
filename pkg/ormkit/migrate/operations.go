/*
Package migrate implements the migration engine: the operation IR,
script registration, the upgrade/downgrade runner, and version-table
tracking (spec.md §4.E).

The operation IR is grounded on xataio/pgroll's closed-enum design
(pkg/migrations/op_common.go: an OpName constant set plus one struct
per operation implementing a shared interface) adapted from pgroll's
multi-phase expand/contract model down to this spec's simpler
single-phase upgrade/downgrade shape. Each operation here renders its
own SQL and, where defined, its own inverse, exactly per §4.E.
*/
package migrate

import (
	"fmt"
	"strings"

	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
)

// Operation is the closed set of schema-change records a migration
// script composes (spec.md §4.E): CreateTable, DropTable, AddColumn,
// DropColumn, AlterColumn, CreateIndex, DropIndex, CreateForeignKey,
// DropConstraint, Execute.
type Operation interface {
	// ToSQL renders one or more statements for this operation in the
	// given dialect.
	ToSQL(d dialect.Dialect) []string

	// Reverse returns this operation's inverse and true, or (nil,
	// false) when no inverse is defined (e.g. DropTable, DropColumn —
	// schema-destructive operations lose the information needed to
	// reconstruct themselves).
	Reverse() (Operation, bool)
}

// ColumnDef describes one column within a CreateTable/AddColumn
// operation. Mirrors schema.Column's DDL-relevant fields without
// importing the schema package, keeping the operation IR free of
// registry dependencies (a rendered migration script only needs to
// describe DDL, never resolve relationships).
type ColumnDef struct {
	Name          string
	Type          string // logical type name, see typeToSQL
	Nullable      bool
	PrimaryKey    bool
	Unique        bool
	Autoincrement bool
	Default       string // raw SQL default expression, empty for none
	MaxLength     int
}

// CreateTable creates a new table with the given columns.
type CreateTable struct {
	Table   string
	Columns []ColumnDef
}

func (op *CreateTable) ToSQL(d dialect.Dialect) []string {
	var cols []string
	for _, c := range op.Columns {
		cols = append(cols, renderColumnDef(d, c))
	}
	return []string{fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", quoteIdent(op.Table), strings.Join(cols, ",\n\t"))}
}

func (op *CreateTable) Reverse() (Operation, bool) {
	return &DropTable{Table: op.Table}, true
}

// DropTable drops a table outright. Irreversible — its own columns
// are lost — matching autogen's refusal to ever emit this operation
// automatically (§4.E, "dropping a table is not auto-generated").
type DropTable struct {
	Table string
}

func (op *DropTable) ToSQL(d dialect.Dialect) []string {
	return []string{"DROP TABLE " + quoteIdent(op.Table)}
}

func (op *DropTable) Reverse() (Operation, bool) { return nil, false }

// AddColumn adds a new column to an existing table.
type AddColumn struct {
	Table  string
	Column ColumnDef
}

func (op *AddColumn) ToSQL(d dialect.Dialect) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quoteIdent(op.Table), renderColumnDef(d, op.Column))}
}

func (op *AddColumn) Reverse() (Operation, bool) {
	return &DropColumn{Table: op.Table, Column: op.Column.Name}, true
}

// DropColumn drops a column from a table. Irreversible (the column's
// type/constraints would have to be remembered to recreate it, and
// any data in it is gone).
type DropColumn struct {
	Table  string
	Column string
}

func (op *DropColumn) ToSQL(d dialect.Dialect) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quoteIdent(op.Table), quoteIdent(op.Column))}
}

func (op *DropColumn) Reverse() (Operation, bool) { return nil, false }

// AlterColumn changes a column's type, nullability, default, or name.
// Only the non-zero fields are applied; Rename, when set, takes the
// column's prior name as Column and its new name as Rename.
type AlterColumn struct {
	Table string
	// Column is the column's name before this operation runs.
	Column string

	// NewType, when non-empty, changes the column's type.
	NewType string
	// PriorType records the column's type before this change, needed
	// to render Reverse(); left empty when this operation does not
	// touch the type.
	PriorType string

	// SetNullable, when non-nil, changes nullability to *SetNullable.
	SetNullable *bool
	// PriorNullable records nullability before this change.
	PriorNullable *bool

	// SetDefault, when non-nil, changes the default expression (empty
	// string clears it).
	SetDefault *string
	// PriorDefault records the default before this change.
	PriorDefault *string

	// Rename, when non-empty, renames Column to this name.
	Rename string
}

func (op *AlterColumn) ToSQL(d dialect.Dialect) []string {
	var stmts []string
	table := quoteIdent(op.Table)
	col := quoteIdent(op.Column)

	if op.NewType != "" {
		if d == dialect.SQLite {
			// SQLite has no native ALTER COLUMN TYPE; the runner
			// executing this statement against SQLite is expected to
			// have already verified the column is compatible, since
			// SQLite is dynamically typed per-value regardless of the
			// declared column type.
			stmts = append(stmts, fmt.Sprintf("-- sqlite: type change for %s.%s to %s is a no-op (dynamic typing)", op.Table, op.Column, op.NewType))
		} else {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", table, col, typeToSQL(d, op.NewType, 0)))
		}
	}
	if op.SetNullable != nil {
		if *op.SetNullable {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", table, col))
		} else {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", table, col))
		}
	}
	if op.SetDefault != nil {
		if *op.SetDefault == "" {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", table, col))
		} else {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", table, col, *op.SetDefault))
		}
	}
	if op.Rename != "" {
		if d == dialect.SQLite {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", table, col, quoteIdent(op.Rename)))
		} else {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", table, col, quoteIdent(op.Rename)))
		}
	}
	return stmts
}

func (op *AlterColumn) Reverse() (Operation, bool) {
	rev := &AlterColumn{Table: op.Table, Column: op.Column}
	if op.Rename != "" {
		rev.Column = op.Rename
		rev.Rename = op.Column
	}
	if op.NewType != "" {
		if op.PriorType == "" {
			return nil, false
		}
		rev.NewType = op.PriorType
		rev.PriorType = op.NewType
	}
	if op.SetNullable != nil {
		if op.PriorNullable == nil {
			return nil, false
		}
		rev.SetNullable = op.PriorNullable
		rev.PriorNullable = op.SetNullable
	}
	if op.SetDefault != nil {
		if op.PriorDefault == nil {
			return nil, false
		}
		rev.SetDefault = op.PriorDefault
		rev.PriorDefault = op.SetDefault
	}
	return rev, true
}

// CreateIndex creates an index over one or more columns.
type CreateIndex struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
}

func (op *CreateIndex) ToSQL(d dialect.Dialect) []string {
	kw := "CREATE INDEX"
	if op.Unique {
		kw = "CREATE UNIQUE INDEX"
	}
	cols := make([]string, len(op.Columns))
	for i, c := range op.Columns {
		cols[i] = quoteIdent(c)
	}
	return []string{fmt.Sprintf("%s %s ON %s (%s)", kw, quoteIdent(op.Name), quoteIdent(op.Table), strings.Join(cols, ", "))}
}

func (op *CreateIndex) Reverse() (Operation, bool) {
	return &DropIndex{Name: op.Name, Table: op.Table}, true
}

// DropIndex drops an index by name.
type DropIndex struct {
	Name  string
	Table string // only needed for dialects requiring it in DROP INDEX (none currently)
}

func (op *DropIndex) ToSQL(d dialect.Dialect) []string {
	return []string{"DROP INDEX " + quoteIdent(op.Name)}
}

func (op *DropIndex) Reverse() (Operation, bool) { return nil, false }

// CreateForeignKey adds a foreign-key constraint to an existing table.
type CreateForeignKey struct {
	Name       string
	Table      string
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   string
	OnUpdate   string
}

func (op *CreateForeignKey) ToSQL(d dialect.Dialect) []string {
	cols := quoteIdentList(op.Columns)
	refCols := quoteIdentList(op.RefColumns)
	stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		quoteIdent(op.Table), quoteIdent(op.Name), cols, quoteIdent(op.RefTable), refCols)
	if op.OnDelete != "" {
		stmt += " ON DELETE " + op.OnDelete
	}
	if op.OnUpdate != "" {
		stmt += " ON UPDATE " + op.OnUpdate
	}
	return []string{stmt}
}

func (op *CreateForeignKey) Reverse() (Operation, bool) {
	return &DropConstraint{Table: op.Table, Name: op.Name}, true
}

// DropConstraint drops a named constraint (foreign key, unique, or
// check). Irreversible in the general case — reconstructing it
// requires knowing which kind it was and its original definition,
// which this operation does not retain.
type DropConstraint struct {
	Table string
	Name  string
}

func (op *DropConstraint) ToSQL(d dialect.Dialect) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", quoteIdent(op.Table), quoteIdent(op.Name))}
}

func (op *DropConstraint) Reverse() (Operation, bool) { return nil, false }

// Execute runs raw SQL, with an optional ReverseSQL for the
// downgrade direction (§4.E: "Execute (raw SQL with optional reverse
// SQL)").
type Execute struct {
	SQL        string
	ReverseSQL string
}

func (op *Execute) ToSQL(d dialect.Dialect) []string { return []string{op.SQL} }

func (op *Execute) Reverse() (Operation, bool) {
	if op.ReverseSQL == "" {
		return nil, false
	}
	return &Execute{SQL: op.ReverseSQL, ReverseSQL: op.SQL}, true
}

// renderColumnDef renders one column definition for CreateTable/
// AddColumn.
func renderColumnDef(d dialect.Dialect, c ColumnDef) string {
	var b strings.Builder
	b.WriteString(quoteIdent(c.Name))
	b.WriteByte(' ')
	if c.PrimaryKey && c.Autoincrement {
		b.WriteString(autoincrementType(d))
	} else {
		b.WriteString(typeToSQL(d, c.Type, c.MaxLength))
	}
	if c.PrimaryKey && !c.Autoincrement {
		b.WriteString(" PRIMARY KEY")
	}
	if c.Unique && !c.PrimaryKey {
		b.WriteString(" UNIQUE")
	}
	if !c.Nullable && !c.PrimaryKey {
		b.WriteString(" NOT NULL")
	}
	if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}
	return b.String()
}

// autoincrementType renders the dialect-specific autoincrementing
// primary-key column type.
func autoincrementType(d dialect.Dialect) string {
	if d == dialect.SQLite {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return "SERIAL PRIMARY KEY"
}

// typeToSQL maps a logical column type name (as used by ColumnDef.Type
// and the schema package's Column.Type) onto a dialect-concrete SQL
// type. The set matches the equivalence classes autogen diffs against
// (§4.E): INTEGER/INT/SERIAL, TEXT/VARCHAR, FLOAT/REAL/DOUBLE
// PRECISION, BOOLEAN/BOOL.
func typeToSQL(d dialect.Dialect, logical string, maxLength int) string {
	switch strings.ToLower(logical) {
	case "integer", "int":
		return "INTEGER"
	case "bigint":
		return "BIGINT"
	case "text":
		return "TEXT"
	case "string", "varchar":
		if maxLength > 0 {
			return fmt.Sprintf("VARCHAR(%d)", maxLength)
		}
		return "TEXT"
	case "float", "real", "double":
		if d == dialect.SQLite {
			return "REAL"
		}
		return "DOUBLE PRECISION"
	case "boolean", "bool":
		if d == dialect.SQLite {
			return "BOOLEAN"
		}
		return "BOOLEAN"
	case "timestamp", "datetime":
		if d == dialect.SQLite {
			return "TEXT"
		}
		return "TIMESTAMPTZ"
	case "json", "jsonb":
		if d == dialect.SQLite {
			return "TEXT"
		}
		return "JSONB"
	case "uuid":
		if d == dialect.SQLite {
			return "TEXT"
		}
		return "UUID"
	default:
		return strings.ToUpper(logical)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdentList(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return strings.Join(out, ", ")
}

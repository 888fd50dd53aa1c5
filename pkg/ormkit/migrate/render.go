package migrate

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// RenderScript renders a Go migration-script source file from an
// ordered operation diff, the shape autogen.AutogenContext.Diff
// produces (§4.E: "rendered as a migration source file that the
// engine can load and re-execute"). The rendered file registers
// itself via [Register] from an init() function, matching this
// module's compile-time script-loading model (§4.E, §9).
func RenderScript(revision, downRevision, message string, ops []Operation) (string, error) {
	data := scriptTemplateData{
		Revision:     revision,
		DownRevision: downRevision,
		Message:      message,
		PackageName:  "migrations",
	}
	for _, op := range ops {
		up, err := renderOpLiteral(op)
		if err != nil {
			return "", err
		}
		data.UpgradeOps = append(data.UpgradeOps, up)

		if rev, ok := op.Reverse(); ok {
			down, err := renderOpLiteral(rev)
			if err != nil {
				return "", err
			}
			// Prepend so the downgrade list undoes operations in
			// reverse order of how they were applied.
			data.DowngradeOps = append([]string{down}, data.DowngradeOps...)
		}
	}

	var buf bytes.Buffer
	if err := scriptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("migrate: render script: %w", err)
	}
	return buf.String(), nil
}

type scriptTemplateData struct {
	PackageName  string
	Revision     string
	DownRevision string
	Message      string
	UpgradeOps   []string
	DowngradeOps []string
}

var scriptTemplate = template.Must(template.New("migration_script").Parse(`// Code generated by ormkit autogen. Message: {{.Message}}
package {{.PackageName}}

import (
	"github.com/alexogeny/ormkit/pkg/ormkit/migrate"
)

func init() {
	migrate.Register(&migrate.Script{
		Revision:     {{printf "%q" .Revision}},
		DownRevision: {{printf "%q" .DownRevision}},
		Message:      {{printf "%q" .Message}},
		Upgrade: []migrate.Operation{
{{range .UpgradeOps}}			{{.}},
{{end}}		},
		Downgrade: []migrate.Operation{
{{range .DowngradeOps}}			{{.}},
{{end}}		},
	})
}
`))

// renderOpLiteral renders op as a Go struct-literal expression
// matching its concrete type, for embedding in a generated migration
// script.
func renderOpLiteral(op Operation) (string, error) {
	switch v := op.(type) {
	case *CreateTable:
		var cols []string
		for _, c := range v.Columns {
			cols = append(cols, renderColumnDefLiteral(c))
		}
		return fmt.Sprintf("&migrate.CreateTable{Table: %q, Columns: []migrate.ColumnDef{%s}}", v.Table, strings.Join(cols, ", ")), nil
	case *DropTable:
		return fmt.Sprintf("&migrate.DropTable{Table: %q}", v.Table), nil
	case *AddColumn:
		return fmt.Sprintf("&migrate.AddColumn{Table: %q, Column: %s}", v.Table, renderColumnDefLiteral(v.Column)), nil
	case *DropColumn:
		return fmt.Sprintf("&migrate.DropColumn{Table: %q, Column: %q}", v.Table, v.Column), nil
	case *AlterColumn:
		return renderAlterColumnLiteral(v), nil
	case *CreateIndex:
		return fmt.Sprintf("&migrate.CreateIndex{Name: %q, Table: %q, Columns: %s, Unique: %t}", v.Name, v.Table, renderStringSlice(v.Columns), v.Unique), nil
	case *DropIndex:
		return fmt.Sprintf("&migrate.DropIndex{Name: %q, Table: %q}", v.Name, v.Table), nil
	case *CreateForeignKey:
		return fmt.Sprintf("&migrate.CreateForeignKey{Name: %q, Table: %q, Columns: %s, RefTable: %q, RefColumns: %s, OnDelete: %q, OnUpdate: %q}",
			v.Name, v.Table, renderStringSlice(v.Columns), v.RefTable, renderStringSlice(v.RefColumns), v.OnDelete, v.OnUpdate), nil
	case *DropConstraint:
		return fmt.Sprintf("&migrate.DropConstraint{Table: %q, Name: %q}", v.Table, v.Name), nil
	case *Execute:
		return fmt.Sprintf("&migrate.Execute{SQL: %q, ReverseSQL: %q}", v.SQL, v.ReverseSQL), nil
	default:
		return "", fmt.Errorf("migrate: render script: unknown operation type %T", op)
	}
}

func renderColumnDefLiteral(c ColumnDef) string {
	return fmt.Sprintf("{Name: %q, Type: %q, Nullable: %t, PrimaryKey: %t, Unique: %t, Autoincrement: %t, Default: %q, MaxLength: %d}",
		c.Name, c.Type, c.Nullable, c.PrimaryKey, c.Unique, c.Autoincrement, c.Default, c.MaxLength)
}

func renderAlterColumnLiteral(v *AlterColumn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "&migrate.AlterColumn{Table: %q, Column: %q", v.Table, v.Column)
	if v.NewType != "" {
		fmt.Fprintf(&b, ", NewType: %q, PriorType: %q", v.NewType, v.PriorType)
	}
	if v.SetNullable != nil {
		fmt.Fprintf(&b, ", SetNullable: migrate.BoolPtr(%t), PriorNullable: migrate.BoolPtr(%t)", *v.SetNullable, *v.PriorNullable)
	}
	if v.SetDefault != nil {
		fmt.Fprintf(&b, ", SetDefault: migrate.StrPtr(%q), PriorDefault: migrate.StrPtr(%q)", *v.SetDefault, *v.PriorDefault)
	}
	if v.Rename != "" {
		fmt.Fprintf(&b, ", Rename: %q", v.Rename)
	}
	b.WriteByte('}')
	return b.String()
}

func renderStringSlice(ss []string) string {
	quoted := make([]string, len(ss))
	for i, s := range ss {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[]string{" + strings.Join(quoted, ", ") + "}"
}

// BoolPtr and StrPtr are small exported helpers so a rendered
// migration script (which lives in the caller's migrations package,
// not this one) can build AlterColumn's pointer fields without
// needing its own local helper functions.
func BoolPtr(b bool) *bool     { return &b }
func StrPtr(s string) *string { return &s }

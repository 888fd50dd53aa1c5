package schema

import "strings"

// Entity describes one mapped table: its columns, its relationships,
// and (at most) one primary-key column.
type Entity struct {
	Name    string
	Table   string
	Columns []Column
	// Relationships is keyed by relationship name so generated
	// accessors can look themselves up by name in O(1).
	Relationships map[string]*Relationship

	SoftDelete       bool
	SoftDeleteColumn string

	resolved bool
}

// NewEntity constructs an empty Entity ready for Register.
func NewEntity(name, table string) *Entity {
	return &Entity{
		Name:          name,
		Table:         table,
		Relationships: map[string]*Relationship{},
	}
}

// PrimaryKey returns the single primary-key column's name, or "" if
// the entity declares none.
func (e *Entity) PrimaryKey() string {
	for _, c := range e.Columns {
		if c.PrimaryKey {
			return c.Name
		}
	}
	return ""
}

// Column looks up a column by name.
func (e *Entity) Column(name string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns every column name in declaration order —
// builders use this instead of ranging over a map, so output stays
// deterministic (§8, "builder determinism").
func (e *Entity) ColumnNames() []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return names
}

// InsertColumnNames returns every column name eligible to appear in an
// INSERT's column list, skipping an autoincrement primary key (§4.D).
func (e *Entity) InsertColumnNames() []string {
	names := make([]string, 0, len(e.Columns))
	for _, c := range e.Columns {
		if c.PrimaryKey && c.Autoincrement {
			continue
		}
		names = append(names, c.Name)
	}
	return names
}

func singularize(table string) string {
	return strings.TrimSuffix(table, "s")
}

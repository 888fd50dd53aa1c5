package autogen

import (
	"context"
	"fmt"
	"sort"

	"github.com/alexogeny/ormkit/pkg/ormkit/migrate"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool"
	"github.com/alexogeny/ormkit/pkg/ormkit/schema"
)

// AutogenContext reads the live schema through pool's introspection
// capability and diffs it against registry's derived schema (spec.md
// §4.E, §9 "Schema introspection": modeled as a small interface so
// tests can supply fixture schemas — see pool/fixture — without a
// live database).
type AutogenContext struct {
	pool     pool.Introspector
	registry *schema.Registry
	entities []string // entity names to diff, in caller-supplied order
}

// New constructs an AutogenContext over the given introspector and
// registry, diffing exactly the named entities (in order, so output
// is deterministic regardless of registry map iteration).
func New(p pool.Introspector, registry *schema.Registry, entities []string) *AutogenContext {
	return &AutogenContext{pool: p, registry: registry, entities: entities}
}

// Diff computes the ordered operation list that would bring the live
// schema in line with the registry. New tables become CreateTable;
// missing/extra/changed columns on existing tables become
// AddColumn/DropColumn/AlterColumn; missing indexes (matched by
// column set, not name) become CreateIndex. Dropping a table is never
// emitted (§4.E: "too dangerous").
func (a *AutogenContext) Diff(ctx context.Context) ([]migrate.Operation, error) {
	liveTables, err := a.pool.GetTables(ctx)
	if err != nil {
		return nil, err
	}
	liveSet := make(map[string]bool, len(liveTables))
	for _, t := range liveTables {
		liveSet[t] = true
	}

	var ops []migrate.Operation
	for _, name := range a.entities {
		entity, err := a.registry.Resolve(name)
		if err != nil {
			return nil, err
		}

		if !liveSet[entity.Table] {
			ops = append(ops, createTableOp(entity))
			continue
		}

		colOps, err := a.diffColumns(ctx, entity)
		if err != nil {
			return nil, err
		}
		ops = append(ops, colOps...)

		idxOps, err := a.diffIndexes(ctx, entity)
		if err != nil {
			return nil, err
		}
		ops = append(ops, idxOps...)
	}
	return ops, nil
}

func createTableOp(e *schema.Entity) migrate.Operation {
	cols := make([]migrate.ColumnDef, len(e.Columns))
	for i, c := range e.Columns {
		cols[i] = columnDefFrom(c)
	}
	return &migrate.CreateTable{Table: e.Table, Columns: cols}
}

func columnDefFrom(c schema.Column) migrate.ColumnDef {
	def := migrate.ColumnDef{
		Name:          c.Name,
		Type:          c.Type,
		Nullable:      c.Nullable,
		PrimaryKey:    c.PrimaryKey,
		Unique:        c.Unique,
		Autoincrement: c.Autoincrement,
		MaxLength:     c.MaxLength,
	}
	if c.Default != nil {
		def.Default = renderDefaultLiteral(c.Default)
	}
	return def
}

func (a *AutogenContext) diffColumns(ctx context.Context, e *schema.Entity) ([]migrate.Operation, error) {
	live, err := a.pool.GetColumns(ctx, e.Table)
	if err != nil {
		return nil, err
	}
	liveByName := make(map[string]pool.ColumnInfo, len(live))
	for _, c := range live {
		liveByName[c.Name] = c
	}

	var ops []migrate.Operation

	for _, c := range e.Columns {
		lc, exists := liveByName[c.Name]
		if !exists {
			ops = append(ops, &migrate.AddColumn{Table: e.Table, Column: columnDefFrom(c)})
			continue
		}
		if alter := diffColumnType(e.Table, c, lc); alter != nil {
			ops = append(ops, alter)
		}
	}

	// Columns present live but absent from the model are dropped.
	modelCols := make(map[string]bool, len(e.Columns))
	for _, c := range e.Columns {
		modelCols[c.Name] = true
	}
	var dropped []string
	for _, lc := range live {
		if !modelCols[lc.Name] {
			dropped = append(dropped, lc.Name)
		}
	}
	sort.Strings(dropped)
	for _, name := range dropped {
		ops = append(ops, &migrate.DropColumn{Table: e.Table, Column: name})
	}

	return ops, nil
}

// diffColumnType compares a model column against its live counterpart,
// returning an AlterColumn for a type-class or nullability change, or
// nil if they are equivalent.
func diffColumnType(table string, model schema.Column, live pool.ColumnInfo) migrate.Operation {
	alter := &migrate.AlterColumn{Table: table, Column: model.Name}
	changed := false

	if !typesEquivalent(model.Type, live.Type) {
		alter.NewType = model.Type
		alter.PriorType = live.Type
		changed = true
	}
	if model.Nullable != live.Nullable {
		want := model.Nullable
		had := live.Nullable
		alter.SetNullable = &want
		alter.PriorNullable = &had
		changed = true
	}

	if !changed {
		return nil
	}
	return alter
}

func (a *AutogenContext) diffIndexes(ctx context.Context, e *schema.Entity) ([]migrate.Operation, error) {
	live, err := a.pool.GetIndexes(ctx, e.Table)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]bool, len(live))
	for _, idx := range live {
		existing[columnSetKey(idx.Columns)] = true
	}

	var ops []migrate.Operation
	for _, c := range e.Columns {
		if !c.Index || c.Unique {
			continue
		}
		key := columnSetKey([]string{c.Name})
		if existing[key] {
			continue
		}
		ops = append(ops, &migrate.CreateIndex{
			Name:    "ix_" + e.Table + "_" + c.Name,
			Table:   e.Table,
			Columns: []string{c.Name},
			Unique:  c.Unique,
		})
	}
	return ops, nil
}

// columnSetKey produces a comparison key for a set of columns that is
// insensitive to declaration order, so an index is matched by the
// columns it covers rather than by name (§4.E).
func columnSetKey(cols []string) string {
	sorted := append([]string(nil), cols...)
	sort.Strings(sorted)
	key := ""
	for i, c := range sorted {
		if i > 0 {
			key += ","
		}
		key += c
	}
	return key
}

func renderDefaultLiteral(v any) string {
	switch val := v.(type) {
	case string:
		return "'" + val + "'"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(val)
	}
}

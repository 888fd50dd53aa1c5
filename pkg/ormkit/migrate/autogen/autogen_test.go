package autogen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexogeny/ormkit/pkg/ormkit/migrate"
	"github.com/alexogeny/ormkit/pkg/ormkit/migrate/autogen"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool/fixture"
	"github.com/alexogeny/ormkit/pkg/ormkit/schema"
)

func userEntity() *schema.Entity {
	e := schema.NewEntity("User", "users")
	e.Columns = []schema.Column{
		{Name: "id", Type: "integer", PrimaryKey: true, Autoincrement: true},
		{Name: "name", Type: "text"},
		{Name: "email", Type: "text", Unique: true},
	}
	return e
}

// TestAutogenDiffAgainstEmptyDatabaseEmitsCreateTable is the boundary
// case spec.md §8 names explicitly: "autogen diff against an empty
// database emits a CreateTable per model."
func TestAutogenDiffAgainstEmptyDatabaseEmitsCreateTable(t *testing.T) {
	registry := schema.NewRegistry()
	registry.Register("User", userEntity())

	p := &fixture.Pool{}
	ac := autogen.New(p, registry, []string{"User"})

	ops, err := ac.Diff(t.Context())
	require.NoError(t, err)
	require.Len(t, ops, 1)

	ct, ok := ops[0].(*migrate.CreateTable)
	require.True(t, ok)
	assert.Equal(t, "users", ct.Table)
	assert.Len(t, ct.Columns, 3)
}

func TestAutogenNeverEmitsDropTable(t *testing.T) {
	registry := schema.NewRegistry()
	// No entities registered; the only live table is one the model
	// does not know about.
	p := &fixture.Pool{Tables: []string{"legacy_table"}}
	ac := autogen.New(p, registry, nil)

	ops, err := ac.Diff(t.Context())
	require.NoError(t, err)
	for _, op := range ops {
		_, isDrop := op.(*migrate.DropTable)
		assert.False(t, isDrop, "autogen must never emit DropTable")
	}
}

func TestAutogenDetectsMissingAndExtraColumns(t *testing.T) {
	registry := schema.NewRegistry()
	registry.Register("User", userEntity())

	p := &fixture.Pool{
		Tables: []string{"users"},
		Columns: map[string][]pool.ColumnInfo{
			"users": {
				{Name: "id", Type: "integer", Nullable: false},
				{Name: "name", Type: "text", Nullable: true},
				// "email" is missing from the live table.
				{Name: "legacy_flag", Type: "boolean", Nullable: true},
			},
		},
	}
	ac := autogen.New(p, registry, []string{"User"})

	ops, err := ac.Diff(t.Context())
	require.NoError(t, err)

	var addedEmail, droppedLegacy bool
	for _, op := range ops {
		if add, ok := op.(*migrate.AddColumn); ok && add.Column.Name == "email" {
			addedEmail = true
		}
		if drop, ok := op.(*migrate.DropColumn); ok && drop.Column == "legacy_flag" {
			droppedLegacy = true
		}
	}
	assert.True(t, addedEmail, "expected AddColumn for email")
	assert.True(t, droppedLegacy, "expected DropColumn for legacy_flag")
}

func TestAutogenTypeEquivalenceSuppressesNoiseDiffs(t *testing.T) {
	registry := schema.NewRegistry()
	e := schema.NewEntity("Widget", "widgets")
	e.Columns = []schema.Column{{Name: "count", Type: "integer", Nullable: true}}
	registry.Register("Widget", e)

	// Live column reports "SERIAL" — same equivalence class as
	// "integer" — so no AlterColumn should be emitted.
	p := &fixture.Pool{
		Tables: []string{"widgets"},
		Columns: map[string][]pool.ColumnInfo{
			"widgets": {{Name: "count", Type: "SERIAL", Nullable: true}},
		},
	}
	ac := autogen.New(p, registry, []string{"Widget"})

	ops, err := ac.Diff(t.Context())
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestAutogenEmitsCreateIndexMatchedByColumnSet(t *testing.T) {
	registry := schema.NewRegistry()
	e := schema.NewEntity("Widget", "widgets")
	e.Columns = []schema.Column{
		{Name: "id", Type: "integer", PrimaryKey: true, Autoincrement: true},
		{Name: "sku", Type: "text", Index: true},
	}
	registry.Register("Widget", e)

	p := &fixture.Pool{
		Tables: []string{"widgets"},
		Columns: map[string][]pool.ColumnInfo{
			"widgets": {
				{Name: "id", Type: "integer"},
				{Name: "sku", Type: "text"},
			},
		},
		Indexes: map[string][]pool.IndexInfo{
			"widgets": {}, // no indexes live yet
		},
	}
	ac := autogen.New(p, registry, []string{"Widget"})

	ops, err := ac.Diff(t.Context())
	require.NoError(t, err)

	var createdIndex bool
	for _, op := range ops {
		if ci, ok := op.(*migrate.CreateIndex); ok && ci.Columns[0] == "sku" {
			createdIndex = true
		}
	}
	assert.True(t, createdIndex)
}

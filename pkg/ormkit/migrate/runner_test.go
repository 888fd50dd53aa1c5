package migrate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
	"github.com/alexogeny/ormkit/pkg/ormkit/migrate"
)

// TestMigrationUpDownRoundTrip reproduces spec.md §8 scenario 6
// verbatim: rev=A creates table t(id,name); rev=B, down=A adds column
// age. After upgrade(head): version_num == "B", table has three
// columns. After downgrade("-1"): version_num == "A", two columns.
// After downgrade("-1") again: version table empty, table t dropped.
func TestMigrationUpDownRoundTrip(t *testing.T) {
	migrate.ResetRegistry()
	defer migrate.ResetRegistry()

	migrate.Register(&migrate.Script{
		Revision: "A",
		Upgrade: []migrate.Operation{
			&migrate.CreateTable{Table: "t", Columns: []migrate.ColumnDef{
				{Name: "id", Type: "integer", PrimaryKey: true, Autoincrement: true},
				{Name: "name", Type: "text"},
			}},
		},
		Downgrade: []migrate.Operation{
			&migrate.DropTable{Table: "t"},
		},
	})
	migrate.Register(&migrate.Script{
		Revision:     "B",
		DownRevision: "A",
		Upgrade: []migrate.Operation{
			&migrate.AddColumn{Table: "t", Column: migrate.ColumnDef{Name: "age", Type: "integer", Nullable: true}},
		},
		Downgrade: []migrate.Operation{
			&migrate.DropColumn{Table: "t", Column: "age"},
		},
	})

	p := newMemoryPool()
	runner := migrate.NewRunner(p, "", testLogger())
	ctx := t.Context()

	require.NoError(t, runner.Upgrade(ctx, ""))
	rev, has, err := runner.CurrentRevision(ctx)
	require.NoError(t, err)
	require.True(t, has)
	assert.Equal(t, "B", rev)
	assert.Len(t, p.tables["t"], 3)

	require.NoError(t, runner.Downgrade(ctx, "-1"))
	rev, has, err = runner.CurrentRevision(ctx)
	require.NoError(t, err)
	require.True(t, has)
	assert.Equal(t, "A", rev)
	assert.Len(t, p.tables["t"], 2)

	require.NoError(t, runner.Downgrade(ctx, "-1"))
	_, has, err = runner.CurrentRevision(ctx)
	require.NoError(t, err)
	assert.False(t, has)
	_, exists := p.tables["t"]
	assert.False(t, exists)
}

func TestUpgradeAbortsWithoutAdvancingVersionOnFailure(t *testing.T) {
	migrate.ResetRegistry()
	defer migrate.ResetRegistry()

	migrate.Register(&migrate.Script{
		Revision: "A",
		Upgrade:  []migrate.Operation{&migrate.CreateTable{Table: "t"}},
	})
	migrate.Register(&migrate.Script{
		Revision:     "B",
		DownRevision: "A",
		Upgrade:      []migrate.Operation{&failingOperation{}},
	})

	p := newMemoryPool()
	runner := migrate.NewRunner(p, "", testLogger())
	ctx := t.Context()

	require.NoError(t, runner.Upgrade(ctx, "A"))

	err := runner.Upgrade(ctx, "")
	require.Error(t, err)

	rev, has, err := runner.CurrentRevision(ctx)
	require.NoError(t, err)
	require.True(t, has)
	assert.Equal(t, "A", rev, "version table must not advance past the failed revision")
}

func TestStampSetsVersionWithoutExecuting(t *testing.T) {
	migrate.ResetRegistry()
	defer migrate.ResetRegistry()

	migrate.Register(&migrate.Script{Revision: "A", Upgrade: []migrate.Operation{&migrate.CreateTable{Table: "t"}}})

	p := newMemoryPool()
	runner := migrate.NewRunner(p, "", testLogger())
	ctx := t.Context()

	require.NoError(t, runner.Stamp(ctx, "A"))
	rev, has, err := runner.CurrentRevision(ctx)
	require.NoError(t, err)
	require.True(t, has)
	assert.Equal(t, "A", rev)
	_, exists := p.tables["t"]
	assert.False(t, exists, "stamp must not execute any operation")
}

func TestHistoryReturnsChainInOrder(t *testing.T) {
	migrate.ResetRegistry()
	defer migrate.ResetRegistry()

	migrate.Register(&migrate.Script{Revision: "B", DownRevision: "A"})
	migrate.Register(&migrate.Script{Revision: "A"})
	migrate.Register(&migrate.Script{Revision: "C", DownRevision: "B"})

	p := newMemoryPool()
	runner := migrate.NewRunner(p, "", testLogger())

	scripts, err := runner.History()
	require.NoError(t, err)
	require.Len(t, scripts, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{scripts[0].Revision, scripts[1].Revision, scripts[2].Revision})
}

// failingOperation renders a statement the memPool test fake
// recognizes and rejects, used to test abort-without-advancing
// semantics.
type failingOperation struct{}

func (f *failingOperation) ToSQL(d dialect.Dialect) []string { return []string{"INTENTIONAL FAILURE"} }

func (f *failingOperation) Reverse() (migrate.Operation, bool) { return nil, false }

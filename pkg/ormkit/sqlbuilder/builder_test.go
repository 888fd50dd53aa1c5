package sqlbuilder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
	"github.com/alexogeny/ormkit/pkg/ormkit/sqlbuilder"
)

func TestSelectPlaceholdersPerDialect(t *testing.T) {
	sel := sqlbuilder.Select{
		Table:   "users",
		Columns: []string{"id", "name"},
		Where:   sqlbuilder.Leaf("name", sqlbuilder.Eq, "ada"),
	}

	pgSQL, pgParams := sel.Build(dialect.Postgres)
	assert.Contains(t, pgSQL, "$1")
	assert.Equal(t, []any{"ada"}, pgParams)

	liteSQL, liteParams := sel.Build(dialect.SQLite)
	assert.Contains(t, liteSQL, "?")
	assert.Equal(t, []any{"ada"}, liteParams)
}

func TestSelectIsDeterministic(t *testing.T) {
	sel := sqlbuilder.Select{
		Table:   "users",
		Columns: []string{"id", "name", "email"},
		Where:   sqlbuilder.Q(map[string]any{"b": 2, "a": 1, "z": 3}),
	}

	first, firstParams := sel.Build(dialect.Postgres)
	for i := 0; i < 20; i++ {
		sql, params := sel.Build(dialect.Postgres)
		assert.Equal(t, first, sql)
		assert.Equal(t, firstParams, params)
	}
}

func TestEmptyInShortCircuits(t *testing.T) {
	sel := sqlbuilder.Select{
		Table:   "users",
		Columns: []string{"id"},
		Where:   sqlbuilder.Leaf("id", sqlbuilder.In, []any{}),
	}
	sql, params := sel.Build(dialect.Postgres)
	assert.Contains(t, sql, "1 = 0")
	assert.Empty(t, params)

	notIn := sqlbuilder.Select{
		Table:   "users",
		Columns: []string{"id"},
		Where:   sqlbuilder.Leaf("id", sqlbuilder.NotIn, []any{}),
	}
	sql, _ = notIn.Build(dialect.Postgres)
	assert.Contains(t, sql, "1 = 1")
}

func TestJSONPathCompilation(t *testing.T) {
	sel := sqlbuilder.Select{
		Table:   "users",
		Columns: []string{"id"},
		Where:   sqlbuilder.Leaf("metadata.address.city", sqlbuilder.Eq, "nyc"),
	}

	pgSQL, _ := sel.Build(dialect.Postgres)
	assert.Contains(t, pgSQL, `"metadata"->'address'->>'city'`)

	liteSQL, _ := sel.Build(dialect.SQLite)
	assert.Contains(t, liteSQL, `json_extract("metadata", '$.address.city')`)
}

func TestSoftDeleteDefaultExcludesDeleted(t *testing.T) {
	sel := sqlbuilder.Select{
		Table:      "users",
		Columns:    []string{"id"},
		SoftDelete: sqlbuilder.SoftDelete{Column: "deleted_at"},
	}
	sql, _ := sel.Build(dialect.Postgres)
	assert.Contains(t, sql, `"deleted_at" IS NULL`)
}

func TestSoftDeleteIncludeDeletedOmitsFilter(t *testing.T) {
	sel := sqlbuilder.Select{
		Table:      "users",
		Columns:    []string{"id"},
		SoftDelete: sqlbuilder.SoftDelete{Column: "deleted_at", IncludeDeleted: true},
	}
	sql, _ := sel.Build(dialect.Postgres)
	assert.NotContains(t, sql, "WHERE")
}

func TestSoftDeleteOnlyDeleted(t *testing.T) {
	sel := sqlbuilder.Select{
		Table:      "users",
		Columns:    []string{"id"},
		SoftDelete: sqlbuilder.SoftDelete{Column: "deleted_at", OnlyDeleted: true},
	}
	sql, _ := sel.Build(dialect.Postgres)
	assert.Contains(t, sql, `"deleted_at" IS NOT NULL`)
}

func TestInsertUpsertOnConflict(t *testing.T) {
	ins := sqlbuilder.Insert{
		Table:             "users",
		Columns:           []string{"id", "email"},
		Rows:              [][]any{{1, "a@example.com"}},
		ConflictColumns:   []string{"id"},
		UpdateColumns:     []string{"email"},
		Returning:         []string{"id"},
	}
	pgSQL, _ := ins.Build(dialect.Postgres)
	assert.Contains(t, pgSQL, "ON CONFLICT")
	assert.Contains(t, pgSQL, "EXCLUDED")

	liteSQL, _ := ins.Build(dialect.SQLite)
	assert.Contains(t, liteSQL, "excluded")
}

func TestUpdateReusesFilterCompiler(t *testing.T) {
	upd := sqlbuilder.Update{
		Table:       "users",
		Assignments: []sqlbuilder.Assignment{{Column: "name", Value: "ada"}},
		Where:       sqlbuilder.Leaf("id", sqlbuilder.Eq, 1),
	}
	sql, params := upd.Build(dialect.Postgres)
	assert.Contains(t, sql, `SET "name" = $1`)
	assert.Contains(t, sql, `WHERE "id" = $2`)
	assert.Equal(t, []any{"ada", 1}, params)
}

package migrate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
	"github.com/alexogeny/ormkit/pkg/ormkit/migrate"
)

func TestCreateTableRendersPerDialect(t *testing.T) {
	op := &migrate.CreateTable{
		Table: "widgets",
		Columns: []migrate.ColumnDef{
			{Name: "id", Type: "integer", PrimaryKey: true, Autoincrement: true},
			{Name: "name", Type: "text", Nullable: false},
			{Name: "price", Type: "float", Nullable: true},
		},
	}

	pg := op.ToSQL(dialect.Postgres)
	require.Len(t, pg, 1)
	assert.Contains(t, pg[0], `"id" SERIAL PRIMARY KEY`)
	assert.Contains(t, pg[0], `"name" TEXT NOT NULL`)
	assert.Contains(t, pg[0], `"price" DOUBLE PRECISION`)

	lite := op.ToSQL(dialect.SQLite)
	assert.Contains(t, lite[0], `"id" INTEGER PRIMARY KEY AUTOINCREMENT`)
	assert.Contains(t, lite[0], `"price" REAL`)
}

func TestCreateTableReverseIsDropTable(t *testing.T) {
	op := &migrate.CreateTable{Table: "widgets"}
	rev, ok := op.Reverse()
	require.True(t, ok)
	dt, ok := rev.(*migrate.DropTable)
	require.True(t, ok)
	assert.Equal(t, "widgets", dt.Table)
}

func TestDropTableIsIrreversible(t *testing.T) {
	op := &migrate.DropTable{Table: "widgets"}
	_, ok := op.Reverse()
	assert.False(t, ok)
}

func TestAddColumnReverseIsDropColumn(t *testing.T) {
	op := &migrate.AddColumn{Table: "widgets", Column: migrate.ColumnDef{Name: "age", Type: "integer"}}
	rev, ok := op.Reverse()
	require.True(t, ok)
	dc := rev.(*migrate.DropColumn)
	assert.Equal(t, "widgets", dc.Table)
	assert.Equal(t, "age", dc.Column)
}

func TestAlterColumnTypeChangeReverses(t *testing.T) {
	op := &migrate.AlterColumn{Table: "widgets", Column: "price", NewType: "float", PriorType: "integer"}
	rev, ok := op.Reverse()
	require.True(t, ok)
	ac := rev.(*migrate.AlterColumn)
	assert.Equal(t, "integer", ac.NewType)
	assert.Equal(t, "float", ac.PriorType)
}

func TestAlterColumnTypeChangeWithoutPriorIsIrreversible(t *testing.T) {
	op := &migrate.AlterColumn{Table: "widgets", Column: "price", NewType: "float"}
	_, ok := op.Reverse()
	assert.False(t, ok)
}

func TestAlterColumnNullableSQL(t *testing.T) {
	nullable := true
	wasNotNullable := false
	op := &migrate.AlterColumn{Table: "widgets", Column: "name", SetNullable: &nullable, PriorNullable: &wasNotNullable}
	sql := op.ToSQL(dialect.Postgres)
	require.Len(t, sql, 1)
	assert.Contains(t, sql[0], "DROP NOT NULL")
}

func TestCreateIndexUniqueAndReverse(t *testing.T) {
	op := &migrate.CreateIndex{Name: "ix_widgets_sku", Table: "widgets", Columns: []string{"sku"}, Unique: true}
	sql := op.ToSQL(dialect.Postgres)
	assert.Contains(t, sql[0], "CREATE UNIQUE INDEX")

	rev, ok := op.Reverse()
	require.True(t, ok)
	di := rev.(*migrate.DropIndex)
	assert.Equal(t, "ix_widgets_sku", di.Name)
}

func TestCreateForeignKeySQL(t *testing.T) {
	op := &migrate.CreateForeignKey{
		Name: "fk_posts_author", Table: "posts", Columns: []string{"author_id"},
		RefTable: "users", RefColumns: []string{"id"}, OnDelete: "CASCADE",
	}
	sql := op.ToSQL(dialect.Postgres)
	require.Len(t, sql, 1)
	assert.Contains(t, sql[0], "FOREIGN KEY")
	assert.Contains(t, sql[0], "ON DELETE CASCADE")

	rev, ok := op.Reverse()
	require.True(t, ok)
	dc := rev.(*migrate.DropConstraint)
	assert.Equal(t, "fk_posts_author", dc.Name)
}

func TestExecuteReverseUsesReverseSQL(t *testing.T) {
	op := &migrate.Execute{SQL: "UPDATE widgets SET active = true", ReverseSQL: "UPDATE widgets SET active = false"}
	rev, ok := op.Reverse()
	require.True(t, ok)
	ex := rev.(*migrate.Execute)
	assert.Equal(t, "UPDATE widgets SET active = false", ex.SQL)
}

func TestExecuteWithoutReverseSQLIsIrreversible(t *testing.T) {
	op := &migrate.Execute{SQL: "VACUUM"}
	_, ok := op.Reverse()
	assert.False(t, ok)
}

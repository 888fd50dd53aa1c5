package loader_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
	"github.com/alexogeny/ormkit/pkg/ormkit/loader"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool/fixture"
	"github.com/alexogeny/ormkit/pkg/ormkit/schema"
)

func authorBookRegistry() *schema.Registry {
	r := schema.NewRegistry()

	author := schema.NewEntity("Author", "authors")
	author.Columns = []schema.Column{{Name: "id", PrimaryKey: true}, {Name: "name"}}
	author.Relationships["books"] = &schema.Relationship{Name: "books", Kind: schema.OneToMany, Target: "Book", UseList: true}
	r.Register("Author", author)

	book := schema.NewEntity("Book", "books")
	book.Columns = []schema.Column{
		{Name: "id", PrimaryKey: true},
		{Name: "title"},
		{Name: "author_id", ForeignKey: "Author.id"},
	}
	book.Relationships["author"] = &schema.Relationship{Name: "author", Kind: schema.ManyToOne, Target: "Author"}
	r.Register("Book", book)

	return r
}

func TestLoadSelectinOneToManyIssuesOneFollowUp(t *testing.T) {
	r := authorBookRegistry()
	fp := &fixture.Pool{
		Responders: []fixture.Responder{
			{Match: `"books"`, Columns: []string{"id", "title", "author_id"}, Rows: [][]any{
				{int64(10), "Book A", int64(1)},
				{int64(11), "Book B", int64(1)},
			}},
		},
	}

	l := &loader.Loader{Registry: r, Pool: fp, Dialect: dialect.Postgres}
	rows := []loader.Row{{"id": int64(1), "name": "Ada"}}

	err := l.Load(context.Background(), "Author", rows, []loader.PlanEntry{
		{Relationship: "books", Strategy: schema.Selectin},
	})
	require.NoError(t, err)

	books := rows[0]["books"].([]loader.Row)
	assert.Len(t, books, 2)
	assert.Len(t, fp.Executed, 1)
}

func TestLoadSelectinManyToOneOuterMissYieldsNil(t *testing.T) {
	r := authorBookRegistry()
	fp := &fixture.Pool{
		Responders: []fixture.Responder{
			{Match: `"authors"`, Columns: []string{"id", "name"}, Rows: [][]any{}},
		},
	}

	l := &loader.Loader{Registry: r, Pool: fp, Dialect: dialect.Postgres}
	rows := []loader.Row{{"id": int64(99), "title": "Orphan", "author_id": int64(42)}}

	err := l.Load(context.Background(), "Book", rows, []loader.PlanEntry{
		{Relationship: "author", Strategy: schema.Selectin},
	})
	require.NoError(t, err)
	assert.Nil(t, rows[0]["author"])
}

func TestLoadNoloadSkipsQuerySetsEmptyDefault(t *testing.T) {
	r := authorBookRegistry()
	fp := &fixture.Pool{}

	l := &loader.Loader{Registry: r, Pool: fp, Dialect: dialect.Postgres}
	rows := []loader.Row{{"id": int64(1), "name": "Ada"}}

	err := l.Load(context.Background(), "Author", rows, []loader.PlanEntry{
		{Relationship: "books", Strategy: schema.Noload},
	})
	require.NoError(t, err)
	assert.Empty(t, fp.Executed)

	books, err := rows[0].Relationship("books")
	require.NoError(t, err)
	assert.Equal(t, []loader.Row{}, books)
}

func TestLoadRaiseLeavesRelationshipUnreadable(t *testing.T) {
	r := authorBookRegistry()
	fp := &fixture.Pool{}

	l := &loader.Loader{Registry: r, Pool: fp, Dialect: dialect.Postgres}
	rows := []loader.Row{{"id": int64(1), "name": "Ada"}}

	err := l.Load(context.Background(), "Author", rows, []loader.PlanEntry{
		{Relationship: "books", Strategy: schema.Raise},
	})
	require.NoError(t, err)
	assert.Empty(t, fp.Executed)

	_, err = rows[0].Relationship("books")
	assert.ErrorIs(t, err, schema.ErrRelationshipNotLoaded)
}

func TestRowRelationshipUnplannedFails(t *testing.T) {
	row := loader.Row{"id": int64(1)}
	_, err := row.Relationship("books")
	assert.ErrorIs(t, err, schema.ErrRelationshipNotLoaded)
}

func TestJoinedDowngradesToSelectinOnOneToMany(t *testing.T) {
	r := authorBookRegistry()
	fp := &fixture.Pool{
		Responders: []fixture.Responder{
			{Match: `"books"`, Columns: []string{"id", "title", "author_id"}, Rows: [][]any{
				{int64(10), "Book A", int64(1)},
			}},
		},
	}

	l := &loader.Loader{Registry: r, Pool: fp, Dialect: dialect.Postgres}
	rows := []loader.Row{{"id": int64(1), "name": "Ada"}}

	// Requesting Joined on a one-to-many still issues a follow-up
	// query (it downgrades to Selectin) rather than being skipped as
	// if the base query's own JOIN already handled it.
	err := l.Load(context.Background(), "Author", rows, []loader.PlanEntry{
		{Relationship: "books", Strategy: schema.Joined},
	})
	require.NoError(t, err)
	assert.Len(t, fp.Executed, 1)
	assert.Len(t, rows[0]["books"].([]loader.Row), 1)
}

package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexogeny/ormkit/pkg/ormkit/schema"
)

func authorBook(t *testing.T) *schema.Registry {
	t.Helper()
	r := schema.NewRegistry()

	author := schema.NewEntity("Author", "authors")
	author.Columns = []schema.Column{{Name: "id", PrimaryKey: true}, {Name: "name"}}
	author.Relationships["books"] = &schema.Relationship{
		Name: "books", Kind: schema.OneToMany, Target: "Book", UseList: true,
	}
	r.Register("Author", author)

	book := schema.NewEntity("Book", "books")
	book.Columns = []schema.Column{
		{Name: "id", PrimaryKey: true},
		{Name: "title"},
		{Name: "author_id", ForeignKey: "Author.id"},
	}
	book.Relationships["author"] = &schema.Relationship{
		Name: "author", Kind: schema.ManyToOne, Target: "Author",
	}
	r.Register("Book", book)

	return r
}

func TestResolveInfersForeignKeys(t *testing.T) {
	r := authorBook(t)

	book, err := r.Resolve("Book")
	require.NoError(t, err)
	assert.Equal(t, "author_id", book.Relationships["author"].ForeignKey)

	author, err := r.Resolve("Author")
	require.NoError(t, err)
	assert.Equal(t, "author_id", author.Relationships["books"].ForeignKey)
}

func TestResolveIsIdempotent(t *testing.T) {
	r := authorBook(t)

	first, err := r.Resolve("Book")
	require.NoError(t, err)
	second, err := r.Resolve("Book")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestResolveUnknownTarget(t *testing.T) {
	r := schema.NewRegistry()
	e := schema.NewEntity("Orphan", "orphans")
	e.Relationships["parent"] = &schema.Relationship{Name: "parent", Kind: schema.ManyToOne, Target: "Missing"}
	r.Register("Orphan", e)

	_, err := r.Resolve("Orphan")
	assert.Error(t, err)
}

func TestResolveAmbiguousForeignKey(t *testing.T) {
	r := schema.NewRegistry()

	parent := schema.NewEntity("Parent", "parents")
	parent.Columns = []schema.Column{{Name: "id", PrimaryKey: true}}
	parent.Relationships["children"] = &schema.Relationship{Name: "children", Kind: schema.OneToMany, Target: "Child", UseList: true}
	r.Register("Parent", parent)

	child := schema.NewEntity("Child", "children")
	child.Columns = []schema.Column{
		{Name: "id", PrimaryKey: true},
		{Name: "primary_parent_id", ForeignKey: "Parent.id"},
		{Name: "secondary_parent_id", ForeignKey: "Parent.id"},
	}
	r.Register("Child", child)

	_, err := r.Resolve("Parent")
	assert.Error(t, err)
}

func TestManyToManyJunctionDefaulting(t *testing.T) {
	r := schema.NewRegistry()

	post := schema.NewEntity("Post", "posts")
	post.Columns = []schema.Column{{Name: "id", PrimaryKey: true}}
	post.Relationships["tags"] = &schema.Relationship{Name: "tags", Kind: schema.ManyToMany, Target: "Tag", UseList: true}
	r.Register("Post", post)

	tag := schema.NewEntity("Tag", "tags")
	tag.Columns = []schema.Column{{Name: "id", PrimaryKey: true}}
	r.Register("Tag", tag)

	resolved, err := r.Resolve("Post")
	require.NoError(t, err)
	rel := resolved.Relationships["tags"]
	assert.Equal(t, "post_id", rel.JunctionOwnerColumn)
	assert.Equal(t, "tag_id", rel.JunctionTargetColumn)
}

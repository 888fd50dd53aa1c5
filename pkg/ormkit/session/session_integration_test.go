/*
Session integration tests drive the six literal end-to-end scenarios
from spec.md §8 against a real [sqliteadapter.Pool] rather than the
map-backed fixture.Pool the rest of this package's tests use — the
promise SPEC_FULL.md §8 makes for this file. Every other session test
in this package exercises the session/builder/loader logic against a
fake that never leaves Go; these tests exist to exercise the concrete
driver wiring itself: binding params through database/sql, scanning a
row into *any, reading a RETURNING clause back, and the _pragma-laden
in-memory DSN sqliteadapter.Open builds.
*/
package session_test

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexogeny/ormkit/internal/platform/sqliteadapter"
	"github.com/alexogeny/ormkit/pkg/ormkit/loader"
	"github.com/alexogeny/ormkit/pkg/ormkit/migrate"
	"github.com/alexogeny/ormkit/pkg/ormkit/schema"
	"github.com/alexogeny/ormkit/pkg/ormkit/session"
)

// openMemorySQLite opens a private in-memory database scoped to t's
// name so parallel subtests never share sqlite's named shared cache.
func openMemorySQLite(t *testing.T) *sqliteadapter.Pool {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	p, err := sqliteadapter.Open(t.Context(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestIntegrationBatchedInsertRoundTrip reproduces §8 scenario 1:
// Entity User(id PK auto, name, email UNIQUE); inserting two rows
// assigns primary keys 1 and 2 and populates the identity map, against
// a real driver's RETURNING readback.
func TestIntegrationBatchedInsertRoundTrip(t *testing.T) {
	p := openMemorySQLite(t)
	ctx := t.Context()

	_, err := p.ExecuteStatement(ctx, `CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL
	)`, nil)
	require.NoError(t, err)

	r := schema.NewRegistry()
	user := schema.NewEntity("User", "users")
	user.Columns = []schema.Column{
		{Name: "id", PrimaryKey: true, Autoincrement: true},
		{Name: "name"},
		{Name: "email", Unique: true},
	}
	r.Register("User", user)

	s := session.New(p, r, false)
	s.Insert("User", session.Row{"name": "A", "email": "a@x"})
	s.Insert("User", session.Row{"name": "B", "email": "b@x"})
	require.NoError(t, s.Commit(ctx))

	first, err := s.Get(ctx, "User", int64(1))
	require.NoError(t, err)
	assert.Equal(t, "A", first["name"])

	second, err := s.Get(ctx, "User", int64(2))
	require.NoError(t, err)
	assert.Equal(t, "B", second["name"])

	var count int64
	result, err := p.Execute(ctx, `SELECT COUNT(*) FROM users`, nil)
	require.NoError(t, err)
	defer result.Close()
	found, err := result.OneOrNone(ctx, []any{&count})
	require.NoError(t, err)
	require.True(t, found)
	assert.EqualValues(t, 2, count)
}

func usersPostsRegistry() *schema.Registry {
	r := schema.NewRegistry()

	user := schema.NewEntity("User", "users")
	user.Columns = []schema.Column{{Name: "id", PrimaryKey: true}, {Name: "name"}}
	user.Relationships["posts"] = &schema.Relationship{
		Name: "posts", Kind: schema.OneToMany, Target: "Post", ForeignKey: "author_id", UseList: true,
	}
	r.Register("User", user)

	post := schema.NewEntity("Post", "posts")
	post.Columns = []schema.Column{
		{Name: "id", PrimaryKey: true},
		{Name: "title"},
		{Name: "author_id", Nullable: true},
	}
	post.Relationships["author"] = &schema.Relationship{
		Name: "author", Kind: schema.ManyToOne, Target: "User", ForeignKey: "author_id",
	}
	r.Register("Post", post)

	return r
}

func seedUsersAndPosts(t *testing.T, p *sqliteadapter.Pool) {
	t.Helper()
	ctx := t.Context()
	_, err := p.ExecuteStatement(ctx, `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`, nil)
	require.NoError(t, err)
	_, err = p.ExecuteStatement(ctx, `CREATE TABLE posts (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		author_id INTEGER REFERENCES users(id)
	)`, nil)
	require.NoError(t, err)

	_, err = p.ExecuteStatement(ctx, `INSERT INTO users (id, name) VALUES (?, ?)`, []any{int64(1), "Alice"})
	require.NoError(t, err)
	for _, row := range []struct {
		id, author int64
		title      string
		hasAuthor  bool
	}{
		{1, 1, "P1", true},
		{2, 1, "P2", true},
		{3, 0, "P3", false},
	} {
		var authorID any
		if row.hasAuthor {
			authorID = row.author
		}
		_, err := p.ExecuteStatement(ctx, `INSERT INTO posts (id, title, author_id) VALUES (?, ?, ?)`,
			[]any{row.id, row.title, authorID})
		require.NoError(t, err)
	}
}

// TestIntegrationManyToOneJoinedLoad reproduces §8 scenario 2: a
// joined-load of Post.author yields "Alice" for P1/P2 and nil for P3's
// outer-join miss, in a single SQL statement.
func TestIntegrationManyToOneJoinedLoad(t *testing.T) {
	p := openMemorySQLite(t)
	seedUsersAndPosts(t, p)

	s := session.New(p, usersPostsRegistry(), false)
	rows, err := s.Query("Post").Options(session.Joined("author")).OrderBy("id").All(t.Context())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	author0, err := rows[0].Relationship("author")
	require.NoError(t, err)
	require.NotNil(t, author0)
	assert.Equal(t, "Alice", author0.(loader.Row)["name"])

	author2, err := rows[2].Relationship("author")
	require.NoError(t, err)
	assert.Nil(t, author2, "outer-join miss must yield nil, never a zero-valued stub")
}

// TestIntegrationOneToManySelectinLoad reproduces §8 scenario 3: a
// selectin-load of User.posts attaches both of Alice's posts in
// exactly one follow-up query.
func TestIntegrationOneToManySelectinLoad(t *testing.T) {
	p := openMemorySQLite(t)
	seedUsersAndPosts(t, p)

	s := session.New(p, usersPostsRegistry(), false)
	rows, err := s.Query("User").Options(session.Selectin("posts")).All(t.Context())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	posts, err := rows[0].Relationship("posts")
	require.NoError(t, err)
	related := posts.([]loader.Row)
	require.Len(t, related, 2)
	titles := []string{related[0]["title"].(string), related[1]["title"].(string)}
	assert.ElementsMatch(t, []string{"P1", "P2"}, titles)
}

// TestIntegrationUpsertUpdateVsInsert reproduces §8 scenario 4: an
// upsert against an existing email updates in place, an upsert against
// a new email inserts — against the real re-select-by-conflict-target
// path SQLite takes (§4.D).
func TestIntegrationUpsertUpdateVsInsert(t *testing.T) {
	p := openMemorySQLite(t)
	ctx := t.Context()

	_, err := p.ExecuteStatement(ctx, `CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL
	)`, nil)
	require.NoError(t, err)
	_, err = p.ExecuteStatement(ctx, `INSERT INTO users (name, email) VALUES (?, ?)`, []any{"Old", "a@x"})
	require.NoError(t, err)

	r := schema.NewRegistry()
	user := schema.NewEntity("User", "users")
	user.Columns = []schema.Column{
		{Name: "id", PrimaryKey: true, Autoincrement: true},
		{Name: "name"},
		{Name: "email", Unique: true},
	}
	r.Register("User", user)

	s := session.New(p, r, false)
	opts := session.UpsertOptions{ConflictTarget: []string{"email"}}

	updated, err := s.Upsert(ctx, "User", session.Row{"name": "New", "email": "a@x"}, opts)
	require.NoError(t, err)
	assert.Equal(t, "New", updated["name"])

	inserted, err := s.Upsert(ctx, "User", session.Row{"name": "B", "email": "b@x"}, opts)
	require.NoError(t, err)
	assert.Equal(t, "B", inserted["name"])

	rows, err := s.Query("User").OrderBy("email").All(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a@x", rows[0]["email"])
	assert.Equal(t, "New", rows[0]["name"])
	assert.Equal(t, "b@x", rows[1]["email"])
	assert.Equal(t, "B", rows[1]["name"])
}

// TestIntegrationSoftDeleteFilter reproduces §8 scenario 5: the
// default query excludes a soft-deleted article, with_deleted() counts
// both, and only_deleted() isolates the soft-deleted one.
func TestIntegrationSoftDeleteFilter(t *testing.T) {
	p := openMemorySQLite(t)
	ctx := t.Context()

	_, err := p.ExecuteStatement(ctx, `CREATE TABLE articles (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		deleted_at TEXT
	)`, nil)
	require.NoError(t, err)
	_, err = p.ExecuteStatement(ctx, `INSERT INTO articles (id, title) VALUES (1, 'Keep'), (2, 'Gone')`, nil)
	require.NoError(t, err)

	r := schema.NewRegistry()
	article := schema.NewEntity("Article", "articles")
	article.Columns = []schema.Column{
		{Name: "id", PrimaryKey: true},
		{Name: "title"},
		{Name: "deleted_at", Nullable: true},
	}
	article.SoftDelete = true
	article.SoftDeleteColumn = "deleted_at"
	r.Register("Article", article)

	s := session.New(p, r, false)
	require.NoError(t, s.SoftDelete(ctx, "Article", int64(2)))

	rows, err := s.Query("Article").All(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Keep", rows[0]["title"])

	count, err := s.Query("Article").WithDeleted().Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	deleted, err := s.Query("Article").OnlyDeleted().One(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Gone", deleted["title"])
}

// TestIntegrationMigrationUpDownRoundTrip reproduces §8 scenario 6
// against a real SQLite database rather than migrate's in-memory
// fake: rev=A creates table t(id,name); rev=B, down=A adds column age.
// After upgrade(head): version_num == "B", three live columns. After
// downgrade("-1"): version_num == "A", two columns. After
// downgrade("-1") again: version table empty, table t dropped.
func TestIntegrationMigrationUpDownRoundTrip(t *testing.T) {
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

	p := openMemorySQLite(t)
	ctx := t.Context()
	runner := migrate.NewRunner(p, "", silentLogger())

	require.NoError(t, runner.Upgrade(ctx, ""))
	rev, has, err := runner.CurrentRevision(ctx)
	require.NoError(t, err)
	require.True(t, has)
	assert.Equal(t, "B", rev)
	cols, err := p.GetColumns(ctx, "t")
	require.NoError(t, err)
	assert.Len(t, cols, 3)

	require.NoError(t, runner.Downgrade(ctx, "-1"))
	rev, has, err = runner.CurrentRevision(ctx)
	require.NoError(t, err)
	require.True(t, has)
	assert.Equal(t, "A", rev)
	cols, err = p.GetColumns(ctx, "t")
	require.NoError(t, err)
	assert.Len(t, cols, 2)

	require.NoError(t, runner.Downgrade(ctx, "-1"))
	_, has, err = runner.CurrentRevision(ctx)
	require.NoError(t, err)
	assert.False(t, has)
	tables, err := p.GetTables(ctx)
	require.NoError(t, err)
	assert.NotContains(t, tables, "t")
}

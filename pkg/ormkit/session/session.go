/*
Package session implements the Unit-of-Work: an identity map, pending
insert/update/delete queues, a query facade, and transaction scoping.

Grounded on the teacher's comicRepository.Create/Update transaction
idiom (comic/store_postgres.go: pool.Begin -> deferred tx.Rollback ->
Execs -> tx.Commit) and its pgx.Batch usage in updateJunction for bulk
junction writes, generalized into the flush machinery below.
*/
package session

import (
	"context"

	"github.com/alexogeny/ormkit/internal/platform/apperr"
	"github.com/alexogeny/ormkit/internal/platform/constants"
	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
	"github.com/alexogeny/ormkit/pkg/ormkit/loader"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool"
	"github.com/alexogeny/ormkit/pkg/ormkit/schema"
)

// Row is a loaded or pending entity instance, represented as a plain
// column-name-keyed map (see loader.Row doc comment for why OrmKit
// uses this shape rather than reflecting into caller structs).
type Row = loader.Row

// Session is a single unit of work against one connection pool. Not
// safe for concurrent use from multiple goroutines — one session per
// task/goroutine, per §5.
type Session struct {
	pool     pool.ConnectionPool
	registry *schema.Registry
	dialect  dialect.Dialect

	identity *identityMap

	pendingNew    map[string][]Row
	pendingDirty  map[string][]pendingUpdate
	pendingDelete map[string][]any

	autoflush bool
}

type pendingUpdate struct {
	pk  any
	row Row
}

// New constructs a Session against p using registry for entity
// metadata. autoflush is stored on the session, but no query operation
// reads it: staged work is written only by Flush or Commit.
func New(p pool.ConnectionPool, registry *schema.Registry, autoflush bool) *Session {
	d := dialect.Postgres
	if !p.IsPostgres() {
		d = dialect.SQLite
	}
	return &Session{
		pool:          p,
		registry:      registry,
		dialect:       d,
		identity:      newIdentityMap(),
		pendingNew:    map[string][]Row{},
		pendingDirty:  map[string][]pendingUpdate{},
		pendingDelete: map[string][]any{},
		autoflush:     autoflush,
	}
}

// Insert stages a new row for entityName (fluent, canonical form —
// §4.D, Open Questions #1).
func (s *Session) Insert(entityName string, row Row) {
	s.pendingNew[entityName] = append(s.pendingNew[entityName], row)
}

// Add is a thin traditional-interface adapter over Insert, kept so
// existing Add/Commit call-site idioms work without a second
// implementation (§4.D, Open Questions #1).
func (s *Session) Add(entityName string, row Row) {
	s.Insert(entityName, row)
}

// MarkDirty stages row (identified by pk) for an update flush.
func (s *Session) MarkDirty(entityName string, pk any, row Row) {
	s.pendingDirty[entityName] = append(s.pendingDirty[entityName], pendingUpdate{pk: pk, row: row})
}

// MarkDeleted stages pk for deletion.
func (s *Session) MarkDeleted(entityName string, pk any) {
	s.pendingDelete[entityName] = append(s.pendingDelete[entityName], pk)
}

// Get consults the identity map first, falling back to a single-row
// query by primary key on miss.
func (s *Session) Get(ctx context.Context, entityName string, pk any) (Row, error) {
	if row, ok := s.identity.get(entityName, pk); ok {
		return row, nil
	}

	entity, err := s.registry.Resolve(entityName)
	if err != nil {
		return nil, err
	}
	pkCol := entity.PrimaryKey()
	if pkCol == "" {
		return nil, schema.ErrNoPrimaryKey(entityName)
	}

	q := s.Query(entityName).Filter(pkCol, "eq", pk)
	row, found, err := q.OneOrNone(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.NotFound(entityName)
	}
	s.identity.put(entityName, pk, row)
	return row, nil
}

// Invalidate forces the next Get for (entityName, pk) to refetch
// rather than returning a cached identity-map row. Bulk operations
// (Query.Update) bypass the identity map entirely since they act on a
// predicate rather than named instances, so staleness is possible by
// design (§9 Open Questions #2); this is the escape hatch.
func (s *Session) Invalidate(entityName string, pk any) {
	s.identity.invalidate(entityName, pk)
}

// Commit is the traditional-interface counterpart to Add: it flushes
// every staged insert/update/delete in one transaction.
func (s *Session) Commit(ctx context.Context) error {
	return s.Flush(ctx)
}

// Rollback clears every pending queue without touching the database
// (per §5, "Session.Rollback() clears pending queues").
func (s *Session) Rollback() {
	s.pendingNew = map[string][]Row{}
	s.pendingDirty = map[string][]pendingUpdate{}
	s.pendingDelete = map[string][]any{}
}

// Dialect reports the dialect this session's pool speaks.
func (s *Session) Dialect() dialect.Dialect { return s.dialect }

// Pool exposes the underlying connection pool for callers that need
// it directly (e.g. the migration runner sharing a session's pool).
func (s *Session) Pool() pool.ConnectionPool { return s.pool }

// maxBatchRows returns the session dialect's parameter-count-derived
// batch size clamp for a row with the given column count (§4.D).
func (s *Session) maxBatchRows(columnsPerRow int) int {
	if columnsPerRow == 0 {
		columnsPerRow = 1
	}
	cap := constants.PostgresMaxParams
	if s.dialect == dialect.SQLite {
		cap = constants.SQLiteBatchSafetyMargin
	}
	n := cap / columnsPerRow
	if n < 1 {
		n = 1
	}
	return n
}

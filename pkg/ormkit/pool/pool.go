/*
Package pool defines the narrow ConnectionPool capability the OrmKit
core consumes. It specifies the contract only — the concrete wire
driver (connection opening, protocol framing) lives in
internal/platform/pgxadapter and internal/platform/sqliteadapter, never
here (spec.md §1, "the core consumes a narrow ConnectionPool
capability").

Every suspension point named in spec.md §5 is a method on one of the
interfaces in this package: ConnectionPool.Execute and its statement
variants, Tx acquire/release, and the four introspection calls.
*/
package pool

import "context"

// ConnectionPool is the capability the OrmKit core requires of a
// database driver. Implementations must be safe for concurrent use by
// multiple sessions (spec.md §5, "the connection pool is shared across
// sessions").
type ConnectionPool interface {
	// Execute runs a statement and returns a cursor over its result.
	Execute(ctx context.Context, sql string, params []any) (QueryResult, error)

	// ExecuteStatement runs a statement and returns only the number of
	// affected rows — the fire-and-forget form used for DDL and bulk
	// writes that do not need row data back.
	ExecuteStatement(ctx context.Context, sql string, params []any) (int64, error)

	// Transaction opens a new transaction scope.
	Transaction(ctx context.Context) (Tx, error)

	// IsPostgres reports the dialect discriminator for this pool.
	IsPostgres() bool

	// Close tears down the pool.
	Close() error

	Introspector
}

// Tx is a single database transaction. Commit or Rollback must be
// called exactly once; a transaction left open when its owning
// context is canceled is the caller's responsibility to roll back.
type Tx interface {
	ConnectionPool
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Introspector exposes read-only schema introspection used by the
// migration engine's autogen diff (spec.md §4.E, §9 "Schema
// introspection").
type Introspector interface {
	GetTables(ctx context.Context) ([]string, error)
	GetColumns(ctx context.Context, table string) ([]ColumnInfo, error)
	GetIndexes(ctx context.Context, table string) ([]IndexInfo, error)
	GetConstraints(ctx context.Context, table string) ([]ConstraintInfo, error)
}

// ColumnInfo describes a single live column as reported by the driver.
type ColumnInfo struct {
	Name         string
	Type         string
	Nullable     bool
	DefaultValue *string
}

// IndexInfo describes a live index, matched by column set (not by
// name) during autogen diffing.
type IndexInfo struct {
	Name    string
	Columns []string
	Unique  bool
}

// ConstraintInfo describes a live constraint (primary key, foreign
// key, unique, or check).
type ConstraintInfo struct {
	Name       string
	Kind       string // "primary_key", "foreign_key", "unique", "check"
	Columns    []string
	RefTable   string
	RefColumns []string
}

// QueryResult is the cursor returned by Execute. Row-shaped accessors
// hydrate into the caller's target via reflection-free scan functions
// supplied by the session/loader layer. There is no model-mapping
// accessor (no ToModel/ToModels).
type QueryResult interface {
	// RowCount returns the number of rows affected by a write, or -1
	// for a read whose count is not yet known.
	RowCount() int64

	// First scans the first row into dest (a slice of pointers, one per
	// selected column) and reports whether a row was present.
	First(ctx context.Context, dest []any) (bool, error)

	// All scans every remaining row, calling scan(dest) once per row.
	// scan must populate dest before returning.
	All(ctx context.Context, newDest func() []any, scan func([]any) error) error

	// One scans exactly one row, erroring if the result set size is not
	// exactly one (spec.md §7, "Not-found: one() when the result set
	// size != 1").
	One(ctx context.Context, dest []any) error

	// OneOrNone scans at most one row, erroring only if more than one
	// row is present.
	OneOrNone(ctx context.Context, dest []any) (bool, error)

	// Column scans the column at position index across all rows.
	Column(ctx context.Context, index int, scan func(any) error) error

	// Close releases cursor resources. Safe to call multiple times.
	Close() error
}

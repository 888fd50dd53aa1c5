// Package constants holds the shared tuning values referenced by the
// connection pool adapters and session batching logic. Generalized
// from the teacher's internal/platform/constants package.
package constants

import "time"

const (
	// GlobalStatementTimeout is applied per-connection on PostgreSQL via
	// AfterConnect, mirroring the teacher's postgres pool setup.
	GlobalStatementTimeout = 30 * time.Second

	// SQLiteMaxParams is SQLite's compiled-in bind-parameter ceiling
	// (SQLITE_MAX_VARIABLE_NUMBER's conservative default). The session
	// insert-flush batcher clamps batch size against this.
	SQLiteMaxParams = 999

	// SQLiteBatchSafetyMargin reserves headroom below SQLiteMaxParams
	// (spec.md §4.D: "clamps batch size to floor(900/columns-per-row)").
	SQLiteBatchSafetyMargin = 900

	// PostgresMaxParams is the bind-parameter budget the session divides
	// by the column count to size a PostgreSQL insert batch; it sits well
	// below PostgreSQL's own protocol limit of 65535 (spec.md §4.D).
	PostgresMaxParams = 30000

	// DefaultVersionTable is the default migration version-tracking
	// table name (spec.md §3, §6).
	DefaultVersionTable = "alembic_version"

	// DefaultStreamBatchSize is the default window size for
	// Query.Stream when the caller does not specify one.
	DefaultStreamBatchSize = 500
)

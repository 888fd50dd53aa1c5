/*
Package sqliteadapter implements [pool.ConnectionPool] over
database/sql using the pure-Go, cgo-free github.com/ncruces/go-sqlite3
driver, giving OrmKit a concrete SQLite backend for local development
and the in-memory sessions spec.md §8's end-to-end scenarios run
against.

Grounded on the sqlite3/driver + sqlite3/embed wiring pattern used
throughout the example pack's SQLite storage layer (blank-imported
driver registration, sql.Open("sqlite3", dsn) with _pragma query
parameters for foreign_keys and busy_timeout).
*/
package sqliteadapter

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/alexogeny/ormkit/internal/platform/dberr"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool"
)

// Pool wraps a *sql.DB so it satisfies [pool.ConnectionPool].
type Pool struct {
	db *sql.DB
}

// Open opens dsn (a path, "file::memory:", or "file:name?..." URI)
// through the registered sqlite3 driver, enabling foreign-key
// enforcement and a busy timeout so concurrent writers back off
// instead of returning SQLITE_BUSY immediately.
func Open(ctx context.Context, dsn string) (*Pool, error) {
	connStr := dsn
	if connStr == "" {
		connStr = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite3", connStr+pragmaSuffix(connStr))
	if err != nil {
		return nil, fmt.Errorf("sqliteadapter: open failed: %w", err)
	}
	// SQLite serializes writers at the file level; a single physical
	// connection avoids spurious SQLITE_BUSY under the pool's default
	// multi-connection assumption.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqliteadapter: ping failed: %w", err)
	}
	return &Pool{db: db}, nil
}

func pragmaSuffix(dsn string) string {
	sep := "?"
	for _, r := range dsn {
		if r == '?' {
			sep = "&"
			break
		}
	}
	return sep + "_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
}

func (p *Pool) IsPostgres() bool { return false }

func (p *Pool) Close() error { return p.db.Close() }

func (p *Pool) Execute(ctx context.Context, sqlText string, params []any) (pool.QueryResult, error) {
	rows, err := p.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, dberr.Wrap(err, "execute")
	}
	return &rowsResult{rows: rows}, nil
}

func (p *Pool) ExecuteStatement(ctx context.Context, sqlText string, params []any) (int64, error) {
	res, err := p.db.ExecContext(ctx, sqlText, params...)
	if err != nil {
		return 0, dberr.Wrap(err, "execute statement")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dberr.Wrap(err, "read rows affected")
	}
	return n, nil
}

func (p *Pool) Transaction(ctx context.Context) (pool.Tx, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, dberr.Wrap(err, "begin transaction")
	}
	return &txWrapper{tx: tx}, nil
}

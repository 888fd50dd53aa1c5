package sqliteadapter

import (
	"context"
	"database/sql"

	"github.com/alexogeny/ormkit/internal/platform/dberr"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool"
)

// txWrapper adapts a *sql.Tx to [pool.Tx].
type txWrapper struct {
	tx *sql.Tx
}

func (t *txWrapper) IsPostgres() bool { return false }

func (t *txWrapper) Close() error { return nil }

func (t *txWrapper) Commit(ctx context.Context) error {
	return dberr.Wrap(t.tx.Commit(), "commit transaction")
}

func (t *txWrapper) Rollback(ctx context.Context) error {
	return dberr.Wrap(t.tx.Rollback(), "rollback transaction")
}

func (t *txWrapper) Execute(ctx context.Context, sqlText string, params []any) (pool.QueryResult, error) {
	rows, err := t.tx.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, dberr.Wrap(err, "execute")
	}
	return &rowsResult{rows: rows}, nil
}

func (t *txWrapper) ExecuteStatement(ctx context.Context, sqlText string, params []any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, sqlText, params...)
	if err != nil {
		return 0, dberr.Wrap(err, "execute statement")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dberr.Wrap(err, "read rows affected")
	}
	return n, nil
}

// Transaction opens a SQLite SAVEPOINT as a nested transaction scope.
func (t *txWrapper) Transaction(ctx context.Context) (pool.Tx, error) {
	name := "ormkit_sp"
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return nil, dberr.Wrap(err, "begin savepoint")
	}
	return &savepointWrapper{tx: t.tx, name: name}, nil
}

// savepointWrapper is a nested transaction scope implemented as a
// SQLite SAVEPOINT, since database/sql's *sql.Tx has no native nested
// Begin.
type savepointWrapper struct {
	tx   *sql.Tx
	name string
}

func (s *savepointWrapper) IsPostgres() bool { return false }
func (s *savepointWrapper) Close() error     { return nil }

func (s *savepointWrapper) Commit(ctx context.Context) error {
	_, err := s.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+s.name)
	return dberr.Wrap(err, "release savepoint")
}

func (s *savepointWrapper) Rollback(ctx context.Context) error {
	_, err := s.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+s.name)
	return dberr.Wrap(err, "rollback savepoint")
}

func (s *savepointWrapper) Execute(ctx context.Context, sqlText string, params []any) (pool.QueryResult, error) {
	rows, err := s.tx.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, dberr.Wrap(err, "execute")
	}
	return &rowsResult{rows: rows}, nil
}

func (s *savepointWrapper) ExecuteStatement(ctx context.Context, sqlText string, params []any) (int64, error) {
	res, err := s.tx.ExecContext(ctx, sqlText, params...)
	if err != nil {
		return 0, dberr.Wrap(err, "execute statement")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dberr.Wrap(err, "read rows affected")
	}
	return n, nil
}

func (s *savepointWrapper) Transaction(ctx context.Context) (pool.Tx, error) {
	name := s.name + "n"
	if _, err := s.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return nil, dberr.Wrap(err, "begin nested savepoint")
	}
	return &savepointWrapper{tx: s.tx, name: name}, nil
}

func (s *savepointWrapper) GetTables(ctx context.Context) ([]string, error) {
	return getTables(ctx, s.tx)
}
func (s *savepointWrapper) GetColumns(ctx context.Context, table string) ([]pool.ColumnInfo, error) {
	return getColumns(ctx, s.tx, table)
}
func (s *savepointWrapper) GetIndexes(ctx context.Context, table string) ([]pool.IndexInfo, error) {
	return getIndexes(ctx, s.tx, table)
}
func (s *savepointWrapper) GetConstraints(ctx context.Context, table string) ([]pool.ConstraintInfo, error) {
	return getConstraints(ctx, s.tx, table)
}

func (t *txWrapper) GetTables(ctx context.Context) ([]string, error) {
	return getTables(ctx, t.tx)
}
func (t *txWrapper) GetColumns(ctx context.Context, table string) ([]pool.ColumnInfo, error) {
	return getColumns(ctx, t.tx, table)
}
func (t *txWrapper) GetIndexes(ctx context.Context, table string) ([]pool.IndexInfo, error) {
	return getIndexes(ctx, t.tx, table)
}
func (t *txWrapper) GetConstraints(ctx context.Context, table string) ([]pool.ConstraintInfo, error) {
	return getConstraints(ctx, t.tx, table)
}

/*
Package fixture provides a map-backed fake [pool.ConnectionPool] for
tests that need a ConnectionPool without a live database — e.g. the
migration autogen diff tests that supply canned introspection results,
or loader tests that script fixed result sets per SQL statement.
*/
package fixture

import (
	"context"
	"strings"

	"github.com/alexogeny/ormkit/internal/platform/apperr"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool"
)

// Responder returns the columns and rows to answer a query whose SQL
// text contains a registered substring. Responders are matched in
// registration order; the first match wins.
type Responder struct {
	Match   string
	Columns []string
	Rows    [][]any
}

// Pool is a fake [pool.ConnectionPool] driven entirely by registered
// Responders and introspection fixtures.
type Pool struct {
	Postgres    bool
	Responders  []Responder
	Tables      []string
	Columns     map[string][]pool.ColumnInfo
	Indexes     map[string][]pool.IndexInfo
	Constraints map[string][]pool.ConstraintInfo

	Executed []string
}

func (p *Pool) IsPostgres() bool { return p.Postgres }
func (p *Pool) Close() error     { return nil }

func (p *Pool) Execute(ctx context.Context, sql string, params []any) (pool.QueryResult, error) {
	p.Executed = append(p.Executed, sql)
	for _, r := range p.Responders {
		if strings.Contains(sql, r.Match) {
			return &result{columns: r.Columns, rows: r.Rows}, nil
		}
	}
	return &result{}, nil
}

func (p *Pool) ExecuteStatement(ctx context.Context, sql string, params []any) (int64, error) {
	p.Executed = append(p.Executed, sql)
	return 0, nil
}

func (p *Pool) Transaction(ctx context.Context) (pool.Tx, error) {
	return &tx{Pool: p}, nil
}

func (p *Pool) GetTables(ctx context.Context) ([]string, error) { return p.Tables, nil }
func (p *Pool) GetColumns(ctx context.Context, table string) ([]pool.ColumnInfo, error) {
	return p.Columns[table], nil
}
func (p *Pool) GetIndexes(ctx context.Context, table string) ([]pool.IndexInfo, error) {
	return p.Indexes[table], nil
}
func (p *Pool) GetConstraints(ctx context.Context, table string) ([]pool.ConstraintInfo, error) {
	return p.Constraints[table], nil
}

type tx struct {
	*Pool
}

func (t *tx) Commit(ctx context.Context) error   { return nil }
func (t *tx) Rollback(ctx context.Context) error { return nil }

type result struct {
	columns []string
	rows    [][]any
	pos     int
}

func (r *result) RowCount() int64 { return int64(len(r.rows)) }

func (r *result) First(ctx context.Context, dest []any) (bool, error) {
	if len(r.rows) == 0 {
		return false, nil
	}
	copyInto(dest, r.rows[0])
	return true, nil
}

func (r *result) All(ctx context.Context, newDest func() []any, scan func([]any) error) error {
	for _, row := range r.rows {
		dest := newDest()
		copyInto(dest, row)
		if err := scan(dest); err != nil {
			return err
		}
	}
	return nil
}

func (r *result) One(ctx context.Context, dest []any) error {
	if len(r.rows) != 1 {
		return apperr.NotFound("row")
	}
	copyInto(dest, r.rows[0])
	return nil
}

func (r *result) OneOrNone(ctx context.Context, dest []any) (bool, error) {
	if len(r.rows) == 0 {
		return false, nil
	}
	if len(r.rows) > 1 {
		return false, apperr.QueryConstruction("one_or_none(): more than one row")
	}
	copyInto(dest, r.rows[0])
	return true, nil
}

func (r *result) Column(ctx context.Context, index int, scan func(any) error) error {
	for _, row := range r.rows {
		if index >= len(row) {
			continue
		}
		if err := scan(row[index]); err != nil {
			return err
		}
	}
	return nil
}

func (r *result) Close() error { return nil }

func copyInto(dest []any, src []any) {
	for i := range dest {
		if i >= len(src) {
			break
		}
		if ptr, ok := dest[i].(*any); ok {
			*ptr = src[i]
		}
	}
}

package sqliteadapter

import (
	"context"
	"database/sql"
	"errors"

	"github.com/alexogeny/ormkit/internal/platform/apperr"
	"github.com/alexogeny/ormkit/internal/platform/dberr"
)

var errColumnOutOfRange = errors.New("sqliteadapter: column index out of range")

// rowsResult adapts *sql.Rows to [pool.QueryResult].
type rowsResult struct {
	rows *sql.Rows
}

func (r *rowsResult) RowCount() int64 { return -1 }

func (r *rowsResult) First(ctx context.Context, dest []any) (bool, error) {
	defer r.rows.Close()
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return false, dberr.Wrap(err, "scan first row")
		}
		return false, nil
	}
	if err := r.rows.Scan(dest...); err != nil {
		return false, dberr.Wrap(err, "scan first row")
	}
	return true, nil
}

func (r *rowsResult) All(ctx context.Context, newDest func() []any, scan func([]any) error) error {
	defer r.rows.Close()
	for r.rows.Next() {
		dest := newDest()
		if err := r.rows.Scan(dest...); err != nil {
			return dberr.Wrap(err, "scan row")
		}
		if err := scan(dest); err != nil {
			return err
		}
	}
	return dberr.Wrap(r.rows.Err(), "iterate rows")
}

func (r *rowsResult) One(ctx context.Context, dest []any) error {
	defer r.rows.Close()
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return dberr.Wrap(err, "scan one row")
		}
		return apperr.NotFound("row")
	}
	if err := r.rows.Scan(dest...); err != nil {
		return dberr.Wrap(err, "scan one row")
	}
	if r.rows.Next() {
		return apperr.QueryConstruction("one(): result set has more than one row")
	}
	return dberr.Wrap(r.rows.Err(), "scan one row")
}

func (r *rowsResult) OneOrNone(ctx context.Context, dest []any) (bool, error) {
	defer r.rows.Close()
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return false, dberr.Wrap(err, "scan one-or-none row")
		}
		return false, nil
	}
	if err := r.rows.Scan(dest...); err != nil {
		return false, dberr.Wrap(err, "scan one-or-none row")
	}
	if r.rows.Next() {
		return false, apperr.QueryConstruction("one_or_none(): result set has more than one row")
	}
	return true, dberr.Wrap(r.rows.Err(), "scan one-or-none row")
}

func (r *rowsResult) Column(ctx context.Context, index int, scan func(any) error) error {
	defer r.rows.Close()
	cols, err := r.rows.Columns()
	if err != nil {
		return dberr.Wrap(err, "read columns")
	}
	if index >= len(cols) {
		return errColumnOutOfRange
	}
	for r.rows.Next() {
		dest := make([]any, len(cols))
		vals := make([]any, len(cols))
		for i := range dest {
			dest[i] = &vals[i]
		}
		if err := r.rows.Scan(dest...); err != nil {
			return dberr.Wrap(err, "scan column")
		}
		if err := scan(vals[index]); err != nil {
			return err
		}
	}
	return dberr.Wrap(r.rows.Err(), "iterate column")
}

func (r *rowsResult) Close() error { return r.rows.Close() }

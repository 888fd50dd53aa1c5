package pgxadapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/alexogeny/ormkit/internal/platform/apperr"
	"github.com/alexogeny/ormkit/internal/platform/dberr"
)

var errColumnOutOfRange = errors.New("pgxadapter: column index out of range")

// rowsResult adapts pgx.Rows to [pool.QueryResult].
type rowsResult struct {
	rows pgx.Rows
}

func (r *rowsResult) RowCount() int64 {
	return r.rows.CommandTag().RowsAffected()
}

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
	for r.rows.Next() {
		vals, err := r.rows.Values()
		if err != nil {
			return dberr.Wrap(err, "scan column")
		}
		if index >= len(vals) {
			return errColumnOutOfRange
		}
		if err := scan(vals[index]); err != nil {
			return err
		}
	}
	return dberr.Wrap(r.rows.Err(), "iterate column")
}

func (r *rowsResult) Close() error {
	r.rows.Close()
	return nil
}

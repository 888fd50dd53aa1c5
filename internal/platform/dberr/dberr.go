/*
Package dberr bridges low-level driver errors into [apperr.Error]
values.

It generalizes the teacher's dberr package (internal/platform/dberr in
taibuivan/yomira), whose own comment on its Wrap function flags the
gap this package closes: "Real implementation would also check the
Postgres SQLSTATE (e.g. 23505 for unique violation)". SPEC_FULL.md §7
calls this out explicitly, since spec.md §7's "Integrity error" kind
is only actionable once it is actually classified.
*/
package dberr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/alexogeny/ormkit/internal/platform/apperr"
)

// PostgreSQL SQLSTATE codes this package classifies.
const (
	sqlstateUniqueViolation     = "23505"
	sqlstateForeignKeyViolation = "23503"
	sqlstateNotNullViolation    = "23502"
	sqlstateCheckViolation      = "23514"
)

// ErrNoRows is the driver-agnostic "no rows" sentinel; Wrap classifies
// it as not-found. The adapters in this module do not map their native
// no-rows errors (pgx.ErrNoRows, sql.ErrNoRows) to it.
var ErrNoRows = errors.New("ormkit: no rows in result set")

// Wrap classifies err into an [*apperr.Error]. action names the
// operation for the message (e.g. "insert user", "flush comic").
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrNoRows) {
		return apperr.NotFound(action)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateUniqueViolation:
			return apperr.Integrity(action+": unique constraint violation ("+pgErr.ConstraintName+")", err)
		case sqlstateForeignKeyViolation:
			return apperr.Integrity(action+": foreign key violation ("+pgErr.ConstraintName+")", err)
		case sqlstateNotNullViolation:
			return apperr.Integrity(action+": not-null violation ("+pgErr.ColumnName+")", err)
		case sqlstateCheckViolation:
			return apperr.Integrity(action+": check constraint violation ("+pgErr.ConstraintName+")", err)
		}
		return apperr.Integrity(action+": "+pgErr.Message, err)
	}

	// SQLite's driver reports constraint violations as plain error
	// strings rather than a typed error; classify by substring since
	// that is the only signal the driver exposes.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return apperr.Integrity(action+": unique constraint violation", err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return apperr.Integrity(action+": foreign key violation", err)
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return apperr.Integrity(action+": not-null violation", err)
	case strings.Contains(msg, "CHECK constraint failed"):
		return apperr.Integrity(action+": check constraint violation", err)
	}

	return apperr.Internal(err)
}

package pgxadapter

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/alexogeny/ormkit/internal/platform/dberr"
)

// txWrapper adapts a pgx.Tx to [pool.Tx].
type txWrapper struct {
	conn
	tx pgx.Tx
}

func (t *txWrapper) Commit(ctx context.Context) error {
	return dberr.Wrap(t.tx.Commit(ctx), "commit transaction")
}

func (t *txWrapper) Rollback(ctx context.Context) error {
	return dberr.Wrap(t.tx.Rollback(ctx), "rollback transaction")
}

// Close is a no-op; callers must explicitly Commit or Rollback a
// transaction scope rather than relying on Close to decide its fate.
func (t *txWrapper) Close() error { return nil }

/*
Package pgxadapter implements [pool.ConnectionPool] over
github.com/jackc/pgx/v5's pgxpool, giving OrmKit a concrete PostgreSQL
driver.

It generalizes the teacher's internal/platform/postgres package (pool
tuning constants, AfterConnect statement-timeout hook, Ping-on-startup
validation) into the narrower [pool.ConnectionPool] capability the core
packages (schema, sqlbuilder, loader, session, migrate) consume.
*/
package pgxadapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alexogeny/ormkit/internal/platform/constants"
	"github.com/alexogeny/ormkit/internal/platform/dberr"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool"
)

// Opinionated pool settings, carried over from the teacher's postgres
// package.
const (
	maxConns          = 25
	minConns          = 5
	maxConnLifetime   = 60 * time.Minute
	maxConnIdleTime   = 10 * time.Minute
	healthCheckPeriod = 1 * time.Minute
	connectTimeout    = 5 * time.Second
	pingTimeout       = 2 * time.Second
)

// rawConn is the subset of *pgxpool.Pool and pgx.Tx this package
// drives; sharing it lets Pool and txWrapper reuse the same query
// logic regardless of whether they sit atop the pool or a transaction.
type rawConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// conn is the shared implementation embedded by both Pool and
// txWrapper.
type conn struct {
	raw rawConn
}

func (c conn) Execute(ctx context.Context, sql string, params []any) (pool.QueryResult, error) {
	rows, err := c.raw.Query(ctx, sql, params...)
	if err != nil {
		return nil, dberr.Wrap(err, "execute")
	}
	return &rowsResult{rows: rows}, nil
}

func (c conn) ExecuteStatement(ctx context.Context, sql string, params []any) (int64, error) {
	tag, err := c.raw.Exec(ctx, sql, params...)
	if err != nil {
		return 0, dberr.Wrap(err, "execute statement")
	}
	return tag.RowsAffected(), nil
}

func (c conn) Transaction(ctx context.Context) (pool.Tx, error) {
	tx, err := c.raw.Begin(ctx)
	if err != nil {
		return nil, dberr.Wrap(err, "begin transaction")
	}
	return &txWrapper{conn: conn{raw: txRawConn{tx}}, tx: tx}, nil
}

func (c conn) IsPostgres() bool { return true }

// txRawConn adapts pgx.Tx (whose Exec/Query/Begin signatures already
// match rawConn) so a transaction can itself open nested transactions
// (savepoints) through the same conn plumbing.
type txRawConn struct{ tx pgx.Tx }

func (t txRawConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}
func (t txRawConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.tx.Exec(ctx, sql, args...)
}
func (t txRawConn) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.tx.Begin(ctx)
}

// Pool wraps a *pgxpool.Pool so it satisfies [pool.ConnectionPool].
type Pool struct {
	conn
	inner *pgxpool.Pool
}

// Open parses dsn, applies the tuning constants, establishes the pool,
// and verifies connectivity with a bounded ping before returning.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxadapter: invalid DSN: %w", err)
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnLifetime = maxConnLifetime
	cfg.MaxConnIdleTime = maxConnIdleTime
	cfg.HealthCheckPeriod = healthCheckPeriod
	cfg.ConnConfig.ConnectTimeout = connectTimeout

	cfg.AfterConnect = func(ctx context.Context, c *pgx.Conn) error {
		stmt := fmt.Sprintf("SET statement_timeout = '%ds'", int(constants.GlobalStatementTimeout.Seconds()))
		_, err := c.Exec(ctx, stmt)
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	raw, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxadapter: failed to create pool: %w", err)
	}

	p := &Pool{inner: raw}
	p.conn = conn{raw: poolRawConn{raw}}

	if err := p.ping(ctx); err != nil {
		raw.Close()
		return nil, err
	}

	if logger != nil {
		stats := raw.Stat()
		logger.Info("postgres pool connected",
			slog.Int("max_conns", int(stats.MaxConns())),
			slog.Int("total_conns", int(stats.TotalConns())),
		)
	}

	return p, nil
}

// poolRawConn adapts *pgxpool.Pool to rawConn.
type poolRawConn struct{ pool *pgxpool.Pool }

func (p poolRawConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}
func (p poolRawConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}
func (p poolRawConn) Begin(ctx context.Context) (pgx.Tx, error) {
	return p.pool.Begin(ctx)
}

func (p *Pool) ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := p.inner.Ping(pingCtx); err != nil {
		return fmt.Errorf("pgxadapter: ping failed: %w", err)
	}
	return nil
}

func (p *Pool) Close() error {
	p.inner.Close()
	return nil
}

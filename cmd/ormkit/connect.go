package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/alexogeny/ormkit/internal/platform/apperr"
	"github.com/alexogeny/ormkit/internal/platform/pgxadapter"
	"github.com/alexogeny/ormkit/internal/platform/sqliteadapter"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool"
)

// openPool dispatches a connection URL to the PostgreSQL or SQLite
// adapter by scheme (spec.md §6: "postgresql://...", "sqlite://path",
// "sqlite::memory:"). ":memory:" alone is tolerated as a synonym for
// "sqlite::memory:".
func openPool(ctx context.Context, url string, logger *slog.Logger) (pool.ConnectionPool, error) {
	switch {
	case strings.HasPrefix(url, "postgresql://"), strings.HasPrefix(url, "postgres://"):
		return pgxadapter.Open(ctx, url, logger)
	case strings.HasPrefix(url, "sqlite://"):
		return sqliteadapter.Open(ctx, strings.TrimPrefix(url, "sqlite://"))
	case strings.HasPrefix(url, "sqlite::memory:"):
		return sqliteadapter.Open(ctx, "file::memory:?cache=shared")
	case url == ":memory:":
		return sqliteadapter.Open(ctx, "file::memory:?cache=shared")
	case url == "":
		return nil, apperr.Configuration("no database URL configured (--url or sqlalchemy.url)")
	default:
		return nil, apperr.Configuration("unrecognized database URL scheme: " + url)
	}
}

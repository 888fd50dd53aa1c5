package migrate

import (
	"context"
	"fmt"

	"github.com/alexogeny/ormkit/internal/platform/apperr"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool"
)

// VersionTable wraps the single-row revision-tracking table (spec.md
// §3, §6): "version_num VARCHAR(32) PRIMARY KEY", zero or one row.
type VersionTable struct {
	Name string
	pool pool.ConnectionPool
}

// NewVersionTable constructs a VersionTable bound to p, using name
// (or constants.DefaultVersionTable when name is empty).
func NewVersionTable(p pool.ConnectionPool, name string) *VersionTable {
	if name == "" {
		name = "alembic_version"
	}
	return &VersionTable{Name: name, pool: p}
}

// Ensure creates the version table if it does not already exist.
func (v *VersionTable) Ensure(ctx context.Context) error {
	sql := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (version_num VARCHAR(32) PRIMARY KEY)`, quoteIdent(v.Name))
	_, err := v.pool.ExecuteStatement(ctx, sql, nil)
	if err != nil {
		return apperr.Migration("failed to ensure version table", err)
	}
	return nil
}

// Current returns the stored revision, or ("", false) when the table
// is empty.
func (v *VersionTable) Current(ctx context.Context) (string, bool, error) {
	sql := fmt.Sprintf(`SELECT version_num FROM %s`, quoteIdent(v.Name))
	res, err := v.pool.Execute(ctx, sql, nil)
	if err != nil {
		return "", false, apperr.Migration("failed to read version table", err)
	}
	defer res.Close()

	var rev any
	found, err := res.First(ctx, []any{&rev})
	if err != nil {
		return "", false, apperr.Migration("failed to read version table", err)
	}
	if !found {
		return "", false, nil
	}
	s, _ := rev.(string)
	return s, true, nil
}

// Set overwrites the version table's single row with rev (spec.md
// §6: exactly zero or one row).
func (v *VersionTable) Set(ctx context.Context, rev string) error {
	del := fmt.Sprintf(`DELETE FROM %s`, quoteIdent(v.Name))
	if _, err := v.pool.ExecuteStatement(ctx, del, nil); err != nil {
		return apperr.Migration("failed to clear version table", err)
	}
	ins := fmt.Sprintf(`INSERT INTO %s (version_num) VALUES (%s)`, quoteIdent(v.Name), placeholder(v.pool, 1))
	if _, err := v.pool.ExecuteStatement(ctx, ins, []any{rev}); err != nil {
		return apperr.Migration("failed to write version table", err)
	}
	return nil
}

// Clear empties the version table (full downgrade, spec.md §3
// invariant: "after full downgrade, the table is empty").
func (v *VersionTable) Clear(ctx context.Context) error {
	del := fmt.Sprintf(`DELETE FROM %s`, quoteIdent(v.Name))
	if _, err := v.pool.ExecuteStatement(ctx, del, nil); err != nil {
		return apperr.Migration("failed to clear version table", err)
	}
	return nil
}

func placeholder(p pool.ConnectionPool, n int) string {
	if p.IsPostgres() {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

package migrate_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/alexogeny/ormkit/pkg/ormkit/pool"
)

// memPool is a minimal in-memory fake of pool.ConnectionPool that
// actually applies the operation IR's rendered SQL, so migration
// round-trip tests (§8: "executing upgrade(m) then downgrade(m)
// returns the live schema to its prior state") can assert on real
// before/after column sets rather than just "no error was returned".
// It understands exactly the statement shapes this package's own
// operations.go/version.go emit — it is not a general SQL engine.
type memPool struct {
	postgres bool
	tables   map[string][]string // table -> ordered column names
	version  []string            // 0 or 1 entries
}

func newMemoryPool() *memPool {
	return &memPool{tables: map[string][]string{}}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (p *memPool) IsPostgres() bool { return p.postgres }
func (p *memPool) Close() error     { return nil }

var (
	reCreateTable  = regexp.MustCompile(`(?s)^CREATE TABLE "?([\w.]+)"? \((.*)\)$`)
	reCreateVerTbl = regexp.MustCompile(`^CREATE TABLE IF NOT EXISTS "?([\w.]+)"? \(version_num`)
	reDropTable    = regexp.MustCompile(`^DROP TABLE "?([\w.]+)"?$`)
	reAddColumn    = regexp.MustCompile(`^ALTER TABLE "?([\w.]+)"? ADD COLUMN "?([\w.]+)"?`)
	reDropColumn   = regexp.MustCompile(`^ALTER TABLE "?([\w.]+)"? DROP COLUMN "?([\w.]+)"?$`)
	reDeleteFrom   = regexp.MustCompile(`^DELETE FROM "?([\w.]+)"?$`)
	reInsertVer    = regexp.MustCompile(`^INSERT INTO "?([\w.]+)"? \(version_num\) VALUES`)
	reSelectVer    = regexp.MustCompile(`^SELECT version_num FROM "?([\w.]+)"?$`)
)

func (p *memPool) ExecuteStatement(ctx context.Context, sql string, params []any) (int64, error) {
	sql = strings.TrimSpace(sql)

	switch {
	case sql == "INTENTIONAL FAILURE":
		return 0, errors.New("intentional test failure")
	case reCreateVerTbl.MatchString(sql):
		m := reCreateVerTbl.FindStringSubmatch(sql)
		if _, ok := p.tables[m[1]]; !ok {
			p.tables[m[1]] = []string{"version_num"}
		}
		return 0, nil
	case reCreateTable.MatchString(sql):
		m := reCreateTable.FindStringSubmatch(sql)
		table, body := m[1], m[2]
		var cols []string
		for _, line := range strings.Split(body, ",\n") {
			line = strings.TrimSpace(line)
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			cols = append(cols, strings.Trim(fields[0], `"`))
		}
		p.tables[table] = cols
		return 0, nil
	case reDropTable.MatchString(sql):
		m := reDropTable.FindStringSubmatch(sql)
		delete(p.tables, m[1])
		return 0, nil
	case reAddColumn.MatchString(sql):
		m := reAddColumn.FindStringSubmatch(sql)
		p.tables[m[1]] = append(p.tables[m[1]], m[2])
		return 0, nil
	case reDropColumn.MatchString(sql):
		m := reDropColumn.FindStringSubmatch(sql)
		cols := p.tables[m[1]]
		out := cols[:0]
		for _, c := range cols {
			if c != m[2] {
				out = append(out, c)
			}
		}
		p.tables[m[1]] = out
		return 0, nil
	case reDeleteFrom.MatchString(sql):
		p.version = nil
		return 0, nil
	case reInsertVer.MatchString(sql):
		if len(params) == 1 {
			if s, ok := params[0].(string); ok {
				p.version = []string{s}
			}
		}
		return 0, nil
	}
	return 0, nil
}

func (p *memPool) Execute(ctx context.Context, sql string, params []any) (pool.QueryResult, error) {
	sql = strings.TrimSpace(sql)
	if reSelectVer.MatchString(sql) {
		var rows [][]any
		for _, v := range p.version {
			rows = append(rows, []any{v})
		}
		return &memResult{rows: rows}, nil
	}
	return &memResult{}, nil
}

func (p *memPool) Transaction(ctx context.Context) (pool.Tx, error) {
	return &memTx{p}, nil
}

func (p *memPool) GetTables(ctx context.Context) ([]string, error) {
	var names []string
	for t := range p.tables {
		names = append(names, t)
	}
	return names, nil
}

func (p *memPool) GetColumns(ctx context.Context, table string) ([]pool.ColumnInfo, error) {
	var cols []pool.ColumnInfo
	for _, c := range p.tables[table] {
		cols = append(cols, pool.ColumnInfo{Name: c, Type: "text", Nullable: true})
	}
	return cols, nil
}

func (p *memPool) GetIndexes(ctx context.Context, table string) ([]pool.IndexInfo, error) {
	return nil, nil
}

func (p *memPool) GetConstraints(ctx context.Context, table string) ([]pool.ConstraintInfo, error) {
	return nil, nil
}

type memTx struct{ *memPool }

func (t *memTx) Commit(ctx context.Context) error   { return nil }
func (t *memTx) Rollback(ctx context.Context) error { return nil }

type memResult struct {
	rows [][]any
}

func (r *memResult) RowCount() int64 { return int64(len(r.rows)) }

func (r *memResult) First(ctx context.Context, dest []any) (bool, error) {
	if len(r.rows) == 0 {
		return false, nil
	}
	scanInto(dest, r.rows[0])
	return true, nil
}

func (r *memResult) All(ctx context.Context, newDest func() []any, scan func([]any) error) error {
	for _, row := range r.rows {
		dest := newDest()
		scanInto(dest, row)
		if err := scan(dest); err != nil {
			return err
		}
	}
	return nil
}

func (r *memResult) One(ctx context.Context, dest []any) error {
	scanInto(dest, r.rows[0])
	return nil
}

func (r *memResult) OneOrNone(ctx context.Context, dest []any) (bool, error) {
	if len(r.rows) == 0 {
		return false, nil
	}
	scanInto(dest, r.rows[0])
	return true, nil
}

func (r *memResult) Column(ctx context.Context, index int, scan func(any) error) error {
	for _, row := range r.rows {
		if err := scan(row[index]); err != nil {
			return err
		}
	}
	return nil
}

func (r *memResult) Close() error { return nil }

func scanInto(dest []any, src []any) {
	for i := range dest {
		if i >= len(src) {
			break
		}
		if ptr, ok := dest[i].(*any); ok {
			*ptr = src[i]
		}
	}
}

package sqliteadapter

import (
	"context"
	"database/sql"

	"github.com/alexogeny/ormkit/internal/platform/dberr"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool"
)

// queryer is satisfied by both *sql.DB and *sql.Tx, letting the
// introspection helpers run identically against either.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (p *Pool) GetTables(ctx context.Context) ([]string, error) {
	return getTables(ctx, p.db)
}
func (p *Pool) GetColumns(ctx context.Context, table string) ([]pool.ColumnInfo, error) {
	return getColumns(ctx, p.db, table)
}
func (p *Pool) GetIndexes(ctx context.Context, table string) ([]pool.IndexInfo, error) {
	return getIndexes(ctx, p.db, table)
}
func (p *Pool) GetConstraints(ctx context.Context, table string) ([]pool.ConstraintInfo, error) {
	return getConstraints(ctx, p.db, table)
}

func getTables(ctx context.Context, q queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, dberr.Wrap(err, "list tables")
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, dberr.Wrap(err, "scan table name")
		}
		tables = append(tables, name)
	}
	return tables, dberr.Wrap(rows.Err(), "list tables")
}

func getColumns(ctx context.Context, q queryer, table string) ([]pool.ColumnInfo, error) {
	rows, err := q.QueryContext(ctx, `PRAGMA table_info(`+quoteIdent(table)+`)`)
	if err != nil {
		return nil, dberr.Wrap(err, "list columns")
	}
	defer rows.Close()

	var columns []pool.ColumnInfo
	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, dberr.Wrap(err, "scan column")
		}
		var defaultValue *string
		if dflt.Valid {
			defaultValue = &dflt.String
		}
		columns = append(columns, pool.ColumnInfo{
			Name:         name,
			Type:         ctype,
			Nullable:     notNull == 0,
			DefaultValue: defaultValue,
		})
	}
	return columns, dberr.Wrap(rows.Err(), "list columns")
}

func getIndexes(ctx context.Context, q queryer, table string) ([]pool.IndexInfo, error) {
	rows, err := q.QueryContext(ctx, `PRAGMA index_list(`+quoteIdent(table)+`)`)
	if err != nil {
		return nil, dberr.Wrap(err, "list indexes")
	}
	defer rows.Close()

	type idxMeta struct {
		name   string
		unique bool
	}
	var metas []idxMeta
	for rows.Next() {
		var seq int
		var name string
		var unique int
		var origin, partial string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, dberr.Wrap(err, "scan index")
		}
		// auto-created indexes backing a primary key/unique constraint
		// are skipped. GetConstraints reports the primary key but not
		// unique constraints, so a UNIQUE constraint appears in neither.
		if origin == "pk" || origin == "u" {
			continue
		}
		metas = append(metas, idxMeta{name: name, unique: unique != 0})
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list indexes")
	}

	indexes := make([]pool.IndexInfo, 0, len(metas))
	for _, m := range metas {
		colRows, err := q.QueryContext(ctx, `PRAGMA index_info(`+quoteIdent(m.name)+`)`)
		if err != nil {
			return nil, dberr.Wrap(err, "list index columns")
		}
		var cols []string
		for colRows.Next() {
			var seqno, cid int
			var name string
			if err := colRows.Scan(&seqno, &cid, &name); err != nil {
				colRows.Close()
				return nil, dberr.Wrap(err, "scan index column")
			}
			cols = append(cols, name)
		}
		colRows.Close()
		indexes = append(indexes, pool.IndexInfo{Name: m.name, Columns: cols, Unique: m.unique})
	}
	return indexes, nil
}

func getConstraints(ctx context.Context, q queryer, table string) ([]pool.ConstraintInfo, error) {
	var constraints []pool.ConstraintInfo

	pkCols, err := getColumns(ctx, q, table)
	if err != nil {
		return nil, err
	}
	var pk []string
	rows, err := q.QueryContext(ctx, `PRAGMA table_info(`+quoteIdent(table)+`)`)
	if err != nil {
		return nil, dberr.Wrap(err, "list primary key")
	}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull int
		var dflt sql.NullString
		var pkOrdinal int
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pkOrdinal); err != nil {
			rows.Close()
			return nil, dberr.Wrap(err, "scan primary key")
		}
		if pkOrdinal > 0 {
			pk = append(pk, name)
		}
	}
	rows.Close()
	_ = pkCols
	if len(pk) > 0 {
		constraints = append(constraints, pool.ConstraintInfo{
			Name: table + "_pkey", Kind: "primary_key", Columns: pk,
		})
	}

	fkRows, err := q.QueryContext(ctx, `PRAGMA foreign_key_list(`+quoteIdent(table)+`)`)
	if err != nil {
		return nil, dberr.Wrap(err, "list foreign keys")
	}
	defer fkRows.Close()
	for fkRows.Next() {
		var id, seq int
		var refTable, from, to, onUpdate, onDelete, match string
		if err := fkRows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, dberr.Wrap(err, "scan foreign key")
		}
		constraints = append(constraints, pool.ConstraintInfo{
			Name:       table + "_" + from + "_fkey",
			Kind:       "foreign_key",
			Columns:    []string{from},
			RefTable:   refTable,
			RefColumns: []string{to},
		})
	}

	return constraints, dberr.Wrap(fkRows.Err(), "list foreign keys")
}

// quoteIdent double-quotes an identifier for interpolation into a
// PRAGMA statement, which (unlike ordinary DML) does not accept bind
// parameters for its target name.
func quoteIdent(name string) string {
	out := make([]byte, 0, len(name)+2)
	out = append(out, '"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, name[i])
	}
	out = append(out, '"')
	return string(out)
}

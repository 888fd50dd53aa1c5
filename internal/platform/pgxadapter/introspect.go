package pgxadapter

import (
	"context"

	"github.com/alexogeny/ormkit/internal/platform/dberr"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool"
)

// GetTables lists base tables in the public schema.
func (c conn) GetTables(ctx context.Context) ([]string, error) {
	rows, err := c.raw.Query(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
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

// GetColumns lists live columns for table.
func (c conn) GetColumns(ctx context.Context, table string) ([]pool.ColumnInfo, error) {
	rows, err := c.raw.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES', column_default
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, dberr.Wrap(err, "list columns")
	}
	defer rows.Close()

	var columns []pool.ColumnInfo
	for rows.Next() {
		var c pool.ColumnInfo
		if err := rows.Scan(&c.Name, &c.Type, &c.Nullable, &c.DefaultValue); err != nil {
			return nil, dberr.Wrap(err, "scan column")
		}
		columns = append(columns, c)
	}
	return columns, dberr.Wrap(rows.Err(), "list columns")
}

// GetIndexes lists live indexes on table via pg_catalog, grouping the
// per-column rows pg_index reports into one IndexInfo each.
func (c conn) GetIndexes(ctx context.Context, table string) ([]pool.IndexInfo, error) {
	rows, err := c.raw.Query(ctx, `
		SELECT ix.relname, a.attname, i.indisunique
		FROM pg_index i
		JOIN pg_class t ON t.oid = i.indrelid
		JOIN pg_class ix ON ix.oid = i.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(i.indkey)
		WHERE t.relname = $1 AND NOT i.indisprimary
		ORDER BY ix.relname, array_position(i.indkey, a.attnum)`, table)
	if err != nil {
		return nil, dberr.Wrap(err, "list indexes")
	}
	defer rows.Close()

	byName := map[string]*pool.IndexInfo{}
	var order []string
	for rows.Next() {
		var name, column string
		var unique bool
		if err := rows.Scan(&name, &column, &unique); err != nil {
			return nil, dberr.Wrap(err, "scan index")
		}
		idx, ok := byName[name]
		if !ok {
			idx = &pool.IndexInfo{Name: name, Unique: unique}
			byName[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list indexes")
	}

	indexes := make([]pool.IndexInfo, 0, len(order))
	for _, name := range order {
		indexes = append(indexes, *byName[name])
	}
	return indexes, nil
}

// GetConstraints lists live constraints on table.
func (c conn) GetConstraints(ctx context.Context, table string) ([]pool.ConstraintInfo, error) {
	rows, err := c.raw.Query(ctx, `
		SELECT
			con.conname,
			CASE con.contype
				WHEN 'p' THEN 'primary_key'
				WHEN 'f' THEN 'foreign_key'
				WHEN 'u' THEN 'unique'
				WHEN 'c' THEN 'check'
				ELSE con.contype::text
			END,
			ARRAY(SELECT a.attname FROM unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
			      JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
			      ORDER BY k.ord),
			COALESCE(ref.relname, ''),
			CASE WHEN con.confrelid = 0 THEN ARRAY[]::text[] ELSE
				ARRAY(SELECT a.attname FROM unnest(con.confkey) WITH ORDINALITY AS k(attnum, ord)
				      JOIN pg_attribute a ON a.attrelid = con.confrelid AND a.attnum = k.attnum
				      ORDER BY k.ord)
			END
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		LEFT JOIN pg_class ref ON ref.oid = con.confrelid
		WHERE t.relname = $1
		ORDER BY con.conname`, table)
	if err != nil {
		return nil, dberr.Wrap(err, "list constraints")
	}
	defer rows.Close()

	var constraints []pool.ConstraintInfo
	for rows.Next() {
		var c pool.ConstraintInfo
		if err := rows.Scan(&c.Name, &c.Kind, &c.Columns, &c.RefTable, &c.RefColumns); err != nil {
			return nil, dberr.Wrap(err, "scan constraint")
		}
		constraints = append(constraints, c)
	}
	return constraints, dberr.Wrap(rows.Err(), "list constraints")
}

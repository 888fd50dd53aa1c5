/*
Upsert implements §4.D's upsert semantics: build the insert row from
instance attributes (skipping autoincrement PKs), optionally refresh
named columns on conflict via ON CONFLICT ... DO UPDATE, or do nothing.
RETURNING every mapped column fills the instance back in one round-trip
on PostgreSQL;
SQLite — whose RETURNING cannot distinguish an inserted row from an
updated one when DO NOTHING is in play — re-selects by conflict target
to retrieve the authoritative row instead (§4.D).
*/
package session

import (
	"context"

	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool"
	"github.com/alexogeny/ormkit/pkg/ormkit/schema"
	"github.com/alexogeny/ormkit/pkg/ormkit/sqlbuilder"
)

// scanOneRow scans at most one row from result into a Row keyed by
// columns, reporting whether a row was present.
func scanOneRow(ctx context.Context, result pool.QueryResult, columns []string) (Row, bool, error) {
	dest := make([]any, len(columns))
	for i := range dest {
		dest[i] = new(any)
	}
	found, err := result.OneOrNone(ctx, dest)
	if err != nil || !found {
		return nil, found, err
	}
	row := Row{}
	for i, c := range columns {
		row[c] = *(dest[i].(*any))
	}
	return row, true, nil
}

// UpsertOptions configures a single Upsert call.
type UpsertOptions struct {
	// ConflictTarget names the column(s) a unique/PK constraint
	// violation is detected against.
	ConflictTarget []string
	// UpdateFields restricts DO UPDATE to these columns; empty means
	// every non-PK inserted field.
	UpdateFields []string
	// DoNothing selects ON CONFLICT DO NOTHING over DO UPDATE.
	DoNothing bool
}

// Upsert inserts row for entityName, or applies the conflict policy in
// opts when a unique constraint on opts.ConflictTarget is violated.
// Returns the authoritative row (including any DB-generated defaults)
// with its primary key populated into the identity map.
func (s *Session) Upsert(ctx context.Context, entityName string, row Row, opts UpsertOptions) (Row, error) {
	entity, err := s.registry.Resolve(entityName)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(row))
	values := make([]any, 0, len(row))
	for _, c := range entity.InsertColumnNames() {
		v, ok := row[c]
		if !ok {
			continue
		}
		columns = append(columns, c)
		values = append(values, v)
	}

	updateFields := opts.UpdateFields
	if !opts.DoNothing && len(updateFields) == 0 {
		pk := entity.PrimaryKey()
		for _, c := range columns {
			if c == pk {
				continue
			}
			updateFields = append(updateFields, c)
		}
	}

	ins := sqlbuilder.Insert{
		Table:             entity.Table,
		Columns:           columns,
		Rows:              [][]any{values},
		ConflictColumns:   opts.ConflictTarget,
		ConflictDoNothing: opts.DoNothing,
		UpdateColumns:     updateFields,
	}

	if s.dialect == dialect.Postgres {
		ins.Returning = entity.ColumnNames()
		sqlText, params := ins.Build(s.dialect)
		result, err := s.pool.Execute(ctx, sqlText, params)
		if err != nil {
			return nil, err
		}
		defer result.Close()

		out, found, err := scanOneRow(ctx, result, entity.ColumnNames())
		if err != nil {
			return nil, err
		}
		if !found {
			// DO NOTHING against an existing conflict returns no row;
			// the authoritative row is whatever is already persisted.
			out, err = s.selectByConflictTarget(ctx, entity, opts.ConflictTarget, row)
			if err != nil {
				return nil, err
			}
		}
		s.putIdentity(entityName, entity, out)
		return out, nil
	}

	sqlText, params := ins.Build(s.dialect)
	if _, err := s.pool.ExecuteStatement(ctx, sqlText, params); err != nil {
		return nil, err
	}
	out, err := s.selectByConflictTarget(ctx, entity, opts.ConflictTarget, row)
	if err != nil {
		return nil, err
	}
	s.putIdentity(entityName, entity, out)
	return out, nil
}

// UpsertAll applies Upsert to each row in turn (§4.D: "upsert_all is a
// loop").
func (s *Session) UpsertAll(ctx context.Context, entityName string, rows []Row, opts UpsertOptions) ([]Row, error) {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		result, err := s.Upsert(ctx, entityName, row, opts)
		if err != nil {
			return out, err
		}
		out = append(out, result)
	}
	return out, nil
}

func (s *Session) selectByConflictTarget(ctx context.Context, entity *schema.Entity, conflictTarget []string, row Row) (Row, error) {
	var where sqlbuilder.Filter
	for _, col := range conflictTarget {
		where = sqlbuilder.And(where, sqlbuilder.Leaf(col, sqlbuilder.Eq, row[col]))
	}
	sel := sqlbuilder.Select{Table: entity.Table, Columns: entity.ColumnNames(), Where: where}
	sqlText, params := sel.Build(s.dialect)
	result, err := s.pool.Execute(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}
	defer result.Close()
	out, _, err := scanOneRow(ctx, result, entity.ColumnNames())
	return out, err
}

func (s *Session) putIdentity(entityName string, entity *schema.Entity, row Row) {
	pk := entity.PrimaryKey()
	if pk == "" {
		return
	}
	if v := row[pk]; v != nil {
		s.identity.put(entityName, v, row)
	}
}

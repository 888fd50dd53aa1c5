package session

import (
	"context"
	"time"

	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool"
	"github.com/alexogeny/ormkit/pkg/ormkit/sqlbuilder"
)

// Flush writes every staged insert/update/delete in one transaction,
// batching inserts per entity with the dialect's parameter-count
// clamp (§4.D) and using RETURNING on both dialects to read back
// generated primary keys.
func (s *Session) Flush(ctx context.Context) error {
	if len(s.pendingNew) == 0 && len(s.pendingDirty) == 0 && len(s.pendingDelete) == 0 {
		return nil
	}

	tx, err := s.pool.Transaction(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback(ctx)
		}
	}()

	for entityName, rows := range s.pendingNew {
		if err := s.flushInserts(ctx, tx, entityName, rows); err != nil {
			return err
		}
	}
	for entityName, updates := range s.pendingDirty {
		if err := s.flushUpdates(ctx, tx, entityName, updates); err != nil {
			return err
		}
	}
	for entityName, pks := range s.pendingDelete {
		if err := s.flushDeletes(ctx, tx, entityName, pks); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	committed = true

	s.pendingNew = map[string][]Row{}
	s.pendingDirty = map[string][]pendingUpdate{}
	s.pendingDelete = map[string][]any{}
	return nil
}

// flushInserts batches rows into INSERT statements of at most
// maxBatchRows(len(columns)) rows each (§4.D's SQLite-999-param
// clamp), reading primary keys back via RETURNING — go-sqlite3 bundles
// a SQLite build new enough (3.35+) to support RETURNING as well, so
// both dialects share this path.
func (s *Session) flushInserts(ctx context.Context, tx pool.Tx, entityName string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	entity, err := s.registry.Resolve(entityName)
	if err != nil {
		return err
	}
	columns := entity.InsertColumnNames()
	batchSize := s.maxBatchRows(len(columns))

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		values := make([][]any, len(batch))
		for i, r := range batch {
			rowValues := make([]any, len(columns))
			for c, col := range columns {
				v, ok := r[col]
				if !ok {
					if cd, found := entity.Column(col); found && cd.DefaultFunc != nil {
						v = cd.DefaultFunc()
					}
				}
				rowValues[c] = v
			}
			values[i] = rowValues
		}

		ins := sqlbuilder.Insert{
			Table:     entity.Table,
			Columns:   columns,
			Rows:      values,
			Returning: []string{entity.PrimaryKey()},
		}
		sqlText, params := ins.Build(s.dialect)

		result, err := tx.Execute(ctx, sqlText, params)
		if err != nil {
			return err
		}
		pkCol := entity.PrimaryKey()
		idx := 0
		err = result.All(ctx, func() []any { return []any{new(any)} }, func(dest []any) error {
			if idx < len(batch) {
				pk := *(dest[0].(*any))
				batch[idx][pkCol] = pk
				if pkCol != "" {
					s.identity.put(entityName, pk, batch[idx])
				}
				idx++
			}
			return nil
		})
		result.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) flushUpdates(ctx context.Context, tx pool.Tx, entityName string, updates []pendingUpdate) error {
	entity, err := s.registry.Resolve(entityName)
	if err != nil {
		return err
	}
	for _, u := range updates {
		assignments := make([]sqlbuilder.Assignment, 0, len(u.row))
		for _, col := range entity.ColumnNames() {
			if col == entity.PrimaryKey() {
				continue
			}
			if v, ok := u.row[col]; ok {
				assignments = append(assignments, sqlbuilder.Assignment{Column: col, Value: v})
			}
		}
		if len(assignments) == 0 {
			continue
		}
		upd := sqlbuilder.Update{
			Table:       entity.Table,
			Assignments: assignments,
			Where:       sqlbuilder.Leaf(entity.PrimaryKey(), sqlbuilder.Eq, u.pk),
		}
		sqlText, params := upd.Build(s.dialect)
		if _, err := tx.ExecuteStatement(ctx, sqlText, params); err != nil {
			return err
		}
		s.identity.invalidate(entityName, u.pk)
	}
	return nil
}

func (s *Session) flushDeletes(ctx context.Context, tx pool.Tx, entityName string, pks []any) error {
	entity, err := s.registry.Resolve(entityName)
	if err != nil {
		return err
	}
	if len(pks) == 0 {
		return nil
	}
	where := sqlbuilder.Leaf(entity.PrimaryKey(), sqlbuilder.In, pks)
	if entity.SoftDelete {
		upd := sqlbuilder.Update{
			Table:       entity.Table,
			Assignments: []sqlbuilder.Assignment{{Column: entity.SoftDeleteColumn, Value: time.Now().UTC()}},
			Where:       where,
		}
		sqlText, params := upd.Build(s.dialect)
		if _, err := tx.ExecuteStatement(ctx, sqlText, params); err != nil {
			return err
		}
	} else {
		del := sqlbuilder.Delete{Table: entity.Table, Where: where}
		sqlText, params := del.Build(s.dialect)
		if _, err := tx.ExecuteStatement(ctx, sqlText, params); err != nil {
			return err
		}
	}
	for _, pk := range pks {
		s.identity.invalidate(entityName, pk)
	}
	return nil
}

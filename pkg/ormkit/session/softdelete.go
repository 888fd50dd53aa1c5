/*
SoftDelete, Restore, and ForceDelete implement the per-instance half of
§4.D's soft-delete mixin; the query-level with_deleted()/only_deleted()
flags and default-filter injection live in sqlbuilder.SoftDelete and
Query's resolve() (query.go).
*/
package session

import (
	"context"
	"time"

	"github.com/alexogeny/ormkit/pkg/ormkit/schema"
	"github.com/alexogeny/ormkit/pkg/ormkit/sqlbuilder"
)

// SoftDelete sets the soft-delete marker column to the current instant
// (UTC) and issues an UPDATE (§4.D). pk identifies the row by primary
// key.
func (s *Session) SoftDelete(ctx context.Context, entityName string, pk any) error {
	return s.setDeletedAt(ctx, entityName, pk, timePtr(time.Now().UTC()))
}

// Restore clears the soft-delete marker column.
func (s *Session) Restore(ctx context.Context, entityName string, pk any) error {
	return s.setDeletedAt(ctx, entityName, pk, nil)
}

func (s *Session) setDeletedAt(ctx context.Context, entityName string, pk any, value *time.Time) error {
	entity, err := s.registry.Resolve(entityName)
	if err != nil {
		return err
	}
	if !entity.SoftDelete {
		return schema.ErrNotSoftDelete(entityName)
	}
	if entity.PrimaryKey() == "" {
		return schema.ErrNoPrimaryKey(entityName)
	}

	var v any
	if value != nil {
		v = *value
	}
	upd := sqlbuilder.Update{
		Table:       entity.Table,
		Assignments: []sqlbuilder.Assignment{{Column: entity.SoftDeleteColumn, Value: v}},
		Where:       sqlbuilder.Leaf(entity.PrimaryKey(), sqlbuilder.Eq, pk),
	}
	sqlText, params := upd.Build(s.dialect)
	if _, err := s.pool.ExecuteStatement(ctx, sqlText, params); err != nil {
		return err
	}
	s.identity.invalidate(entityName, pk)
	return nil
}

// ForceDelete issues a hard DELETE regardless of the entity's
// soft-delete mixin (§4.D).
func (s *Session) ForceDelete(ctx context.Context, entityName string, pk any) error {
	entity, err := s.registry.Resolve(entityName)
	if err != nil {
		return err
	}
	if entity.PrimaryKey() == "" {
		return schema.ErrNoPrimaryKey(entityName)
	}
	del := sqlbuilder.Delete{Table: entity.Table, Where: sqlbuilder.Leaf(entity.PrimaryKey(), sqlbuilder.Eq, pk)}
	sqlText, params := del.Build(s.dialect)
	if _, err := s.pool.ExecuteStatement(ctx, sqlText, params); err != nil {
		return err
	}
	s.identity.invalidate(entityName, pk)
	return nil
}

func timePtr(t time.Time) *time.Time { return &t }

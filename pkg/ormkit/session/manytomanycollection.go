/*
ManyToManyCollection gives a session-attached instance a live, mutable
view over a ManyToMany relationship's junction table. Add/Remove write
through to the junction table immediately rather than queuing into the
unit-of-work's pending maps, since junction rows carry no identity of
their own for the identity map to track (§3: "M2M with a session
attached — returns a live mutable collection").
*/
package session

import (
	"context"

	"github.com/alexogeny/ormkit/pkg/ormkit/schema"
	"github.com/alexogeny/ormkit/pkg/ormkit/sqlbuilder"
)

// ManyToManyCollection binds one owner instance's relationship to its
// junction table.
type ManyToManyCollection struct {
	s       *Session
	rel     *schema.Relationship
	ownerPK any
}

// Collection returns the live ManyToMany collection for relationship
// on the entity instance identified by ownerPK.
func (s *Session) Collection(entityName, relationship string, ownerPK any) (*ManyToManyCollection, error) {
	entity, err := s.registry.Resolve(entityName)
	if err != nil {
		return nil, err
	}
	rel, ok := entity.Relationships[relationship]
	if !ok {
		return nil, schema.ErrUnknownEntity(entityName + "." + relationship)
	}
	if rel.Kind != schema.ManyToMany {
		return nil, schema.ErrAmbiguousForeignKey(relationship, entityName)
	}
	return &ManyToManyCollection{s: s, rel: rel, ownerPK: ownerPK}, nil
}

// Add inserts a junction row for targetPK, a no-op if the association
// already exists (§8: "add(r) then add(r) yields one junction row").
func (c *ManyToManyCollection) Add(ctx context.Context, targetPK any) error {
	ins := sqlbuilder.Insert{
		Table:             c.rel.JunctionTable,
		Columns:           []string{c.rel.JunctionOwnerColumn, c.rel.JunctionTargetColumn},
		Rows:              [][]any{{c.ownerPK, targetPK}},
		ConflictColumns:   []string{c.rel.JunctionOwnerColumn, c.rel.JunctionTargetColumn},
		ConflictDoNothing: true,
	}
	sqlText, params := ins.Build(c.s.dialect)
	_, err := c.s.pool.ExecuteStatement(ctx, sqlText, params)
	return err
}

// Remove deletes the junction row for targetPK, a no-op if no such
// association exists (§8: "remove(r) on an absent association is a
// no-op").
func (c *ManyToManyCollection) Remove(ctx context.Context, targetPK any) error {
	where := sqlbuilder.And(
		sqlbuilder.Leaf(c.rel.JunctionOwnerColumn, sqlbuilder.Eq, c.ownerPK),
		sqlbuilder.Leaf(c.rel.JunctionTargetColumn, sqlbuilder.Eq, targetPK),
	)
	del := sqlbuilder.Delete{Table: c.rel.JunctionTable, Where: where}
	sqlText, params := del.Build(c.s.dialect)
	_, err := c.s.pool.ExecuteStatement(ctx, sqlText, params)
	return err
}

// Set replaces the full association set for the owner with targetPKs,
// removing junction rows for anything not named and adding rows for
// anything newly named.
func (c *ManyToManyCollection) Set(ctx context.Context, targetPKs []any) error {
	existing, err := c.All(ctx)
	if err != nil {
		return err
	}
	want := map[any]bool{}
	for _, pk := range targetPKs {
		want[pk] = true
	}
	have := map[any]bool{}
	for _, pk := range existing {
		have[pk] = true
		if !want[pk] {
			if err := c.Remove(ctx, pk); err != nil {
				return err
			}
		}
	}
	for _, pk := range targetPKs {
		if !have[pk] {
			if err := c.Add(ctx, pk); err != nil {
				return err
			}
		}
	}
	return nil
}

// All returns every target-side primary key currently associated with
// the owner.
func (c *ManyToManyCollection) All(ctx context.Context) ([]any, error) {
	sel := sqlbuilder.Select{
		Table:   c.rel.JunctionTable,
		Columns: []string{c.rel.JunctionTargetColumn},
		Where:   sqlbuilder.Leaf(c.rel.JunctionOwnerColumn, sqlbuilder.Eq, c.ownerPK),
	}
	sqlText, params := sel.Build(c.s.dialect)
	result, err := c.s.pool.Execute(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	var out []any
	err = result.All(ctx, func() []any {
		return []any{new(any)}
	}, func(dest []any) error {
		out = append(out, *(dest[0].(*any)))
		return nil
	})
	return out, err
}

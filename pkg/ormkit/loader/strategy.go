package loader

import (
	"context"

	"github.com/alexogeny/ormkit/pkg/ormkit/schema"
	"github.com/alexogeny/ormkit/pkg/ormkit/sqlbuilder"
)

// loadSelectin handles ManyToOne and OneToMany: collect the distinct
// foreign-key values referenced across rows, issue one IN (...) query
// against the target table, then bucket results back onto their owner
// row.
func (l *Loader) loadSelectin(ctx context.Context, entity *schema.Entity, rel *schema.Relationship, rows []Row) (map[int]any, error) {
	target, err := l.Registry.Resolve(rel.Target)
	if err != nil {
		return nil, err
	}

	var localKey, remoteKey string
	switch rel.Kind {
	case schema.ManyToOne:
		localKey = rel.ForeignKey
		remoteKey = target.PrimaryKey()
	case schema.OneToMany:
		localKey = entity.PrimaryKey()
		remoteKey = rel.ForeignKey
	}

	seen := map[any]bool{}
	var keys []any
	for _, r := range rows {
		v := r[localKey]
		if v == nil || seen[v] {
			continue
		}
		seen[v] = true
		keys = append(keys, v)
	}
	out := map[int]any{}
	if len(keys) == 0 {
		for idx := range rows {
			out[idx] = emptyDefault(rel)
		}
		return out, nil
	}

	sel := sqlbuilder.Select{
		Table:   target.Table,
		Columns: target.ColumnNames(),
		Where:   sqlbuilder.Leaf(remoteKey, sqlbuilder.In, keys),
	}
	if target.SoftDelete {
		sel.SoftDelete = sqlbuilder.SoftDelete{Column: target.SoftDeleteColumn}
	}

	results, err := l.query(ctx, sel)
	if err != nil {
		return nil, err
	}

	switch rel.Kind {
	case schema.ManyToOne:
		byKey := map[any]Row{}
		for _, res := range results {
			byKey[res[remoteKey]] = res
		}
		for idx, r := range rows {
			out[idx] = byKey[r[localKey]]
		}
	case schema.OneToMany:
		byKey := map[any][]Row{}
		for _, res := range results {
			byKey[res[remoteKey]] = append(byKey[res[remoteKey]], res)
		}
		for idx, r := range rows {
			out[idx] = byKey[r[localKey]]
		}
	}

	return out, nil
}

// loadManyToMany issues two queries: one across the junction table for
// every owner key, then one across the target table for the distinct
// target keys the junction rows named.
func (l *Loader) loadManyToMany(ctx context.Context, entity *schema.Entity, rel *schema.Relationship, rows []Row) (map[int]any, error) {
	target, err := l.Registry.Resolve(rel.Target)
	if err != nil {
		return nil, err
	}

	ownerPK := entity.PrimaryKey()
	var ownerKeys []any
	seenOwner := map[any]bool{}
	for _, r := range rows {
		v := r[ownerPK]
		if v == nil || seenOwner[v] {
			continue
		}
		seenOwner[v] = true
		ownerKeys = append(ownerKeys, v)
	}
	out := map[int]any{}
	if len(ownerKeys) == 0 {
		for idx := range rows {
			out[idx] = emptyDefault(rel)
		}
		return out, nil
	}

	junctionSel := sqlbuilder.Select{
		Table:   rel.JunctionTable,
		Columns: []string{rel.JunctionOwnerColumn, rel.JunctionTargetColumn},
		Where:   sqlbuilder.Leaf(rel.JunctionOwnerColumn, sqlbuilder.In, ownerKeys),
	}
	junctionRows, err := l.query(ctx, junctionSel)
	if err != nil {
		return nil, err
	}

	targetKeysByOwner := map[any][]any{}
	seenTarget := map[any]bool{}
	var targetKeys []any
	for _, jr := range junctionRows {
		owner := jr[rel.JunctionOwnerColumn]
		t := jr[rel.JunctionTargetColumn]
		targetKeysByOwner[owner] = append(targetKeysByOwner[owner], t)
		if !seenTarget[t] {
			seenTarget[t] = true
			targetKeys = append(targetKeys, t)
		}
	}

	byTargetKey := map[any]Row{}
	if len(targetKeys) > 0 {
		targetPK := target.PrimaryKey()
		targetSel := sqlbuilder.Select{
			Table:   target.Table,
			Columns: target.ColumnNames(),
			Where:   sqlbuilder.Leaf(targetPK, sqlbuilder.In, targetKeys),
		}
		if target.SoftDelete {
			targetSel.SoftDelete = sqlbuilder.SoftDelete{Column: target.SoftDeleteColumn}
		}
		targetRows, err := l.query(ctx, targetSel)
		if err != nil {
			return nil, err
		}
		for _, tr := range targetRows {
			byTargetKey[tr[targetPK]] = tr
		}
	}

	for idx, r := range rows {
		owner := r[ownerPK]
		var related []Row
		for _, tk := range targetKeysByOwner[owner] {
			if row, ok := byTargetKey[tk]; ok {
				related = append(related, row)
			}
		}
		out[idx] = related
	}

	return out, nil
}

// query executes sel and scans every result row into a Row keyed by
// column name.
func (l *Loader) query(ctx context.Context, sel sqlbuilder.Select) ([]Row, error) {
	sqlText, params := sel.Build(l.Dialect)
	result, err := l.Pool.Execute(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	columns := sel.Columns
	var rows []Row
	err = result.All(ctx, func() []any {
		dest := make([]any, len(columns))
		for i := range dest {
			dest[i] = new(any)
		}
		return dest
	}, func(dest []any) error {
		r := Row{}
		for i, c := range columns {
			r[c] = *(dest[i].(*any))
		}
		rows = append(rows, r)
		return nil
	})
	return rows, err
}

/*
Package loader populates relationships on already-hydrated base rows
according to a load plan.

Grounded on patrickascher/gofer's orm/strategy_eager_select.go
(other_examples) for the selectin/joined/many-to-many mechanics
(collect distinct FK values across parents, issue one IN (...) query
per relationship, two queries for many-to-many: junction rows then
target rows) and the teacher's json_agg sub-query idiom
(comic/store_postgres.go) for the N+1-avoidance motivation it
generalizes away from.

Rows are represented as map[string]any rather than hydrated into
caller-defined Go structs via reflection — OrmKit ships no code
generator, so the loader (like the session) works against the
generic row shape the sqlbuilder/pool layer already produces; callers
that want typed structs scan a row map into their own type at the
call site.
*/
package loader

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool"
	"github.com/alexogeny/ormkit/pkg/ormkit/schema"
	"github.com/alexogeny/ormkit/pkg/ormkit/sqlbuilder"
)

// Row is one hydrated base entity plus whatever relationship values
// this loader attaches under the relationship's name.
type Row map[string]any

// Relationship reads a relationship attribute by name, implementing
// the §3 Entity-instance invariant: a relationship absent from the row
// — because its plan entry used "raise", or because it was never part
// of the load plan at all — fails with schema.ErrRelationshipNotLoaded
// rather than silently returning nil. "noload" relationships are
// present with their empty default (nil or []Row{}), so they read back
// without error; loaded relationships read back their hydrated value.
func (r Row) Relationship(name string) (any, error) {
	v, ok := r[name]
	if !ok {
		return nil, schema.ErrRelationshipNotLoaded
	}
	return v, nil
}

// Loader populates relationships on a batch of rows belonging to the
// same entity.
type Loader struct {
	Registry *schema.Registry
	Pool     pool.ConnectionPool
	Dialect  dialect.Dialect
}

// Load walks plan against rows (all instances of entityName), issuing
// at most one follow-up query per Selectin/downgraded-Joined entry and
// two for each ManyToMany entry (§8: "one plan entry ⇒ at most one
// extra query, two for M2M"). Follow-ups run concurrently via
// errgroup (§4.C, §5).
func (l *Loader) Load(ctx context.Context, entityName string, rows []Row, plan []PlanEntry) error {
	entity, err := l.Registry.Resolve(entityName)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	// Each relationship's results are collected into its own map
	// (keyed by row index) rather than written directly into the
	// shared Row maps from inside the goroutine — concurrent writes to
	// different keys of the same Go map from different goroutines are
	// still a data race, so every follow-up's results are applied to
	// rows sequentially after every goroutine has finished.
	type outcome struct {
		name    string
		results map[int]any
	}
	outcomes := make([]outcome, 0, len(plan))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, rawEntry := range plan {
		rel, ok := entity.Relationships[rawEntry.Relationship]
		if !ok {
			continue
		}
		entry := resolveEntry(rawEntry, rel)
		if entry.resolved == schema.Noload {
			// §4.C: "sets the relationship slot to the empty default
			// ([] or None) without querying." Setting it here (rather
			// than leaving the key absent) is what distinguishes noload
			// from raise at the Row.Relationship accessor.
			def := emptyDefault(rel)
			for _, row := range rows {
				row[rel.Name] = def
			}
			continue
		}
		if entry.resolved == schema.Raise {
			// Leave the key absent: Row.Relationship(rel.Name) reports
			// schema.ErrRelationshipNotLoaded on read.
			continue
		}
		if entry.resolved == schema.Joined {
			// Joined hydration is performed by the base query's own
			// LEFT JOIN aliasing (sqlbuilder.Select.Joins); there is no
			// follow-up query to issue here.
			continue
		}

		rel := rel
		g.Go(func() error {
			var results map[int]any
			var err error
			switch rel.Kind {
			case schema.ManyToMany:
				results, err = l.loadManyToMany(gctx, entity, rel, rows)
			default:
				results, err = l.loadSelectin(gctx, entity, rel, rows)
			}
			if err != nil {
				return err
			}
			mu.Lock()
			outcomes = append(outcomes, outcome{name: rel.Name, results: results})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, o := range outcomes {
		for idx, v := range o.results {
			rows[idx][o.name] = v
		}
	}
	return nil
}

// emptyDefault returns the zero value noload assigns a relationship
// slot: an empty slice for collection-valued relationships (OneToMany,
// ManyToMany, or any ManyToOne a caller declared list-typed), nil
// otherwise.
func emptyDefault(rel *schema.Relationship) any {
	if rel.UseList || rel.Kind == schema.OneToMany || rel.Kind == schema.ManyToMany {
		return []Row{}
	}
	return nil
}

// DemuxJoinedRow splits a flat joined-select result row into the base
// entity's columns and, per join alias, either a populated related row
// or nil when every joined column came back NULL (outer-join miss —
// never synthesized into a zero-valued stub, §8).
func DemuxJoinedRow(flat map[string]any, baseColumns []string, joins []sqlbuilder.JoinSpec) (Row, map[string]Row) {
	base := Row{}
	for _, c := range baseColumns {
		base[c] = flat[c]
	}

	related := map[string]Row{}
	for _, j := range joins {
		row := Row{}
		allNull := true
		for _, c := range j.Columns {
			v := flat[j.Alias+"_"+c]
			row[c] = v
			if v != nil {
				allNull = false
			}
		}
		if allNull {
			related[j.Alias] = nil
		} else {
			related[j.Alias] = row
		}
	}
	return base, related
}

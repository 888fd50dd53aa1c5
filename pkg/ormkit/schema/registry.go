/*
Package schema holds the entity/column/relationship model registry.

Generalized from the teacher's process-wide schema registration
pattern (internal/platform/database/schema, one descriptor file per
table registering into a shared catalogue at init time) into a single
Registry type any number of entities register into, with relationship
resolution deferred to first use.
*/
package schema

import (
	"sort"
	"sync"
)

// Registry is the process-wide catalogue of registered entities. The
// zero value is ready to use.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entities: map[string]*Entity{}}
}

// Default is the process-wide registry entity definitions populate
// from their own init() functions when an application does not wire
// its own Registry explicitly (§3: "the model registry is
// process-wide, populated at entity-definition time"). cmd/ormkit's
// `auto` subcommand diffs against this registry. Library callers that
// construct a Session directly are free to build their own Registry
// via NewRegistry instead — nothing in this package requires Default
// to be used.
var Default = NewRegistry()

// Register adds e to the registry under name. Registration never
// resolves relationships — that happens lazily in Resolve, so entities
// may reference targets registered later in the same package's init
// order.
func (r *Registry) Register(name string, e *Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entities == nil {
		r.entities = map[string]*Entity{}
	}
	r.entities[name] = e
}

// Lookup returns the entity registered under name without resolving
// it.
func (r *Registry) Lookup(name string) (*Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[name]
	return e, ok
}

// Names returns every registered entity name, sorted, so callers that
// need to enumerate the registry (e.g. the CLI's "auto" diff) get a
// deterministic order rather than Go's randomized map iteration.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve walks e's relationships, inferring foreign keys and junction
// columns for any not yet resolved, then marks e resolved. Idempotent:
// a second call on an already-resolved entity is a no-op.
func (r *Registry) Resolve(name string) (*Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entities[name]
	if !ok {
		return nil, ErrUnknownEntity(name)
	}
	if e.resolved {
		return e, nil
	}

	for relName, rel := range e.Relationships {
		if rel.resolved {
			continue
		}
		target, ok := r.entities[rel.Target]
		if !ok {
			return nil, ErrUnknownEntity(rel.Target)
		}

		switch rel.Kind {
		case ManyToOne:
			if rel.ForeignKey == "" {
				fk, err := inferForeignKey(e, target, relName)
				if err != nil {
					return nil, err
				}
				rel.ForeignKey = fk
			}
		case OneToMany:
			if rel.ForeignKey == "" {
				fk, err := inferForeignKey(target, e, relName)
				if err != nil {
					return nil, err
				}
				rel.ForeignKey = fk
			}
		case ManyToMany:
			if rel.JunctionOwnerColumn == "" {
				rel.JunctionOwnerColumn = singularize(e.Table) + "_id"
			}
			if rel.JunctionTargetColumn == "" {
				rel.JunctionTargetColumn = singularize(target.Table) + "_id"
			}
		}
		rel.resolved = true
	}

	e.resolved = true
	return e, nil
}

// inferForeignKey locates the single column on fkSide whose ForeignKey
// descriptor points at pkSide's primary key. Ambiguous (more than one
// candidate) or absent candidates are both errors — the caller must
// set Relationship.ForeignKey explicitly in those cases.
func inferForeignKey(fkSide, pkSide *Entity, relationshipName string) (string, error) {
	pk := pkSide.PrimaryKey()
	if pk == "" {
		return "", ErrNoPrimaryKey(pkSide.Name)
	}
	target := pkSide.Name + "." + pk

	var candidates []string
	for _, c := range fkSide.Columns {
		if c.ForeignKey == target {
			candidates = append(candidates, c.Name)
		}
	}
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return "", ErrAmbiguousForeignKey(relationshipName, fkSide.Name)
	default:
		return "", ErrAmbiguousForeignKey(relationshipName, fkSide.Name)
	}
}

package loader

import "github.com/alexogeny/ormkit/pkg/ormkit/schema"

// PlanEntry names one relationship to populate and the strategy to use
// for it. Joined on a OneToMany/ManyToMany relationship is downgraded
// to Selectin at resolution time (§4.C, Open Questions §9) since a
// single-row LEFT JOIN cannot represent a one-to-many fan-out without
// duplicating parent columns per child row.
type PlanEntry struct {
	Relationship string
	Strategy     schema.LoadStrategy

	resolved schema.LoadStrategy
	downgraded bool
}

// ResolvedStrategy reports the strategy actually used after any
// downgrade, so callers can introspect when Joined silently became
// Selectin (Open Questions §9 resolution #3).
func (p PlanEntry) ResolvedStrategy() schema.LoadStrategy {
	return p.resolved
}

// Downgraded reports whether this entry's requested strategy differed
// from its resolved one.
func (p PlanEntry) Downgraded() bool { return p.downgraded }

// Resolve computes e's ResolvedStrategy against rel, applying the
// Joined-on-OneToMany/ManyToMany downgrade (§4.C). Exported so callers
// that build the base query (e.g. session.Query) can decide whether an
// entry needs a SQL JOIN or a Loader follow-up before Loader.Load runs.
func Resolve(e PlanEntry, rel *schema.Relationship) PlanEntry {
	return resolveEntry(e, rel)
}

func resolveEntry(e PlanEntry, rel *schema.Relationship) PlanEntry {
	e.resolved = e.Strategy
	if e.Strategy == schema.Joined && (rel.Kind == schema.OneToMany || rel.Kind == schema.ManyToMany) {
		e.resolved = schema.Selectin
		e.downgraded = true
	}
	return e
}

package migrate

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/alexogeny/ormkit/internal/platform/apperr"
)

// Script is one migration revision: an immutable identity (Revision,
// DownRevision, Message, optional BranchLabels/DependsOn) plus its
// forward and backward operation lists (spec.md §3, §4.E, §6).
//
// Go has no runtime eval, so the spec's "restricted evaluator" that
// parses migration scripts without executing arbitrary code (§4.E) is
// met differently here: a migration is ordinary Go source that calls
// [Register] from an init() function, mirroring golang-migrate's own
// registration idiom (which the teacher already depends on via
// internal/platform/migration) — see DESIGN.md and SPEC_FULL.md §4.E
// for the full rationale. Register only reads struct-literal fields;
// no query runs until Runner.Upgrade executes the named operations.
type Script struct {
	Revision     string
	DownRevision string // empty for the base revision
	Message      string
	BranchLabels []string
	DependsOn    []string

	Upgrade   []Operation
	Downgrade []Operation
}

// registry is the process-wide set of registered scripts, populated by
// init() functions in a caller's migrations package — mirroring the
// schema.Registry's process-wide, write-once-at-init-time pattern.
var (
	registryMu sync.Mutex
	registry   = map[string]*Script{}
)

// Register adds s to the process-wide migration registry. Call from a
// migration script's init() function. Panics on a duplicate revision,
// the same failure mode golang-migrate and database/sql's driver
// registration use for a programmer error caught at process startup.
func Register(s *Script) {
	if s.Revision == "" {
		panic("migrate: Register called with empty Revision")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[s.Revision]; exists {
		panic("migrate: duplicate revision registered: " + s.Revision)
	}
	registry[s.Revision] = s
}

// ResetRegistry clears the process-wide registry. Test-only: library
// code never calls this; it exists so package_test files can register
// a fresh set of scripts per test case without cross-test leakage.
func ResetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = map[string]*Script{}
}

// loadAll returns every registered script, topologically sorted by its
// DownRevision chain (base revision first). Fails with a
// [apperr.KindMigration] error if any script's DownRevision names a
// revision that was never registered (§4.E, "a script whose
// down-revision chain is broken... causes the load step to fail before
// anything runs") or if the chain does not form a single linear list.
func loadAll() ([]*Script, error) {
	registryMu.Lock()
	scripts := make(map[string]*Script, len(registry))
	for k, v := range registry {
		scripts[k] = v
	}
	registryMu.Unlock()

	children := map[string][]string{} // down_revision -> []revision
	var base []string
	for rev, s := range scripts {
		if s.DownRevision == "" {
			base = append(base, rev)
			continue
		}
		if _, ok := scripts[s.DownRevision]; !ok {
			return nil, apperr.Migration("migration "+rev+" references unknown down_revision "+s.DownRevision, nil)
		}
		children[s.DownRevision] = append(children[s.DownRevision], rev)
	}

	if len(scripts) == 0 {
		return nil, nil
	}
	if len(base) != 1 {
		sort.Strings(base)
		return nil, apperr.Migration("migration chain must have exactly one base revision (down_revision == \"\"), found "+strconv.Itoa(len(base)), nil)
	}

	var ordered []*Script
	seen := map[string]bool{}
	rev := base[0]
	for {
		if seen[rev] {
			return nil, apperr.Migration("migration chain contains a cycle at revision "+rev, nil)
		}
		seen[rev] = true
		ordered = append(ordered, scripts[rev])

		next := children[rev]
		if len(next) == 0 {
			break
		}
		if len(next) > 1 {
			sort.Strings(next)
			return nil, apperr.Migration("revision "+rev+" has multiple children, branching chains are not supported: "+strings.Join(next, ", "), nil)
		}
		rev = next[0]
	}

	if len(ordered) != len(scripts) {
		return nil, apperr.Migration("migration registry contains scripts not reachable from the base revision", nil)
	}
	return ordered, nil
}

package session

import "sync"

// identityKey names a single live instance by entity and primary key.
type identityKey struct {
	entity string
	pk     any
}

// identityMap ensures at most one live Row per (entity, PK) within a
// session; Get consults it before issuing a query.
type identityMap struct {
	mu   sync.Mutex
	rows map[identityKey]Row
}

func newIdentityMap() *identityMap {
	return &identityMap{rows: map[identityKey]Row{}}
}

func (m *identityMap) get(entity string, pk any) (Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[identityKey{entity, pk}]
	return r, ok
}

func (m *identityMap) put(entity string, pk any, row Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[identityKey{entity, pk}] = row
}

// invalidate removes a single entity/PK from the map, forcing the next
// Get to refetch (see Session.Invalidate, the escape hatch after a
// Query.Update).
func (m *identityMap) invalidate(entity string, pk any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, identityKey{entity, pk})
}

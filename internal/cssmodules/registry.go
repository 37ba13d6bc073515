package icm

import (
	"sync"
)

type registryEntry struct {
	rec    *StyleRecord
	handle string
}

// EvictFunc is called with the handle of an entry that was overwritten,
// removed, or torn down. It is only called for non-empty handles.
type EvictFunc func(name, handle string)

type RegistryOption func(*Registry)

func WithEvictHook(fn EvictFunc) RegistryOption {
	return func(r *Registry) { r.onEvict = fn }
}

// Registry holds one StyleRecord per module name. It is the single source
// of truth read by the dependency sorter.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
	order   []string // registration order
	onEvict EvictFunc
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{entries: make(map[string]*registryEntry)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Upsert publishes rec, replacing any record already registered under the
// same name. A replaced record keeps its registration position.
func (r *Registry) Upsert(rec *StyleRecord) {
	r.UpsertWithHandle(rec, "")
}

// UpsertWithHandle publishes rec together with its resource handle, so
// readers never see one without the other. The replaced entry's handle is
// evicted.
func (r *Registry) UpsertWithHandle(rec *StyleRecord, handle string) {
	var evicted string

	r.mu.Lock()
	if e, ok := r.entries[rec.Name]; ok {
		evicted = e.handle
		e.rec = rec
		e.handle = handle
	} else {
		r.entries[rec.Name] = &registryEntry{rec: rec, handle: handle}
		r.order = append(r.order, rec.Name)
	}
	r.mu.Unlock()

	if evicted != handle {
		r.evict(rec.Name, evicted)
	}
}

func (r *Registry) Get(name string) (*StyleRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.rec, true
}

// AllNames returns every registered name in registration order.
func (r *Registry) AllNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Remove drops the record registered under name. Used by hot reload when a
// module disappears.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	e, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.evict(name, e.handle)
	return true
}

func (r *Registry) Handle(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[name]; ok {
		return e.handle
	}
	return ""
}

// Close releases every attached handle. Records stay registered.
func (r *Registry) Close() {
	type pair struct{ name, handle string }
	var released []pair

	r.mu.Lock()
	for _, name := range r.order {
		e := r.entries[name]
		if e.handle != "" {
			released = append(released, pair{name, e.handle})
			e.handle = ""
		}
	}
	r.mu.Unlock()

	for _, p := range released {
		r.evict(p.name, p.handle)
	}
}

func (r *Registry) evict(name, handle string) {
	if handle != "" && r.onEvict != nil {
		r.onEvict(name, handle)
	}
}

// renderEntry is one row of a render snapshot.
type renderEntry struct {
	rec    *StyleRecord
	handle string
}

// Sort returns the dependency-respecting injection order of every
// registered record.
func (r *Registry) Sort() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return SortDependencies(r.recordsLocked())
}

// sortedRecords sorts and snapshots records and handles under a single
// read lock so the order and the content always come from the same state.
func (r *Registry) sortedRecords() ([]renderEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names, err := SortDependencies(r.recordsLocked())
	if err != nil {
		return nil, err
	}
	out := make([]renderEntry, 0, len(names))
	for _, name := range names {
		e := r.entries[name]
		out = append(out, renderEntry{rec: e.rec, handle: e.handle})
	}
	return out, nil
}

func (r *Registry) recordsLocked() []*StyleRecord {
	recs := make([]*StyleRecord, 0, len(r.order))
	for _, name := range r.order {
		recs = append(recs, r.entries[name].rec)
	}
	return recs
}

package filters

import (
	"sort"
	"sync"
)

// Registry maps store identifiers to stores. Stores are created lazily with
// the registry's options and live until disposed. A Registry is safe for
// concurrent use.
type Registry struct {
	opts []Option

	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry constructs an empty registry; opts apply to every store it
// creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		opts:   append([]Option(nil), opts...),
		stores: map[string]*Store{},
	}
}

// Store returns the store for id, creating it on first use. An empty id
// selects DefaultStoreID.
func (r *Registry) Store(id string) *Store {
	if id == "" {
		id = DefaultStoreID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[id]; ok {
		return s
	}
	s := NewStore(id, r.opts...)
	r.stores[id] = s
	return s
}

// Lookup returns the store for id without creating it.
func (r *Registry) Lookup(id string) (*Store, bool) {
	if id == "" {
		id = DefaultStoreID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[id]
	return s, ok
}

// IDs returns the identifiers of the live stores, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.stores))
	for id := range r.stores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dispose forgets the store for id; the next Store call builds a fresh one.
func (r *Registry) Dispose(id string) {
	if id == "" {
		id = DefaultStoreID
	}
	r.mu.Lock()
	delete(r.stores, id)
	r.mu.Unlock()
}

// Reset forgets every store.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.stores = map[string]*Store{}
	r.mu.Unlock()
}

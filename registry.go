package cachesnap

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the configured cache backends by alias. The recorder
// discovers backends through it and swaps instrumented stores in and out;
// application code should resolve stores through Lookup so it always sees
// the instrumented surface while a recording is active.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]Store
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]Store)}
}

// Register adds or replaces the backend stored under alias. An empty alias
// registers the default backend.
func (r *Registry) Register(alias string, store Store) {
	if alias == "" {
		alias = DefaultAlias
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[alias] = store
}

// Lookup returns the live store for alias. While a recording is active this
// is the instrumented wrapper.
func (r *Registry) Lookup(alias string) (Store, bool) {
	if alias == "" {
		alias = DefaultAlias
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.stores[alias]
	return store, ok
}

// Aliases returns the configured backend names in sorted order, so
// interceptors attach in a deterministic sequence across runs.
func (r *Registry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	aliases := make([]string, 0, len(r.stores))
	for alias := range r.stores {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// swap atomically replaces the store under alias with wrap(current) and
// returns the store that was replaced.
func (r *Registry) swap(alias string, wrap func(Store) Store) (Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.stores[alias]
	if !ok {
		return nil, fmt.Errorf("cachesnap: unknown cache alias %q", alias)
	}
	r.stores[alias] = wrap(current)
	return current, nil
}

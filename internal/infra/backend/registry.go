package backend

import (
	"fmt"
	"sync"

	"github.com/vietddude/bridge/internal/core/domain"
)

// Registry holds the named backends available to resolution. Lookup is
// safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds a backend under its own name.
func (r *Registry) Register(a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := a.Name()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("%w: backend %q already registered", domain.ErrConfiguration, name)
	}
	r.adapters[name] = a
	r.order = append(r.order, name)
	return nil
}

// Get returns a backend by name. A missing name is a Configuration
// failure, never a silent substitution.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: backend %q not registered", domain.ErrConfiguration, name)
	}
	return a, nil
}

// Names returns registered backend names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// CloseAll closes every registered backend, returning the first error.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for _, name := range r.order {
		if err := r.adapters[name].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

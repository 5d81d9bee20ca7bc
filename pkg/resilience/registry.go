package resilience

import (
	"sort"
	"sync"
)

// Registry keeps the process-wide breakers by dependency name so they can be
// inspected and reset from the admin surface.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
}

func NewRegistry() *Registry {
	return &Registry{breakers: make(map[string]*CircuitBreaker)}
}

// Register stores cb under its name, replacing any previous breaker with that name.
func (r *Registry) Register(cb *CircuitBreaker) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakers[cb.Name()] = cb
	return cb
}

func (r *Registry) Get(name string) (*CircuitBreaker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cb, ok := r.breakers[name]
	return cb, ok
}

// Stats returns a snapshot of every breaker sorted by name.
func (r *Registry) Stats() []Stats {
	r.mu.RLock()
	out := make([]Stats, 0, len(r.breakers))
	for _, cb := range r.breakers {
		out = append(out, cb.Stats())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AnyOpen reports whether at least one registered breaker is not CLOSED.
func (r *Registry) AnyOpen() bool {
	for _, s := range r.Stats() {
		if s.State != StateClosed {
			return true
		}
	}
	return false
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Provider computes a fixture value. It may request other fixtures from
// the scope; the scope memoizes every value it produces.
type Provider func(ctx context.Context, scope *Scope) (any, error)

// Errors returned when fixture resolution fails.
var (
	// ErrNotFound is returned when a requested name has no provider and
	// no instance in the scope.
	ErrNotFound = errors.New("fixture not defined")

	// ErrCycle is returned when fixture providers depend on each other.
	ErrCycle = errors.New("fixture dependency cycle")

	// ErrScopeClosed is returned when a closed scope is used.
	ErrScopeClosed = errors.New("fixture scope is closed")

	// ErrWrongType is returned by Resolve when the fixture value does not
	// have the requested type.
	ErrWrongType = errors.New("fixture has wrong type")
)

// Registry holds named fixture providers. A Registry is safe for
// concurrent use. Registries chain: lookups fall back to the parent, so a
// run can layer job-specific fixtures over a shared base set.
type Registry struct {
	mu        sync.RWMutex
	parent    *Registry
	providers map[string]Provider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// NewChildRegistry returns an empty registry that falls back to parent
// for names it does not define.
func NewChildRegistry(parent *Registry) *Registry {
	return &Registry{parent: parent, providers: map[string]Provider{}}
}

// Register installs a provider under a name and any number of aliases.
// Returns an error if any of the names is already taken.
func (r *Registry) Register(name string, provider Provider, aliases ...string) error {
	if name == "" {
		return fmt.Errorf("fixture: name is required")
	}
	if provider == nil {
		return fmt.Errorf("fixture: provider is required for %s", name)
	}

	names := append([]string{name}, aliases...)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range names {
		if _, exists := r.providers[n]; exists {
			return fmt.Errorf("fixture: %s already registered", n)
		}
	}
	for _, n := range names {
		r.providers[n] = provider
	}
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(name string, provider Provider, aliases ...string) {
	if err := r.Register(name, provider, aliases...); err != nil {
		panic(err)
	}
}

// Provider looks up a provider by name, consulting parents.
func (r *Registry) Provider(name string) (Provider, bool) {
	r.mu.RLock()
	p, ok := r.providers[name]
	r.mu.RUnlock()

	if !ok && r.parent != nil {
		return r.parent.Provider(name)
	}
	return p, ok
}

// Has reports whether a provider exists for the name.
func (r *Registry) Has(name string) bool {
	_, ok := r.Provider(name)
	return ok
}

// Names returns a sorted list of all registered fixture names, including
// the parent's.
func (r *Registry) Names() []string {
	seen := map[string]bool{}
	r.collect(seen)

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) collect(seen map[string]bool) {
	r.mu.RLock()
	for n := range r.providers {
		seen[n] = true
	}
	r.mu.RUnlock()

	if r.parent != nil {
		r.parent.collect(seen)
	}
}

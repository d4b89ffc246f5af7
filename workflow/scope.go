package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Scope caches fixture instances for a single workflow run. Every name is
// instantiated at most once per scope; later requests return the cached
// value. Close releases the scope, running registered teardowns in reverse
// order.
//
// A Scope is not safe for concurrent use: a workflow run resolves fixtures
// from a single goroutine.
type Scope struct {
	registry  *Registry
	instances map[string]any
	resolving []string
	teardowns []func(context.Context) error
	closed    bool
}

// NewScope creates a scope resolving fixtures from the given registry.
// A nil registry yields a scope that only serves explicitly Set values.
func NewScope(registry *Registry) *Scope {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Scope{
		registry:  registry,
		instances: map[string]any{},
	}
}

// Registry returns the registry the scope resolves from.
func (s *Scope) Registry() *Registry {
	return s.registry
}

// Set injects a pre-built instance under one or more names, bypassing any
// registered provider.
func (s *Scope) Set(name string, value any, aliases ...string) {
	s.instances[name] = value
	for _, alias := range aliases {
		s.instances[alias] = value
	}
}

// Has reports whether the name is resolvable, either as a cached instance
// or through the registry.
func (s *Scope) Has(name string) bool {
	if _, ok := s.instances[name]; ok {
		return true
	}
	return s.registry.Has(name)
}

// Get returns the fixture value for the name, instantiating and caching it
// on first request.
func (s *Scope) Get(ctx context.Context, name string) (any, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: cannot get %s", ErrScopeClosed, name)
	}

	if instance, ok := s.instances[name]; ok {
		return instance, nil
	}

	provider, ok := s.registry.Provider(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if slices.Contains(s.resolving, name) {
		return nil, fmt.Errorf("%w: %v -> %s", ErrCycle, s.resolving, name)
	}

	s.resolving = append(s.resolving, name)
	instance, err := provider(ctx, s)
	s.resolving = s.resolving[:len(s.resolving)-1]

	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", name, err)
	}

	s.instances[name] = instance
	return instance, nil
}

// Defer registers a teardown to run when the scope closes. Teardowns run
// in reverse registration order, mirroring fixture construction order.
func (s *Scope) Defer(teardown func(context.Context) error) {
	s.teardowns = append(s.teardowns, teardown)
}

// Close releases the scope. It is idempotent; the first call runs all
// teardowns and aggregates their errors.
func (s *Scope) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for i := len(s.teardowns) - 1; i >= 0; i-- {
		if err := s.teardowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.teardowns = nil
	s.instances = map[string]any{}

	return errors.Join(errs...)
}

// Resolve returns the fixture value for the name, asserting its type.
func Resolve[T any](ctx context.Context, s *Scope, name string) (T, error) {
	var zero T

	instance, err := s.Get(ctx, name)
	if err != nil {
		return zero, err
	}

	value, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T, not %T", ErrWrongType, name, instance, zero)
	}
	return value, nil
}

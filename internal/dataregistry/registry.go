// Package dataregistry is the typed exchange store steps use to hand data to
// later steps without a static dependency between their implementations.
package dataregistry

// Entry is a value together with the name of the step that provided it.
type Entry[T any] struct {
	Provider string
	Value    T
}

// Registry records values in insertion order. It is not safe for concurrent
// use; the executor runs steps one at a time.
type Registry struct {
	entries []Entry[any]
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Insert records value as provided by the named step.
func (r *Registry) Insert(value any, provider string) {
	r.entries = append(r.entries, Entry[any]{Provider: provider, Value: value})
}

// Len returns the number of recorded values.
func (r *Registry) Len() int {
	return len(r.entries)
}

// FindData returns every recorded value assignable to T, in insertion order,
// across all providers.
func FindData[T any](r *Registry) []T {
	var out []T
	for _, e := range r.entries {
		if v, ok := e.Value.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// FindEntries is FindData that keeps the provider name of each value.
func FindEntries[T any](r *Registry) []Entry[T] {
	var out []Entry[T]
	for _, e := range r.entries {
		if v, ok := e.Value.(T); ok {
			out = append(out, Entry[T]{Provider: e.Provider, Value: v})
		}
	}
	return out
}

// FindLast returns the most recently recorded value assignable to T.
func FindLast[T any](r *Registry) (T, bool) {
	for i := len(r.entries) - 1; i >= 0; i-- {
		if v, ok := r.entries[i].Value.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

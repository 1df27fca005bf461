package step

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps module names to the factories of the steps they provide.
// It replaces importing step classes by module path. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]map[string]Factory)}
}

// Default is the process wide registry the built-in steps register with.
var Default = NewRegistry()

// Register adds a factory to the Default registry.
func Register(module, name string, factory Factory) {
	Default.Register(module, name, factory)
}

// Register adds factory as step name of module. It panics when the pair is
// already registered or factory is nil, mirroring database/sql.Register.
func (r *Registry) Register(module, name string, factory Factory) {
	if factory == nil {
		panic(fmt.Sprintf("step: Register factory for %s.%s is nil", module, name))
	}
	if module == "" || name == "" {
		panic("step: Register requires a module and a step name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	steps, ok := r.modules[module]
	if !ok {
		steps = make(map[string]Factory)
		r.modules[module] = steps
	}
	if _, dup := steps[name]; dup {
		panic(fmt.Sprintf("step: Register called twice for %s.%s", module, name))
	}
	steps[name] = factory
}

// Lookup returns the factory of step name in module.
func (r *Registry) Lookup(module, name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	steps, ok := r.modules[module]
	if !ok {
		return nil, fmt.Errorf("module %q is not registered", module)
	}
	factory, ok := steps[name]
	if !ok {
		return nil, fmt.Errorf("module %q has no step %q", module, name)
	}
	return factory, nil
}

// Find returns the factory and module of the step called name, which must
// be provided by exactly one module.
func (r *Registry) Find(name string) (Factory, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found   Factory
		modules []string
	)
	for module, steps := range r.modules {
		if factory, ok := steps[name]; ok {
			found = factory
			modules = append(modules, module)
		}
	}

	switch len(modules) {
	case 0:
		return nil, "", fmt.Errorf("no registered module provides step %q", name)
	case 1:
		return found, modules[0], nil
	default:
		sort.Strings(modules)
		return nil, "", fmt.Errorf("step %q is ambiguous, provided by: %s", name, strings.Join(modules, ", "))
	}
}

// Modules returns the registered module names sorted.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.modules))
	for module := range r.modules {
		out = append(out, module)
	}
	sort.Strings(out)
	return out
}

// Steps returns the step names of module sorted.
func (r *Registry) Steps(module string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.modules[module]))
	for name := range r.modules[module] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

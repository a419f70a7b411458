// Package transform provides the registry of named value transformations that
// field tokens reference with a pipe suffix, as in "assoc:pvalue|neglog10".
package transform

import (
	"sort"
	"strings"
	"sync"

	"github.com/statgen/locuszoom-sub005/errors"
)

// Func is a pure unary value mapping.
type Func func(any) any

// Registry maps transform names to functions. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// Default is the process-wide registry, initialized with the built-in set.
// Callers may extend it at startup, before any pipeline runs.
var Default = NewDefaultRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// NewDefaultRegistry creates a registry holding the built-in transforms.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for name, fn := range builtins() {
		r.funcs[name] = fn
	}
	return r
}

// Get returns the named function. A name starting with "|" is treated as a
// pipe chain: Get("|a|b") returns a function equivalent to b(a(x)). An empty
// name returns a nil Func and no error.
func (r *Registry) Get(name string) (Func, error) {
	if name == "" {
		return nil, nil
	}
	if !strings.HasPrefix(name, "|") {
		return r.lookup(name)
	}

	var chain []Func
	for _, part := range strings.Split(name[1:], "|") {
		if part == "" {
			continue
		}
		fn, err := r.lookup(part)
		if err != nil {
			return nil, err
		}
		chain = append(chain, fn)
	}
	return Compose(chain...), nil
}

func (r *Registry) lookup(name string) (Func, error) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &errors.UnknownTransformError{Name: name}
	}
	return fn, nil
}

// Add registers fn under name. It fails if name is already registered.
func (r *Registry) Add(name string, fn Func) error {
	if name == "" || fn == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "transform.Registry", "Add", "name and function validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.funcs[name]; exists {
		return &errors.DuplicateTransformError{Name: name}
	}
	r.funcs[name] = fn
	return nil
}

// Set registers fn under name, replacing any existing entry. A nil fn deletes it.
func (r *Registry) Set(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fn == nil {
		delete(r.funcs, name)
		return
	}
	r.funcs[name] = fn
}

// List returns all registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Compose returns a function applying fns left to right. It returns nil when
// fns is empty so callers can skip the call entirely.
func Compose(fns ...Func) Func {
	switch len(fns) {
	case 0:
		return nil
	case 1:
		return fns[0]
	}
	return func(v any) any {
		for _, fn := range fns {
			v = fn(v)
		}
		return v
	}
}

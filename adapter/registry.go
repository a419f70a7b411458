package adapter

import (
	"fmt"
	"sort"
	"sync"

	"github.com/statgen/locuszoom-sub005/errors"
)

// Factory creates a Source for namespace id from its spec. Factories must not
// perform I/O beyond validating configuration.
type Factory func(id string, spec Spec, deps Dependencies) (Source, error)

// Registration holds a factory and its metadata.
type Registration struct {
	Name        string  `json:"name"`
	Protocol    string  `json:"protocol"`
	Description string  `json:"description"`
	Factory     Factory `json:"-"`
}

// Registry maps adapter type names to factories.
type Registry struct {
	factories map[string]*Registration
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]*Registration)}
}

// RegisterFactory adds a factory under name. Duplicate names are rejected.
func (r *Registry) RegisterFactory(name string, registration *Registration) error {
	if name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "factory name validation")
	}
	if registration == nil || registration.Factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "factory function validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		msg := fmt.Errorf("factory '%s' is already registered", name)
		return errors.WrapInvalid(msg, "Registry", "RegisterFactory", "duplicate factory check")
	}
	if registration.Name == "" {
		registration.Name = name
	}
	r.factories[name] = registration
	return nil
}

// Create builds the Source for namespace id using the factory named by spec.Type.
func (r *Registry) Create(id string, spec Spec, deps Dependencies) (Source, error) {
	if spec.Type == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "Create",
			fmt.Sprintf("source %q has no type", id))
	}

	r.mu.RLock()
	registration, exists := r.factories[spec.Type]
	r.mu.RUnlock()

	if !exists {
		msg := fmt.Errorf("unknown adapter type '%s' for source %q", spec.Type, id)
		return nil, errors.WrapInvalid(msg, "Registry", "Create", "factory lookup")
	}

	src, err := registration.Factory(id, spec, deps)
	if err != nil {
		return nil, errors.Wrap(err, "Registry", "Create", fmt.Sprintf("create %s source %q", spec.Type, id))
	}
	return src, nil
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registration returns the metadata registered under name.
func (r *Registry) Registration(name string) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.factories[name]
	return reg, ok
}

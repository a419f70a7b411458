package requester

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/errors"
)

// Sources maps namespaces to the adapters serving them.
type Sources struct {
	mu      sync.RWMutex
	sources map[string]adapter.Source
}

// NewSources creates an empty table.
func NewSources() *Sources {
	return &Sources{sources: make(map[string]adapter.Source)}
}

// FromSpecs creates one source per spec through registry. Namespaces are
// created in sorted order so failures are reported deterministically.
func FromSpecs(registry *adapter.Registry, specs map[string]adapter.Spec, deps adapter.Dependencies) (*Sources, error) {
	names := make([]string, 0, len(specs))
	for ns := range specs {
		names = append(names, ns)
	}
	sort.Strings(names)

	table := NewSources()
	for _, ns := range names {
		src, err := registry.Create(ns, specs[ns], deps)
		if err != nil {
			_ = table.Close(context.Background())
			return nil, errors.Wrap(err, "Sources", "FromSpecs", fmt.Sprintf("create source %q", ns))
		}
		table.Set(ns, src)
	}
	return table, nil
}

// Add registers src under ns, failing if the namespace is taken.
func (s *Sources) Add(ns string, src adapter.Source) error {
	if ns == "" || src == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Sources", "Add", "namespace and source are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sources[ns]; exists {
		return errors.WrapInvalid(fmt.Errorf("namespace %q already has a source", ns), "Sources", "Add", "duplicate namespace")
	}
	s.sources[ns] = src
	return nil
}

// Set registers src under ns, replacing any existing source.
func (s *Sources) Set(ns string, src adapter.Source) {
	s.mu.Lock()
	s.sources[ns] = src
	s.mu.Unlock()
}

// Remove deletes the source for ns.
func (s *Sources) Remove(ns string) {
	s.mu.Lock()
	delete(s.sources, ns)
	s.mu.Unlock()
}

// Get returns the source for ns.
func (s *Sources) Get(ns string) (adapter.Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[ns]
	return src, ok
}

// Keys returns the namespaces in sorted order.
func (s *Sources) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.sources))
	for k := range s.sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close closes every source holding resources (connections, caches).
func (s *Sources) Close(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var errs []error
	for ns, src := range s.sources {
		var err error
		switch c := src.(type) {
		case interface{ Close(context.Context) error }:
			err = c.Close(ctx)
		case io.Closer:
			err = c.Close()
		}
		if err != nil {
			errs = append(errs, errors.Wrap(err, "Sources", "Close", fmt.Sprintf("close source %q", ns)))
		}
	}
	return stderrors.Join(errs...)
}

// Package static serves rows embedded in the adapter configuration.
package static

import (
	"context"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
)

// Type is the adapter type name used in configuration.
const Type = "static"

// Source serves the "data" param. It never caches, since there is nothing to
// fetch.
type Source struct {
	*adapter.Base

	data        any
	passthrough bool
}

// New creates a static source. "data" holds rows or columns; "passthrough"
// returns rows whole instead of projecting them onto the requested fields.
func New(id string, spec adapter.Spec, deps adapter.Dependencies) (adapter.Source, error) {
	data, ok := spec.Params["data"]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, Type, "New", "data param is required")
	}
	if _, err := adapter.ToRecords(data); err != nil {
		return nil, errors.Wrap(err, Type, "New", "validate data param")
	}

	s := &Source{data: data, passthrough: spec.Params.Bool("passthrough", false)}
	base, err := adapter.NewBase(s, id, spec, deps, adapter.WithoutCache())
	if err != nil {
		return nil, err
	}
	s.Base = base
	return s, nil
}

// Registration describes the adapter for an adapter.Registry.
func Registration() *adapter.Registration {
	return &adapter.Registration{
		Name:        Type,
		Protocol:    "none",
		Description: "Rows supplied in configuration",
		Factory:     New,
	}
}

// CacheKey disables caching.
func (s *Source) CacheKey(chain.State, *chain.Chain, []string) (string, bool) {
	return "", false
}

// Fetch returns the configured data.
func (s *Source) Fetch(context.Context, chain.State, *chain.Chain, []string) (any, error) {
	return s.data, nil
}

// Extract projects rows onto the requested fields unless passthrough is set.
func (s *Source) Extract(rows []chain.Record, req adapter.Request) ([]chain.Record, error) {
	if s.passthrough {
		return rows, nil
	}
	return adapter.ExtractFields(rows, req)
}

// Package interval fetches interval annotations, such as chromatin states,
// overlapping a region.
package interval

import (
	"context"
	"fmt"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
)

// Type is the adapter type name used in configuration.
const Type = "interval"

// Source is the interval annotation adapter.
type Source struct {
	*adapter.Base

	url    string
	source string
	http   *adapter.HTTPClient
}

// New creates an interval source; the "source" param selects the dataset.
func New(id string, spec adapter.Spec, deps adapter.Dependencies) (adapter.Source, error) {
	if err := spec.RequireURL(Type); err != nil {
		return nil, err
	}
	source := spec.Params.String("source", "")
	if source == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, Type, "New", "source param is required")
	}

	client, err := adapter.NewHTTPClient(id, spec.Params, deps.GetLoggerWithSource(id))
	if err != nil {
		return nil, err
	}
	s := &Source{
		url:    spec.URL,
		source: source,
		http:   client,
	}
	base, err := adapter.NewBase(s, id, spec, deps)
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
		Protocol:    "http",
		Description: "Interval annotations overlapping the region",
		Factory:     New,
	}
}

// RequestURL builds the query for state.
func (s *Source) RequestURL(state chain.State) string {
	filter := fmt.Sprintf("id in %s and chromosome eq '%s' and start le %d and end ge %d",
		s.source, state.Chr, state.End, state.Start)
	return adapter.FilterURL(s.url, filter, nil)
}

// CacheKey is the request URL.
func (s *Source) CacheKey(state chain.State, _ *chain.Chain, _ []string) (string, bool) {
	return s.RequestURL(state), true
}

// Fetch retrieves the overlapping intervals.
func (s *Source) Fetch(ctx context.Context, state chain.State, _ *chain.Chain, _ []string) (any, error) {
	return s.http.GetJSON(ctx, s.RequestURL(state))
}

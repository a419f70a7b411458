// Package gene fetches gene annotations overlapping a region.
package gene

import (
	"context"
	"fmt"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
)

// Type is the adapter type name used in configuration.
const Type = "gene"

// Source is the gene adapter. Gene records are nested (exons, transcripts),
// so rows are passed through whole rather than projected onto fields.
type Source struct {
	*adapter.Base

	url    string
	source string
	http   *adapter.HTTPClient
}

// New creates a gene source. The "source" param selects the annotation set.
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
		Description: "Gene annotations overlapping the region",
		Factory:     New,
	}
}

// RequestURL builds the query for state.
func (s *Source) RequestURL(state chain.State) string {
	filter := fmt.Sprintf("source in %s and chrom eq '%s' and start le %d and end ge %d",
		s.source, state.Chr, state.End, state.Start)
	return adapter.FilterURL(s.url, filter, nil)
}

// CacheKey is the request URL.
func (s *Source) CacheKey(state chain.State, _ *chain.Chain, _ []string) (string, bool) {
	return s.RequestURL(state), true
}

// Fetch retrieves the genes in the region.
func (s *Source) Fetch(ctx context.Context, state chain.State, _ *chain.Chain, _ []string) (any, error) {
	return s.http.GetJSON(ctx, s.RequestURL(state))
}

// Extract returns the gene records unchanged.
func (s *Source) Extract(rows []chain.Record, _ adapter.Request) ([]chain.Record, error) {
	return rows, nil
}

// Package phewas fetches phenome-wide association results for one variant.
package phewas

import (
	"context"
	"net/url"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
)

// Type is the adapter type name used in configuration.
const Type = "phewas"

// VariantKey is the state param naming the variant of interest.
const VariantKey = "variant"

// Source is the PheWAS adapter.
type Source struct {
	*adapter.Base

	url     string
	builds  []string
	variant string
	http    *adapter.HTTPClient
}

// New creates a PheWAS source. The "build" param lists the genome builds to
// query and is required; "variant" sets a default variant used when the
// request state has none.
func New(id string, spec adapter.Spec, deps adapter.Dependencies) (adapter.Source, error) {
	if err := spec.RequireURL(Type); err != nil {
		return nil, err
	}
	builds := spec.Params.Strings("build")
	if len(builds) == 0 {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, Type, "New", "build param is required")
	}

	client, err := adapter.NewHTTPClient(id, spec.Params, deps.GetLoggerWithSource(id))
	if err != nil {
		return nil, err
	}
	s := &Source{
		url:     spec.URL,
		builds:  builds,
		variant: spec.Params.String(VariantKey, ""),
		http:    client,
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
		Description: "Phenome-wide association results for a single variant",
		Factory:     New,
	}
}

func (s *Source) variantFor(state chain.State) string {
	if v := state.GetString(VariantKey); v != "" {
		return v
	}
	return s.variant
}

// RequestURL builds the query for state.
func (s *Source) RequestURL(state chain.State) string {
	return adapter.FilterURL(s.url, "variant eq '"+s.variantFor(state)+"'", url.Values{
		"format": {"objects"},
		"build":  s.builds,
	})
}

// CacheKey is the request URL.
func (s *Source) CacheKey(state chain.State, _ *chain.Chain, _ []string) (string, bool) {
	return s.RequestURL(state), true
}

// Fetch retrieves results for the state's variant.
func (s *Source) Fetch(ctx context.Context, state chain.State, _ *chain.Chain, _ []string) (any, error) {
	if s.variantFor(state) == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, Type, "Fetch", "no variant in request state or params")
	}
	return s.http.GetJSON(ctx, s.RequestURL(state))
}

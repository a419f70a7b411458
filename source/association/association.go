// Package association fetches single-variant association results for a
// region from a REST API that filters by analysis and position.
package association

import (
	"context"
	"fmt"
	"net/url"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/join"
	"github.com/statgen/locuszoom-sub005/transform"
)

// Type is the adapter type name used in configuration.
const Type = "association"

// Source is the association adapter.
type Source struct {
	*adapter.Base

	url      string
	analysis string
	sort     bool
	http     *adapter.HTTPClient
}

// New creates an association source. The "analysis" param (or its alias
// "source") selects the dataset; "sort" orders rows by position.
func New(id string, spec adapter.Spec, deps adapter.Dependencies) (adapter.Source, error) {
	if err := spec.RequireURL(Type); err != nil {
		return nil, err
	}
	analysis := spec.Params.String("analysis", spec.Params.String("source", ""))
	if analysis == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, Type, "New", "analysis param is required")
	}

	client, err := adapter.NewHTTPClient(id, spec.Params, deps.GetLoggerWithSource(id))
	if err != nil {
		return nil, err
	}
	s := &Source{
		url:      spec.URL,
		analysis: analysis,
		sort:     spec.Params.Bool("sort", false),
		http:     client,
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
		Description: "Single-variant association results filtered by analysis and region",
		Factory:     New,
	}
}

// RequestURL builds the query for state.
func (s *Source) RequestURL(state chain.State) string {
	filter := fmt.Sprintf("analysis in %s and chromosome in '%s' and position ge %d and position le %d",
		s.analysis, state.Chr, state.Start, state.End)
	return s.url + "results/?" + url.Values{"filter": {filter}}.Encode()
}

// CacheKey is the request URL.
func (s *Source) CacheKey(state chain.State, _ *chain.Chain, _ []string) (string, bool) {
	return s.RequestURL(state), true
}

// Fetch retrieves the region's results.
func (s *Source) Fetch(ctx context.Context, state chain.State, _ *chain.Chain, _ []string) (any, error) {
	return s.http.GetJSON(ctx, s.RequestURL(state))
}

// Annotate orders rows by position when configured and derives log_pvalue
// from pvalue on rows that lack it.
func (s *Source) Annotate(rows []chain.Record, _ *chain.Chain) ([]chain.Record, error) {
	if s.sort {
		join.SortByField(rows, "position")
	}
	for _, row := range rows {
		if _, ok := row["log_pvalue"]; ok {
			continue
		}
		if p, ok := row["pvalue"]; ok {
			row["log_pvalue"] = transform.NegLog10(p)
		}
	}
	return rows, nil
}

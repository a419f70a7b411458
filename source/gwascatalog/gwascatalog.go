// Package gwascatalog fetches published GWAS hits in a region and marks the
// association rows they coincide with.
package gwascatalog

import (
	"context"
	"fmt"
	"net/url"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/join"
)

// Type is the adapter type name used in configuration.
const Type = "gwascatalog"

// Source is the GWAS catalog adapter.
type Source struct {
	*adapter.Base

	url           string
	source        string
	positionField string
	scoreField    string
	columns       join.MergeColumns
	http          *adapter.HTTPClient
}

// New creates a catalog source. The "source" param selects the catalog
// build; "position_field" and "score_field" name the catalog's position and
// significance columns (default pos and log_pvalue).
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
		url:           spec.URL,
		source:        source,
		positionField: spec.Params.String("position_field", "pos"),
		scoreField:    spec.Params.String("score_field", "log_pvalue"),
		columns:       join.MergeColumns{Position: spec.Params.String("body_position_field", "")},
		http:          client,
	}
	base, err := adapter.NewBase(s, id, spec, deps, adapter.Dependent())
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
		Description: "GWAS catalog hits merged onto association rows by position",
		Factory:     New,
	}
}

// RequestURL builds the query for state.
func (s *Source) RequestURL(state chain.State) string {
	filter := fmt.Sprintf("id eq %s and chrom eq '%s' and pos ge %d and pos le %d",
		s.source, state.Chr, state.Start, state.End)
	return adapter.FilterURL(s.url, filter, url.Values{"format": {"objects"}, "sort": {"pos"}})
}

// CacheKey is the request URL.
func (s *Source) CacheKey(state chain.State, _ *chain.Chain, _ []string) (string, bool) {
	return s.RequestURL(state), true
}

// Fetch retrieves the catalog hits in the region.
func (s *Source) Fetch(ctx context.Context, state chain.State, _ *chain.Chain, _ []string) (any, error) {
	return s.http.GetJSON(ctx, s.RequestURL(state))
}

// Extract keeps catalog rows whole; positions and scores are needed to merge
// even when they are not requested.
func (s *Source) Extract(rows []chain.Record, _ adapter.Request) ([]chain.Record, error) {
	return rows, nil
}

// Combine copies the requested fields of the most significant catalog hit at
// each body position onto that body row. Rows without a hit are unchanged.
func (s *Source) Combine(_ context.Context, rows []chain.Record, c *chain.Chain, _ chain.State, req adapter.Request) ([]chain.Record, error) {
	body := chain.CloneRecords(c.Body)
	if len(rows) == 0 {
		return body, nil
	}

	cols := join.FindMergeColumns(chain.Names(body), s.columns)
	if err := cols.Require("position"); err != nil {
		return nil, err
	}
	outnames := make([]string, len(req.Fields))
	for i, f := range req.Fields {
		outnames[i] = f
		if i < len(req.Outnames) && req.Outnames[i] != "" {
			outnames[i] = req.Outnames[i]
		}
		if !anyHas(rows, f) {
			return nil, &errors.MissingFieldError{Field: f, Outname: outnames[i]}
		}
	}

	catalog := chain.CloneRecords(rows)
	join.SortByField(catalog, s.positionField)
	view := append([]chain.Record(nil), body...)
	join.SortByField(view, cols.Position)

	join.GroupSortedMatches(view, catalog, cols.Position, s.positionField, func(row chain.Record, hits []chain.Record) {
		best, err := join.ExtremeIndex(hits, s.scoreField, join.Maximum)
		if err != nil {
			return
		}
		for i, f := range req.Fields {
			v, ok := hits[best][f]
			if !ok {
				continue
			}
			if i < len(req.Transforms) && req.Transforms[i] != nil {
				v = req.Transforms[i](v)
			}
			row[outnames[i]] = v
		}
	})
	return body, nil
}

func anyHas(rows []chain.Record, field string) bool {
	for _, row := range rows {
		if _, ok := row[field]; ok {
			return true
		}
	}
	return false
}

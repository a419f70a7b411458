// Package ld fetches linkage disequilibrium between a reference variant and
// the variants of a region from an LDServer API, and merges it onto the
// association rows already in the chain.
package ld

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/join"
	"github.com/statgen/locuszoom-sub005/transform"
)

// Type is the adapter type name used in configuration.
const Type = "ld"

// RefVarKey is the state param and header key holding the reference variant.
const RefVarKey = "ldrefvar"

// Defaults for the LDServer request.
const (
	DefaultBuild      = "GRCh37"
	DefaultReference  = "1000G"
	DefaultPopulation = "ALL"
	DefaultMethod     = "rsquare"
	DefaultMaxPages   = 50
)

// Columns of an LDServer response.
const (
	positionColumn    = "position2"
	correlationColumn = "correlation"
	refVarField       = "isrefvar"
)

// correlationAliases are requested field names served by the correlation column.
var correlationAliases = map[string]bool{"state": true, "rsquare": true, "correlation": true, "r2": true}

// Source is the LD adapter.
type Source struct {
	*adapter.Base

	url        string
	build      string
	reference  string
	population string
	method     string
	maxPages   int
	columns    join.MergeColumns
	http       *adapter.HTTPClient
}

// New creates an LD source. Params: build, source (reference panel),
// population, method, max_pages, and id_field/position_field/pvalue_field to
// name the association columns instead of matching them by pattern.
func New(id string, spec adapter.Spec, deps adapter.Dependencies) (adapter.Source, error) {
	if err := spec.RequireURL(Type); err != nil {
		return nil, err
	}

	p := spec.Params
	client, err := adapter.NewHTTPClient(id, p, deps.GetLoggerWithSource(id))
	if err != nil {
		return nil, err
	}
	s := &Source{
		url:        strings.TrimSuffix(spec.URL, "/") + "/",
		build:      p.String("build", DefaultBuild),
		reference:  p.String("source", DefaultReference),
		population: p.String("population", DefaultPopulation),
		method:     p.String("method", DefaultMethod),
		maxPages:   p.Int("max_pages", DefaultMaxPages),
		columns: join.MergeColumns{
			ID:       p.String("id_field", ""),
			Position: p.String("position_field", ""),
			PValue:   p.String("pvalue_field", ""),
		},
		http: client,
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
		Description: "LD from an LDServer relative to a reference variant, merged by position",
		Factory:     New,
	}
}

// Prepare picks the reference variant: the ldrefvar state param when set,
// otherwise the most significant variant in the current body. The choice is
// recorded in the chain header and passed on through the state.
func (s *Source) Prepare(_ context.Context, state chain.State, c *chain.Chain, req adapter.Request) (chain.State, adapter.Request, error) {
	refvar := state.GetString(RefVarKey)
	if refvar == "" {
		var err error
		if refvar, err = s.mostSignificant(c.Body, state.Chr); err != nil {
			return state, req, err
		}
	}
	refvar = join.NormalizeVariant(refvar)

	if c.Header == nil {
		c.Header = make(map[string]any)
	}
	c.Header[RefVarKey] = refvar

	params := make(map[string]any, len(state.Params)+1)
	for k, v := range state.Params {
		params[k] = v
	}
	params[RefVarKey] = refvar
	state.Params = params
	return state, req, nil
}

func (s *Source) mostSignificant(body []chain.Record, chr string) (string, error) {
	cols := join.FindMergeColumns(chain.Names(body), s.columns)
	if cols.ID == "" {
		// Without an id column the variant is named by chromosome and position
		if err := cols.Require("position", "pvalue"); err != nil {
			return "", err
		}
	} else if err := cols.Require("pvalue"); err != nil {
		return "", err
	}

	// -log10 p-values are maximized, raw p-values minimized
	sign := join.Minimum
	if strings.Contains(strings.ToLower(cols.PValue), "log") {
		sign = join.Maximum
	}
	i, err := join.ExtremeIndex(body, cols.PValue, sign)
	if err != nil {
		return "", err
	}
	refvar, ok := variantOf(body[i], cols, chr)
	if !ok {
		return "", errors.WrapInvalid(errors.ErrInvalidData, Type, "Prepare", "most significant variant has no id")
	}
	return refvar, nil
}

// variantOf names a body row's variant by its id column, falling back to
// chr:position.
func variantOf(row chain.Record, cols join.MergeColumns, chr string) (string, bool) {
	if cols.ID != "" {
		if id, ok := row[cols.ID]; ok && id != nil {
			return join.NormalizeVariant(fmt.Sprint(id)), true
		}
	}
	if cols.Position != "" {
		if pos, ok := transform.ToFloat(row[cols.Position]); ok {
			return fmt.Sprintf("%s:%d", chr, int64(pos)), true
		}
	}
	return "", false
}

// sameVariant compares a row's variant name with the reference, ignoring
// alleles when either side lacks them.
func sameVariant(name, refvar string) bool {
	if name == refvar {
		return true
	}
	if !strings.Contains(name, "_") || !strings.Contains(refvar, "_") {
		return chromPos(name) == chromPos(refvar)
	}
	return false
}

func chromPos(variant string) string {
	if i := strings.Index(variant, "_"); i >= 0 {
		return variant[:i]
	}
	return variant
}

// RequestURL builds the first page query for state, which must carry the
// reference variant.
func (s *Source) RequestURL(state chain.State) string {
	q := url.Values{
		"correlation": {s.method},
		"variant":     {state.GetString(RefVarKey)},
		"chrom":       {state.Chr},
		"start":       {fmt.Sprint(state.Start)},
		"stop":        {fmt.Sprint(state.End)},
	}
	return fmt.Sprintf("%sgenome_builds/%s/references/%s/populations/%s/variants?%s",
		s.url, url.PathEscape(s.build), url.PathEscape(s.reference), url.PathEscape(s.population), q.Encode())
}

// CacheKey is the first page URL.
func (s *Source) CacheKey(state chain.State, _ *chain.Chain, _ []string) (string, bool) {
	return s.RequestURL(state), true
}

// Fetch follows "next" links until the last page and returns all rows.
func (s *Source) Fetch(ctx context.Context, state chain.State, _ *chain.Chain, _ []string) (any, error) {
	rows := []chain.Record{}
	next := s.RequestURL(state)
	for page := 0; next != ""; page++ {
		if s.maxPages > 0 && page >= s.maxPages {
			return nil, errors.WrapInvalid(fmt.Errorf("response exceeds %d pages", s.maxPages), Type, "Fetch", "follow pages")
		}

		raw, err := s.http.GetJSON(ctx, next)
		if err != nil {
			return nil, err
		}
		data, err := adapter.Unwrap(raw)
		if err != nil {
			return nil, err
		}
		pageRows, err := adapter.ToRecords(data)
		if err != nil {
			return nil, err
		}
		rows = append(rows, pageRows...)

		next = ""
		if obj, ok := raw.(map[string]any); ok {
			next, _ = obj["next"].(string)
		}
	}
	return rows, nil
}

// Extract keeps LDServer rows whole; requested fields are resolved against
// them during Combine.
func (s *Source) Extract(rows []chain.Record, _ adapter.Request) ([]chain.Record, error) {
	return rows, nil
}

// Combine copies LD values onto body rows with a matching position. Body
// order is preserved; unmatched rows get no LD field. The "isrefvar" field is
// 1 on the reference variant's row and 0 elsewhere.
func (s *Source) Combine(_ context.Context, rows []chain.Record, c *chain.Chain, state chain.State, req adapter.Request) ([]chain.Record, error) {
	body := chain.CloneRecords(c.Body)
	if len(body) == 0 {
		return body, nil
	}
	cols := join.FindMergeColumns(chain.Names(body), s.columns)
	if err := cols.Require("position"); err != nil {
		return nil, err
	}

	ldRows := chain.CloneRecords(rows)
	join.SortByField(ldRows, positionColumn)
	view := append([]chain.Record(nil), body...)
	join.SortByField(view, cols.Position)

	for i, field := range req.Fields {
		out := field
		if i < len(req.Outnames) && req.Outnames[i] != "" {
			out = req.Outnames[i]
		}

		if field == refVarField {
			refvar := state.GetString(RefVarKey)
			for _, row := range body {
				row[out] = 0
				if name, ok := variantOf(row, cols, state.Chr); ok && sameVariant(name, refvar) {
					row[out] = 1
				}
			}
			continue
		}

		column, ok := resolveColumn(ldRows, field)
		if !ok {
			return nil, &errors.MissingFieldError{Field: field, Outname: out}
		}
		join.SortedLeftJoin(view, ldRows, cols.Position, positionColumn, column, out)

		if i < len(req.Transforms) && req.Transforms[i] != nil {
			for _, row := range body {
				if v, ok := row[out]; ok {
					row[out] = req.Transforms[i](v)
				}
			}
		}
	}
	return body, nil
}

// resolveColumn maps a requested field to an LD column. Fields present in
// the response are used directly; LD statistic aliases read the correlation.
func resolveColumn(rows []chain.Record, field string) (string, bool) {
	if len(rows) == 0 {
		return field, true
	}
	for _, row := range rows {
		if _, ok := row[field]; ok {
			return field, true
		}
	}
	if correlationAliases[field] {
		for _, row := range rows {
			if _, ok := row[correlationColumn]; ok {
				return correlationColumn, true
			}
		}
	}
	return "", false
}

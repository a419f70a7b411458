// Package constraint annotates gene rows with gnomAD loss-of-function
// constraint metrics fetched through the gnomAD GraphQL API.
package constraint

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/join"
)

// Type is the adapter type name used in configuration.
const Type = "constraint"

// DefaultURL is the public gnomAD API endpoint.
const DefaultURL = "https://gnomad.broadinstitute.org/api/"

// Fields are the constraint metrics requested for every gene and copied onto
// gene rows.
var Fields = []string{
	"exp_syn", "obs_syn", "syn_z", "oe_syn", "oe_syn_lower", "oe_syn_upper",
	"exp_mis", "obs_mis", "mis_z", "oe_mis", "oe_mis_lower", "oe_mis_upper",
	"exp_lof", "obs_lof", "pLI", "oe_lof", "oe_lof_lower", "oe_lof_upper",
}

//go:embed schema.graphql
var schemaSource string

var schema = gqlparser.MustLoadSchema(&ast.Source{Name: "gnomad.graphql", Input: schemaSource})

var aliasUnsafe = regexp.MustCompile(`[^A-Za-z0-9_]`)

// aliasField temporarily carries each gene row's lookup key during Combine.
const aliasField = "_constraint_alias"

// Source is the gene constraint adapter. It only runs on top of gene rows.
type Source struct {
	*adapter.Base

	url       string
	build     string
	keyField  string
	precision int
	http      *adapter.HTTPClient
}

// New creates a constraint source. Params: build (GRCh37 or GRCh38),
// key_field (the gene row field holding the symbol, default gene_name) and
// precision (decimals kept on metrics, default 2).
func New(id string, spec adapter.Spec, deps adapter.Dependencies) (adapter.Source, error) {
	build := spec.Params.String("build", "GRCh37")
	if build != "GRCh37" && build != "GRCh38" {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: unsupported build %q", errors.ErrInvalidConfig, build), Type, "New", "validate build")
	}
	url := spec.URL
	if url == "" {
		url = DefaultURL
	}

	client, err := adapter.NewHTTPClient(id, spec.Params, deps.GetLoggerWithSource(id))
	if err != nil {
		return nil, err
	}
	s := &Source{
		url:       url,
		build:     build,
		keyField:  spec.Params.String("key_field", "gene_name"),
		precision: spec.Params.Int("precision", 2),
		http:      client,
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
		Protocol:    "graphql",
		Description: "gnomAD gene constraint metrics merged onto gene rows",
		Factory:     New,
	}
}

// Alias is the sanitized GraphQL alias for a gene symbol. Distinct symbols
// can share one, so queries use Aliases.
func Alias(symbol string) string {
	return "_" + aliasUnsafe.ReplaceAllString(symbol, "_")
}

// Aliases assigns each symbol a unique alias, numbering later symbols whose
// sanitized alias is already taken. symbols must be sorted for the result to
// be stable between Fetch and Combine.
func Aliases(symbols []string) map[string]string {
	used := make(map[string]bool, len(symbols))
	aliases := make(map[string]string, len(symbols))
	for _, symbol := range symbols {
		base := Alias(symbol)
		alias := base
		for n := 2; used[alias]; n++ {
			alias = fmt.Sprintf("%s_%d", base, n)
		}
		used[alias] = true
		aliases[symbol] = alias
	}
	return aliases
}

// geneSymbols returns the distinct, sorted gene symbols in body.
func (s *Source) geneSymbols(body []chain.Record) []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, row := range body {
		name, _ := row[s.keyField].(string)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		symbols = append(symbols, name)
	}
	sort.Strings(symbols)
	return symbols
}

// Query builds one aliased gene lookup per symbol and validates the document
// against the gnomAD schema.
func (s *Source) Query(symbols []string) (string, error) {
	aliases := Aliases(symbols)
	var b strings.Builder
	b.WriteString("{\n")
	for _, symbol := range symbols {
		fmt.Fprintf(&b, "  %s: gene(gene_symbol: %q, reference_genome: %s) { gnomad_constraint { %s } }\n",
			aliases[symbol], symbol, s.build, strings.Join(Fields, " "))
	}
	b.WriteString("}")
	query := b.String()

	if _, gqlErr := gqlparser.LoadQuery(schema, query); len(gqlErr) > 0 {
		return "", errors.WrapInvalid(gqlErr, Type, "Query", "validate constraint query")
	}
	return query, nil
}

// CacheKey covers the genes in the current body.
func (s *Source) CacheKey(_ chain.State, c *chain.Chain, _ []string) (string, bool) {
	symbols := s.geneSymbols(c.Body)
	if len(symbols) == 0 {
		return "", false
	}
	return s.build + ":" + strings.Join(symbols, ","), true
}

// Fetch posts the constraint query for the genes in the body. With no gene
// symbols there is nothing to ask for.
func (s *Source) Fetch(ctx context.Context, _ chain.State, c *chain.Chain, _ []string) (any, error) {
	symbols := s.geneSymbols(c.Body)
	if len(symbols) == 0 {
		return map[string]any{}, nil
	}
	query, err := s.Query(symbols)
	if err != nil {
		return nil, err
	}
	return s.http.PostJSON(ctx, s.url, map[string]string{"query": query})
}

// Normalize turns the aliased GraphQL result into one row per gene symbol.
// Genes gnomAD does not know come back as null and produce no row.
func (s *Source) Normalize(raw any, _ *chain.Chain) ([]chain.Record, error) {
	data, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, Type, "Normalize", fmt.Sprintf("unexpected payload %T", raw))
	}
	if gqlErrs, ok := data["errors"]; ok && gqlErrs != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidData, gqlErrs), Type, "Normalize", "graphql response")
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := []chain.Record{}
	for _, alias := range keys {
		gene, _ := data[alias].(map[string]any)
		metrics, _ := gene["gnomad_constraint"].(map[string]any)
		if metrics == nil {
			continue
		}
		row := chain.Record{"alias": alias}
		for k, v := range metrics {
			row[k] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Extract keeps constraint rows whole; they are merged onto gene rows.
func (s *Source) Extract(rows []chain.Record, _ adapter.Request) ([]chain.Record, error) {
	return rows, nil
}

// Combine copies the constraint metrics onto each gene row. Genes without
// constraint data get nil metrics; fields already on a row are kept.
func (s *Source) Combine(_ context.Context, rows []chain.Record, c *chain.Chain, _ chain.State, _ adapter.Request) ([]chain.Record, error) {
	symbols := s.geneSymbols(c.Body)
	if len(symbols) == 0 {
		return chain.CloneRecords(c.Body), nil
	}
	aliases := Aliases(symbols)

	dict := make(map[string]map[string]any, len(rows))
	for _, row := range rows {
		alias, _ := row["alias"].(string)
		dict[alias] = row
	}

	// Look rows up by alias, since that is how results are keyed
	body := chain.CloneRecords(c.Body)
	for _, row := range body {
		if name, ok := row[s.keyField].(string); ok {
			row[aliasField] = aliases[name]
		}
	}
	body = join.AnnotateFromDictionary(body, aliasField, dict, Fields, s.precision)
	for _, row := range body {
		delete(row, aliasField)
	}
	return body, nil
}

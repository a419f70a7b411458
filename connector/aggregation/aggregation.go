// Package aggregation connects gene rows with aggregation test results,
// attaching each gene's most significant aggregation p-value.
package aggregation

import (
	"context"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/join"
)

// Type is the adapter type name used in configuration.
const Type = "gene_aggregation"

// Logical upstream names the "sources" param must map to namespaces.
const (
	GeneSource        = "gene_ns"
	AggregationSource = "aggregation_ns"
)

// Joiner groups aggregation rows by gene and keeps the smallest p-value.
type Joiner struct {
	geneNS, aggregationNS string

	GeneField   string
	GroupField  string
	PValueField string
	OutputField string
}

// New creates the connector. Params: sources (gene_ns and aggregation_ns
// namespaces), and gene_field, group_field, pvalue_field and output_field to
// rename the columns involved.
func New(id string, spec adapter.Spec, deps adapter.Dependencies) (adapter.Source, error) {
	sources := spec.Params.StringMap("sources")
	p := spec.Params
	j := &Joiner{
		geneNS:        sources[GeneSource],
		aggregationNS: sources[AggregationSource],
		GeneField:     p.String("gene_field", "gene_name"),
		GroupField:    p.String("group_field", "group"),
		PValueField:   p.String("pvalue_field", "pvalue"),
		OutputField:   p.String("output_field", "aggregation_best_pvalue"),
	}
	return adapter.NewConnector(id, []string{GeneSource, AggregationSource}, sources, j, deps)
}

// Registration describes the connector for an adapter.Registry.
func Registration() *adapter.Registration {
	return &adapter.Registration{
		Name:        Type,
		Protocol:    "connector",
		Description: "Best aggregation test p-value per gene",
		Factory:     New,
	}
}

// Join returns the gene rows, each carrying the best p-value of its group
// when the aggregation results have one.
func (j *Joiner) Join(_ context.Context, upstream map[string][]chain.Record, _ *chain.Chain, _ chain.State, _ adapter.Request) ([]chain.Record, error) {
	genes := upstream[GeneSource]
	tests := upstream[AggregationSource]

	group := column(tests, j.GroupField, j.aggregationNS)
	pvalue := column(tests, j.PValueField, j.aggregationNS)
	best := join.BestByGroup(tests, group, pvalue, join.Minimum)

	geneField := column(genes, j.GeneField, j.geneNS)
	for _, gene := range genes {
		name, ok := gene[geneField].(string)
		if !ok {
			continue
		}
		if row, found := best[name]; found {
			gene[j.OutputField] = row[pvalue]
		}
	}
	return genes, nil
}

// column finds name among the row keys, either bare or as the namespaced
// output name ns:name a default extraction produces.
func column(rows []chain.Record, name, ns string) string {
	prefixed := ns + ":" + name
	for _, row := range rows {
		if _, ok := row[name]; ok {
			return name
		}
		if _, ok := row[prefixed]; ok {
			return prefixed
		}
	}
	return name
}

package aggregation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/requester"
	"github.com/statgen/locuszoom-sub005/source/static"
	"github.com/statgen/locuszoom-sub005/testutil"
)

func spec() adapter.Spec {
	return adapter.Spec{Type: Type, Params: adapter.Params{"sources": map[string]any{
		GeneSource:        "gene",
		AggregationSource: "aggregation",
	}}}
}

func staticSource(t *testing.T, id string, rows []any, passthrough bool) adapter.Source {
	t.Helper()
	src, err := static.New(id, adapter.Spec{Params: adapter.Params{"data": rows, "passthrough": passthrough}}, adapter.Dependencies{})
	require.NoError(t, err)
	return src
}

func TestNew_RequiresSources(t *testing.T) {
	_, err := New("assoc_gene", adapter.Spec{Params: adapter.Params{"sources": map[string]any{GeneSource: "gene"}}}, adapter.Dependencies{})
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.Contains(t, err.Error(), AggregationSource)
}

func TestPipeline_BestPValuePerGene(t *testing.T) {
	sources := requester.NewSources()
	require.NoError(t, sources.Add("gene", staticSource(t, "gene", testutil.GeneRows(), true)))
	require.NoError(t, sources.Add("aggregation", staticSource(t, "aggregation", testutil.AggregationRows(), false)))

	conn, err := New("connect", spec(), adapter.Dependencies{})
	require.NoError(t, err)
	require.NoError(t, sources.Add("connect", conn))

	r := requester.New(sources)
	c, err := r.GetData(context.Background(), chain.State{Chr: "10", Start: 1, End: 500},
		[]string{"gene:all", "aggregation:group", "aggregation:pvalue", "connect:all"})
	require.NoError(t, err)

	require.Len(t, c.Body, 2)
	assert.Equal(t, "TCF7L2", c.Body[0]["gene_name"])
	assert.Equal(t, 0.002, c.Body[0]["aggregation_best_pvalue"])
	assert.Equal(t, 0.6, c.Body[1]["aggregation_best_pvalue"])

	// Connectors leave upstream results untouched
	assert.NotContains(t, c.Discrete["gene"][0], "aggregation_best_pvalue")
}

func TestGetData_MissingUpstream(t *testing.T) {
	conn, err := New("connect", spec(), adapter.Dependencies{})
	require.NoError(t, err)

	ch := chain.New()
	ch.Discrete["gene"] = []chain.Record{{"gene_name": "A"}}
	_, err = conn.GetData(chain.State{}, adapter.Request{})(context.Background(), ch)

	var md *errors.MissingDependencyError
	require.ErrorAs(t, err, &md)
	assert.Equal(t, "aggregation", md.Upstream)
}

func TestJoin_UnmatchedGenes(t *testing.T) {
	j := &Joiner{GeneField: "gene_name", GroupField: "group", PValueField: "pvalue", OutputField: "best"}
	genes := []chain.Record{{"gene_name": "A"}, {"gene_name": "B"}, {"other": 1}}
	tests := []chain.Record{{"group": "A", "pvalue": 0.3}, {"group": "A", "pvalue": 0.1}}

	out, err := j.Join(context.Background(), map[string][]chain.Record{GeneSource: genes, AggregationSource: tests}, chain.New(), chain.State{}, adapter.Request{})
	require.NoError(t, err)
	assert.Equal(t, 0.1, out[0]["best"])
	assert.NotContains(t, out[1], "best")
	assert.NotContains(t, out[2], "best")
}

package sourceregistry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/requester"
)

func TestRegister(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"association", "blob", "constraint", "gene", "gene_aggregation", "gwascatalog",
		"interval", "ld", "nats", "phewas", "recomb", "sql", "static",
	}, registry.Types())

	// Registering twice collides on every name
	err = Register(registry)
	assert.True(t, errors.IsInvalid(err))
}

func TestRegister_NilRegistry(t *testing.T) {
	err := Register(nil)
	assert.True(t, errors.IsFatal(err))
}

func TestFromSpecs_StaticPipeline(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	sources, err := requester.FromSpecs(registry, map[string]adapter.Spec{
		"base": {Type: "static", Params: adapter.Params{"data": map[string]any{
			"id":       []any{"a", "b"},
			"position": []any{1.0, 2.0},
		}}},
	}, adapter.Dependencies{})
	require.NoError(t, err)

	c, err := requester.New(sources).GetData(context.Background(), chain.State{}, []string{"id"})
	require.NoError(t, err)
	assert.Equal(t, []chain.Record{{"id": "a"}, {"id": "b"}}, c.Body)
}

package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c := New()
	assert.Empty(t, c.Header)
	assert.NotNil(t, c.Body)
	assert.Empty(t, c.Body)
	assert.Empty(t, c.Discrete)
}

func TestChain_WithBodySharesHeaderAndDiscrete(t *testing.T) {
	c := New()
	c.Header["ldrefvar"] = "1:100_A/G"
	c.Discrete["assoc"] = []Record{{"position": 100}}

	next := c.WithBody([]Record{{"position": 200}})
	assert.Equal(t, "1:100_A/G", next.Header["ldrefvar"])
	assert.Len(t, next.Discrete["assoc"], 1)

	next.Header["extra"] = true
	assert.Equal(t, true, c.Header["extra"], "header is shared within a run")
}

func TestChain_DiscreteCopyIsolation(t *testing.T) {
	c := New()
	c.Discrete["genes"] = []Record{{"gene_name": "ABC"}}

	rows, ok := c.DiscreteCopy("genes")
	require.True(t, ok)
	rows[0]["gene_name"] = "changed"
	assert.Equal(t, "ABC", c.Discrete["genes"][0]["gene_name"])

	_, ok = c.DiscreteCopy("missing")
	assert.False(t, ok)
}

func TestState_Key(t *testing.T) {
	a := State{Chr: "10", Start: 1, End: 2, Params: map[string]any{"b": 1, "a": 2}}
	b := State{Chr: "10", Start: 1, End: 2, Params: map[string]any{"a": 2, "b": 1}}
	assert.Equal(t, a.Key(), b.Key())

	c := State{Chr: "10", Start: 1, End: 3}
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, "", c.GetString("ldrefvar"))
}

func TestNames(t *testing.T) {
	assert.Nil(t, Names(nil))
	assert.Equal(t, []string{"a", "b"}, Names([]Record{{"b": 2, "a": 1}}))
	assert.Equal(t, []string{"position", "pvalue"},
		Names([]Record{{"position": 1}, {"position": 2, "pvalue": 0.01}}), "keys missing from the first row still count")
}

package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statgen/locuszoom-sub005/errors"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	factory := func(id string, spec Spec, deps Dependencies) (Source, error) {
		return NewBase(&countingFetcher{}, id, spec, deps)
	}
	require.NoError(t, r.RegisterFactory("fake", &Registration{Protocol: "memory", Factory: factory}))

	err := r.RegisterFactory("fake", &Registration{Factory: factory})
	assert.True(t, errors.IsInvalid(err))
	assert.Error(t, r.RegisterFactory("", &Registration{Factory: factory}))
	assert.Error(t, r.RegisterFactory("nofactory", &Registration{}))

	assert.Equal(t, []string{"fake"}, r.Types())
	reg, ok := r.Registration("fake")
	require.True(t, ok)
	assert.Equal(t, "fake", reg.Name)

	src, err := r.Create("assoc", Spec{Type: "fake"}, Dependencies{})
	require.NoError(t, err)
	assert.Equal(t, "assoc", src.ID())

	_, err = r.Create("assoc", Spec{Type: "missing"}, Dependencies{})
	assert.True(t, errors.IsInvalid(err))

	_, err = r.Create("assoc", Spec{}, Dependencies{})
	assert.True(t, errors.IsInvalid(err))
}

func TestParams(t *testing.T) {
	p := Params{
		"source":   "GRCh37",
		"analysis": 45.0,
		"yamlint":  7,
		"sort":     true,
		"ids":      []any{"a", 2},
		"one":      "single",
		"sources":  map[string]any{"gene_ns": "gene"},
		"nothing":  nil,
	}

	assert.Equal(t, "GRCh37", p.String("source", "x"))
	assert.Equal(t, "x", p.String("absent", "x"))
	assert.Equal(t, 45, p.Int("analysis", 0))
	assert.Equal(t, 7, p.Int("yamlint", 0))
	assert.Equal(t, 3, p.Int("absent", 3))
	assert.Equal(t, 45.0, p.Float("analysis", 0))
	assert.True(t, p.Bool("sort", false))
	assert.Equal(t, []string{"a", "2"}, p.Strings("ids"))
	assert.Equal(t, []string{"single"}, p.Strings("one"))
	assert.Equal(t, map[string]string{"gene_ns": "gene"}, p.StringMap("sources"))
	assert.True(t, p.Has("source"))
	assert.False(t, p.Has("nothing"))
	assert.Equal(t, "analysis", p.Keys()[0])
}

func TestSpec(t *testing.T) {
	s := Spec{}
	assert.Equal(t, "single", string(s.CacheConfig().Strategy))
	d, err := s.TimeoutDuration()
	require.NoError(t, err)
	assert.Zero(t, d)

	s.Timeout = "-1s"
	_, err = s.TimeoutDuration()
	assert.True(t, errors.IsInvalid(err))

	assert.Error(t, s.RequireURL("association"))
	s.URL = "http://example.org"
	assert.NoError(t, s.RequireURL("association"))
}

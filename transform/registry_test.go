package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statgen/locuszoom-sub005/errors"
)

func TestRegistry_DefaultBuiltins(t *testing.T) {
	names := NewDefaultRegistry().List()
	for _, name := range []string{"neglog10", "scinotation", "urlencode", "htmlescape"} {
		assert.Contains(t, names, name)
	}
	assert.IsIncreasing(t, names)
}

func TestRegistry_Get(t *testing.T) {
	r := NewDefaultRegistry()

	fn, err := r.Get("neglog10")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, fn(0.01), 1e-9)

	_, err = r.Get("bogus")
	var unknown *errors.UnknownTransformError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "bogus", unknown.Name)

	fn, err = r.Get("")
	require.NoError(t, err)
	assert.Nil(t, fn)
}

func TestRegistry_GetPipeChain(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("double", func(v any) any { return v.(int) * 2 }))
	require.NoError(t, r.Add("inc", func(v any) any { return v.(int) + 1 }))

	fn, err := r.Get("|double|inc")
	require.NoError(t, err)
	assert.Equal(t, 7, fn(3), "inc(double(3))")

	fn, err = r.Get("|inc|double")
	require.NoError(t, err)
	assert.Equal(t, 8, fn(3), "double(inc(3))")

	_, err = r.Get("|inc|missing")
	assert.ErrorIs(t, err, errors.ErrUnknownTransform)
}

func TestRegistry_AddSetList(t *testing.T) {
	r := NewRegistry()
	identity := func(v any) any { return v }

	require.NoError(t, r.Add("id", identity))
	err := r.Add("id", identity)
	var dup *errors.DuplicateTransformError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "id", dup.Name)

	r.Set("id", func(v any) any { return "replaced" })
	fn, err := r.Get("id")
	require.NoError(t, err)
	assert.Equal(t, "replaced", fn(1))

	r.Set("id", nil)
	assert.Empty(t, r.List())
	_, err = r.Get("id")
	assert.ErrorIs(t, err, errors.ErrUnknownTransform)
}

func TestRegistry_ResolvedFunctionsSurviveLaterEdits(t *testing.T) {
	r := NewRegistry()
	r.Set("tag", func(v any) any { return "old" })

	fn, err := r.Get("tag")
	require.NoError(t, err)

	r.Set("tag", func(v any) any { return "new" })
	assert.Equal(t, "old", fn(nil))
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name     string
		fn       Func
		input    any
		expected any
	}{
		{"neglog10 of zero", NegLog10, 0.0, nil},
		{"neglog10 of string", NegLog10, "0.001", 3.0},
		{"neglog10 of garbage", NegLog10, "abc", nil},
		{"log10", Log10, 1000, 3.0},
		{"logtoscinotation zero", LogToSciNotation, 0.0, "1"},
		{"logtoscinotation small", LogToSciNotation, 0.5, "0.3162"},
		{"logtoscinotation two", LogToSciNotation, 1.5, "0.032"},
		{"logtoscinotation large", LogToSciNotation, 3.0, "1.00 × 10^-3"},
		{"scinotation zero", SciNotation, 0, "0"},
		{"scinotation moderate", SciNotation, 0.5, "0.500"},
		{"scinotation tiny", SciNotation, 0.00001234, "1.23 × 10^-5"},
		{"scinotation huge", SciNotation, 123456.0, "1.23 × 10^5"},
		{"scinotation nan", SciNotation, "x", "NaN"},
		{"urlencode", URLEncode, "a b/c", "a%20b%2Fc"},
		{"htmlescape", HTMLEscape, `<a href="x">'&'</a>`, "&lt;a href=&quot;x&quot;&gt;&#039;&amp;&#039;&lt;/a&gt;"},
		{"htmlescape nil", HTMLEscape, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(tt.input)
			if f, ok := tt.expected.(float64); ok {
				require.IsType(t, float64(0), got)
				assert.InDelta(t, f, got.(float64), 1e-9)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestToFloat(t *testing.T) {
	f, ok := ToFloat(int64(5))
	assert.True(t, ok)
	assert.Equal(t, 5.0, f)

	_, ok = ToFloat(math.NaN())
	assert.False(t, ok)

	_, ok = ToFloat(nil)
	assert.False(t, ok)
}

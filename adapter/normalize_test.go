package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/transform"
)

func TestUnwrap(t *testing.T) {
	inner := []any{map[string]any{"a": 1.0}}

	got, err := Unwrap(map[string]any{"data": inner, "meta": "x"})
	require.NoError(t, err)
	assert.Equal(t, inner, got)

	got, err = Unwrap(map[string]any{"data": nil, "a": []any{1.0}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"data": nil, "a": []any{1.0}}, got)

	got, err = Unwrap([]byte(`{"data": {"a": [1, 2]}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": []any{1.0, 2.0}}, got)

	_, err = Unwrap([]byte(`{not json`))
	assert.True(t, errors.IsInvalid(err))
}

func TestToRecords_Columns(t *testing.T) {
	rows, err := ToRecords(map[string]any{
		"position": []any{1.0, 2.0, 3.0},
		"pvalue":   []any{0.1, 0.2, 0.3},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, chain.Record{"position": 2.0, "pvalue": 0.2}, rows[1])
}

func TestToRecords_Rows(t *testing.T) {
	rows, err := ToRecords([]any{
		map[string]any{"gene_name": "A"},
		map[string]any{"gene_name": "B"},
	})
	require.NoError(t, err)
	assert.Equal(t, []chain.Record{{"gene_name": "A"}, {"gene_name": "B"}}, rows)
}

func TestToRecords_Errors(t *testing.T) {
	_, err := ToRecords(map[string]any{
		"position": []any{1.0, 2.0},
		"pvalue":   []any{0.1},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRaggedColumns)

	_, err = ToRecords(map[string]any{"position": 1.0})
	assert.ErrorIs(t, err, errors.ErrInvalidData)

	_, err = ToRecords([]any{"not an object"})
	assert.ErrorIs(t, err, errors.ErrInvalidData)

	_, err = ToRecords(42)
	assert.True(t, errors.IsInvalid(err))
}

func TestToRecords_Empty(t *testing.T) {
	for _, in := range []any{nil, []any{}, map[string]any{}, map[string]any{"a": []any{}}} {
		rows, err := ToRecords(in)
		require.NoError(t, err)
		assert.Empty(t, rows)
	}
}

func TestExtractFields(t *testing.T) {
	rows := []chain.Record{
		{"id": "1:100", "pvalue": 0.01, "extra": true},
		{"id": "1:200", "pvalue": 0.5},
	}
	neglog, err := transform.Default.Get("neglog10")
	require.NoError(t, err)

	out, err := ExtractFields(rows, Request{
		Fields:     []string{"id", "pvalue"},
		Outnames:   []string{"assoc:id", "assoc:pvalue|neglog10"},
		Transforms: []transform.Func{nil, neglog},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "1:100", out[0]["assoc:id"])
	assert.InDelta(t, 2.0, out[0]["assoc:pvalue|neglog10"], 1e-9)
	_, has := out[0]["extra"]
	assert.False(t, has, "unrequested fields are dropped")
}

func TestExtractFields_PartiallyMissing(t *testing.T) {
	rows := []chain.Record{{"a": 1.0}, {"b": 2.0}}
	out, err := ExtractFields(rows, Request{Fields: []string{"a"}, Outnames: []string{"ns:a"}})
	require.NoError(t, err)
	assert.Equal(t, []chain.Record{{"ns:a": 1.0}, {}}, out)
}

func TestExtractFields_MissingEverywhere(t *testing.T) {
	rows := []chain.Record{{"a": 1.0}}
	_, err := ExtractFields(rows, Request{Fields: []string{"a", "b"}, Outnames: []string{"ns:a", "ns:b"}})

	var missing *errors.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "b", missing.Field)
	assert.Equal(t, "ns:b", missing.Outname)
}

func TestExtractFields_EmptyInput(t *testing.T) {
	out, err := ExtractFields(nil, Request{Fields: []string{"anything"}})
	require.NoError(t, err)
	assert.Empty(t, out)
}

package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
)

// fakeGetter serves objects from memory.
type fakeGetter struct {
	objects map[string]string
	calls   atomic.Int32
}

func (f *fakeGetter) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls.Add(1)
	body, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

var region = chain.State{Chr: "10", Start: 100, End: 300}

func TestGetData(t *testing.T) {
	getter := &fakeGetter{objects: map[string]string{
		"lz/10/100-300.json": `{"data": {"position": [100, 200], "pvalue": [0.5, 0.001]}}`,
	}}
	src, err := NewWithClient("blob", getter, "lz", adapter.Spec{}, adapter.Dependencies{})
	require.NoError(t, err)

	req := adapter.Request{Fields: []string{"position"}, Outnames: []string{"blob:position"}}
	for i := 0; i < 2; i++ {
		c, err := src.GetData(region, req)(context.Background(), chain.New())
		require.NoError(t, err)
		assert.Equal(t, []chain.Record{{"blob:position": 100.0}, {"blob:position": 200.0}}, c.Body)
	}
	assert.Equal(t, int32(1), getter.calls.Load())
}

func TestGetData_MissingObject(t *testing.T) {
	src, err := NewWithClient("blob", &fakeGetter{}, "lz", adapter.Spec{}, adapter.Dependencies{})
	require.NoError(t, err)

	_, err = src.GetData(region, adapter.Request{Fields: []string{"position"}})(context.Background(), chain.New())
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestObjectKey(t *testing.T) {
	src, err := NewWithClient("blob", &fakeGetter{}, "lz", adapter.Spec{Params: adapter.Params{"key": "assoc/chr{chr}_{start}_{end}.json"}}, adapter.Dependencies{})
	require.NoError(t, err)
	assert.Equal(t, "assoc/chr10_100_300.json", src.ObjectKey(region))
}

func TestNew_Validation(t *testing.T) {
	_, err := New("blob", adapter.Spec{}, adapter.Dependencies{})
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
}

// The real SDK client against a path-style endpoint.
func TestNew_PathStyleEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lz/10/100-300.json" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0"?><Error><Code>NoSuchKey</Code></Error>`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"position": 100, "pvalue": 0.5}]`))
	}))
	t.Cleanup(srv.Close)

	src, err := New("blob", adapter.Spec{Params: adapter.Params{
		"bucket":            "lz",
		"endpoint":          srv.URL,
		"path_style":        true,
		"access_key_id":     "AKIA",
		"secret_access_key": "SECRET",
	}}, adapter.Dependencies{})
	require.NoError(t, err)

	c, err := src.GetData(region, adapter.Request{Fields: []string{"pvalue"}})(context.Background(), chain.New())
	require.NoError(t, err)
	assert.Equal(t, []chain.Record{{"pvalue": 0.5}}, c.Body)
}

package adapter

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statgen/locuszoom-sub005/errors"
)

func newTestClient(t *testing.T, params Params) *HTTPClient {
	t.Helper()
	client, err := NewHTTPClient("test", params, nil)
	require.NoError(t, err)
	return client
}

func TestHTTPClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"data": {"position": [1, 2]}}`))
	}))
	defer srv.Close()

	out, err := newTestClient(t, nil).GetJSON(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"data": map[string]any{"position": []any{1.0, 2.0}}}, out)
}

func TestHTTPClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]any{"echo": body["query"]})
	}))
	defer srv.Close()

	out, err := newTestClient(t, nil).PostJSON(context.Background(), srv.URL, map[string]any{"query": "{ x }"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"echo": "{ x }"}, out)
}

func TestHTTPClient_StatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"server error", http.StatusBadGateway, true},
		{"rate limited", http.StatusTooManyRequests, true},
		{"not found", http.StatusNotFound, false},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newTestClient(t, nil).GetJSON(context.Background(), srv.URL)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrUpstreamStatus)
			assert.Equal(t, tt.transient, errors.IsTransient(err))
			assert.Equal(t, !tt.transient, errors.IsInvalid(err))
		})
	}
}

func TestHTTPClient_NoRetriesByDefault(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(t, nil).GetJSON(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPClient_RetriesWhenConfigured(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(t, Params{"retries": 2, "retry_wait": "1ms"})
	out, err := client.GetJSON(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []any{}, out)
	assert.Equal(t, int32(3), hits.Load())
}

func TestHTTPClient_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, nil).GetJSON(context.Background(), srv.URL)
	assert.ErrorIs(t, err, errors.ErrParsingFailed)
	assert.True(t, errors.IsInvalid(err))
}

func TestHTTPClient_PrivateCA(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	caPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	require.NoError(t, os.WriteFile(caFile, caPEM, 0o644))

	_, err := newTestClient(t, nil).GetJSON(context.Background(), srv.URL)
	require.Error(t, err, "server certificate is not trusted without the CA")
	assert.True(t, errors.IsTransient(err))

	out, err := newTestClient(t, Params{"tls_ca_files": caFile}).GetJSON(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, out)
}

func TestNewHTTPClient_BadTLSParams(t *testing.T) {
	_, err := NewHTTPClient("test", Params{"tls_ca_files": []any{filepath.Join(t.TempDir(), "missing.pem")}}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = NewHTTPClient("test", Params{"tls_min_version": "1.0"}, nil)
	assert.True(t, errors.IsInvalid(err))
}

func TestHTTPClient_RateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(t, Params{"rate_limit": 1.0})
	_, err := client.GetJSON(context.Background(), srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.GetJSON(ctx, srv.URL)
	require.Error(t, err, "second request exceeds the burst and cannot wait past the deadline")
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestFilterURL(t *testing.T) {
	u := FilterURL("http://host/api/", "chrom eq '1'", url.Values{"format": {"objects"}})
	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "chrom eq '1'", parsed.Query().Get("filter"))
	assert.Equal(t, "objects", parsed.Query().Get("format"))

	assert.Equal(t, "http://host/api/?build=1&format=objects", FilterURL("http://host/api/?build=1", "", url.Values{"format": {"objects"}}))
}

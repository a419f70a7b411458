package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/gateway"
	"github.com/statgen/locuszoom-sub005/health"
	"github.com/statgen/locuszoom-sub005/metric"
	"github.com/statgen/locuszoom-sub005/pkg/tlsutil"
	"github.com/statgen/locuszoom-sub005/requester"
	"github.com/statgen/locuszoom-sub005/source/static"
)

type runnerFunc func(ctx context.Context, state chain.State, tokens []string) (*chain.Chain, string, error)

func (f runnerFunc) Run(ctx context.Context, state chain.State, tokens []string) (*chain.Chain, string, error) {
	return f(ctx, state, tokens)
}

func staticRequester(t *testing.T) *requester.Requester {
	t.Helper()
	registry := adapter.NewRegistry()
	require.NoError(t, registry.RegisterFactory(static.Type, static.Registration()))

	sources, err := requester.FromSpecs(registry, map[string]adapter.Spec{
		"assoc": {Type: static.Type, Params: adapter.Params{"data": map[string]any{
			"position":   []any{100.0, 200.0},
			"log_pvalue": []any{3.5, 7.2},
		}}},
	}, adapter.Dependencies{})
	require.NoError(t, err)
	return requester.New(sources)
}

func newGateway(t *testing.T, runner gateway.Runner, opts ...Option) *Gateway {
	t.Helper()
	g, err := New(gateway.Config{}, runner, opts...)
	require.NoError(t, err)
	return g
}

func get(t *testing.T, g *Gateway, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleData(t *testing.T) {
	g := newGateway(t, staticRequester(t))

	rec := get(t, g, "/api/v1/data?chr=10&start=1&end=500&fields=assoc:position,assoc:log_pvalue")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, []chain.Record{
		{"assoc:position": 100.0, "assoc:log_pvalue": 3.5},
		{"assoc:position": 200.0, "assoc:log_pvalue": 7.2},
	}, resp.Body)
}

func TestHandleData_PassesRegionAndLDReference(t *testing.T) {
	var gotState chain.State
	var gotTokens []string
	g := newGateway(t, runnerFunc(func(_ context.Context, state chain.State, tokens []string) (*chain.Chain, string, error) {
		gotState, gotTokens = state, tokens
		return chain.New(), "run-1", nil
	}))

	rec := get(t, g, "/api/v1/data?chr=10&start=114550000&end=115067678&fields=assoc:position,%20ld:state&fields=gene:all&ldrefvar=10:114758349_C/T")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, chain.State{
		Chr:    "10",
		Start:  114550000,
		End:    115067678,
		Params: map[string]any{"ldrefvar": "10:114758349_C/T"},
	}, gotState)
	assert.Equal(t, []string{"assoc:position", "ld:state", "gene:all"}, gotTokens)
}

func TestHandleData_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
		class  string
	}{
		{"unknown namespace", "/api/v1/data?chr=10&start=1&end=5&fields=nope:position", http.StatusBadRequest, "invalid"},
		{"unknown transform", "/api/v1/data?chr=10&start=1&end=5&fields=assoc:position|nosuch", http.StatusBadRequest, "invalid"},
		{"malformed field", "/api/v1/data?chr=10&start=1&end=5&fields=a:b:c", http.StatusBadRequest, "invalid"},
		{"missing chr", "/api/v1/data?start=1&end=5&fields=assoc:position", http.StatusBadRequest, "invalid"},
		{"bad start", "/api/v1/data?chr=10&start=x&end=5&fields=assoc:position", http.StatusBadRequest, "invalid"},
		{"inverted region", "/api/v1/data?chr=10&start=9&end=5&fields=assoc:position", http.StatusBadRequest, "invalid"},
		{"no fields", "/api/v1/data?chr=10&start=1&end=5&fields=,", http.StatusBadRequest, "invalid"},
	}

	g := newGateway(t, staticRequester(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, g, tt.target)
			assert.Equal(t, tt.status, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "data could not be loaded", resp.Error)
			assert.Equal(t, tt.class, resp.Class)
		})
	}
}

func TestHandleData_UpstreamFailureIsBadGateway(t *testing.T) {
	g := newGateway(t, runnerFunc(func(context.Context, chain.State, []string) (*chain.Chain, string, error) {
		return nil, "run-1", errors.WrapTransient(errors.ErrUpstreamStatus, "association", "Fetch", "GET http://internal/results")
	}))

	rec := get(t, g, "/api/v1/data?chr=10&start=1&end=5&fields=assoc:position")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "internal", "upstream details must not leak")

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "transient", resp.Class)
}

func TestHandleData_MethodNotAllowed(t *testing.T) {
	g := newGateway(t, staticRequester(t))

	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/data", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}

func TestHandleData_CORS(t *testing.T) {
	g, err := New(gateway.Config{EnableCORS: true, CORSOrigins: []string{"https://my.locuszoom.org"}}, staticRequester(t))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/data", nil)
	req.Header.Set("Origin", "https://my.locuszoom.org")
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://my.locuszoom.org", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/data", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandleData_Metrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	g := newGateway(t, staticRequester(t), WithMetrics(registry))

	get(t, g, "/api/v1/data?chr=10&start=1&end=500&fields=assoc:position")
	get(t, g, "/api/v1/data?chr=10&start=1&end=500&fields=nope:position")

	counter := registry.CoreMetrics().GatewayRequests
	assert.Equal(t, 1.0, testutil.ToFloat64(counter.WithLabelValues("2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(counter.WithLabelValues("4xx")))
}

func TestHealthRoute(t *testing.T) {
	rec := get(t, newGateway(t, staticRequester(t)), "/api/v1/health")
	assert.Equal(t, http.StatusNotFound, rec.Code, "no checker, no route")

	checker := health.NewChecker("lzdata")
	checker.Register("nats", func(context.Context) health.Status { return health.NewUnhealthy("", "closed") })

	rec = get(t, newGateway(t, staticRequester(t), WithHealth(checker)), "/api/v1/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetOrGenerateRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "existing-request-id-12345")
	assert.Equal(t, "existing-request-id-12345", getOrGenerateRequestID(req))

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := getOrGenerateRequestID(req)
		assert.False(t, ids[id], "duplicate request id %s", id)
		ids[id] = true
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(gateway.Config{}, nil)
	assert.True(t, errors.IsFatal(err))

	_, err = New(gateway.Config{Timeout: "never"}, staticRequester(t))
	assert.True(t, errors.IsInvalid(err))
}

func TestStart_MissingTLSCertificate(t *testing.T) {
	g, err := New(gateway.Config{
		Address: "127.0.0.1:0",
		TLS:     &tlsutil.ServerConfig{CertFile: "missing-cert.pem", KeyFile: "missing-key.pem"},
	}, staticRequester(t))
	require.NoError(t, err)

	err = g.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.NoError(t, g.Stop(0))
}

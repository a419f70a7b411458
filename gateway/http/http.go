// Package http serves data requests over HTTP.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/gateway"
	"github.com/statgen/locuszoom-sub005/health"
	"github.com/statgen/locuszoom-sub005/metric"
	"github.com/statgen/locuszoom-sub005/pkg/tlsutil"
)

// errorMessage is the only failure text clients see; details stay in the log.
const errorMessage = "data could not be loaded"

// Response is the body of a successful data request.
type Response struct {
	RunID  string         `json:"run_id"`
	Header map[string]any `json:"header"`
	Body   []chain.Record `json:"body"`
}

// ErrorResponse is the body of a failed data request.
type ErrorResponse struct {
	Error string `json:"error"`
	Class string `json:"class"`
}

// getOrGenerateRequestID returns the caller's X-Request-ID or a new UUID.
func getOrGenerateRequestID(r *http.Request) string {
	if reqID := r.Header.Get("X-Request-ID"); reqID != "" {
		return reqID
	}
	return uuid.NewString()
}

// Gateway serves GET {prefix}/data, the {prefix}/stream websocket and, when
// configured, {prefix}/health.
type Gateway struct {
	config  gateway.Config
	runner  gateway.Runner
	timeout time.Duration
	logger  *slog.Logger
	metrics *metric.Metrics
	health  *health.Checker

	upgrader websocket.Upgrader

	mu     sync.Mutex
	server *http.Server
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics records request counts in registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(g *Gateway) {
		g.metrics = registry.CoreMetrics()
	}
}

// WithHealth serves checker at {prefix}/health.
func WithHealth(checker *health.Checker) Option {
	return func(g *Gateway) {
		g.health = checker
	}
}

// New creates a gateway running requests through runner.
func New(config gateway.Config, runner gateway.Runner, opts ...Option) (*Gateway, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "Gateway", "New", "config validation")
	}
	if runner == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Gateway", "New", "runner is required")
	}
	timeout, err := config.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	g := &Gateway{
		config:  config,
		runner:  runner,
		timeout: timeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "gateway")
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	if config.EnableCORS {
		g.upgrader.CheckOrigin = g.allowedOrigin
	}
	return g, nil
}

// RegisterHTTPHandlers mounts the data and stream routes under prefix.
func (g *Gateway) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	mux.HandleFunc(prefix+"data", g.handleData)
	mux.HandleFunc(prefix+"stream", g.handleStream)
	if g.health != nil {
		mux.Handle(prefix+"health", g.health)
	}
}

// Handler returns a mux with the routes mounted under the configured prefix.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	g.RegisterHTTPHandlers(g.config.Prefix, mux)
	return mux
}

// Start serves on the configured address until ctx is cancelled or Stop is
// called.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.server != nil {
		g.mu.Unlock()
		return errors.WrapInvalid(fmt.Errorf("server already running"), "Gateway", "Start", "gateway already running")
	}
	srv := &http.Server{
		Addr:              g.config.Address,
		Handler:           g.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if g.config.TLS != nil {
		tlsConfig, err := tlsutil.LoadServerTLSConfig(*g.config.TLS)
		if err != nil {
			g.mu.Unlock()
			return err
		}
		srv.TLSConfig = tlsConfig
	}
	g.server = srv
	g.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = g.Stop(5 * time.Second)
	}()

	g.logger.Info("Gateway listening", "address", g.config.Address, "prefix", g.config.Prefix,
		"tls", srv.TLSConfig != nil)
	var err error
	if srv.TLSConfig != nil {
		err = srv.ListenAndServeTLS("", "")
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		return errors.WrapFatal(err, "Gateway", "Start", fmt.Sprintf("listen on %s", g.config.Address))
	}
	return nil
}

// Stop shuts the server down, waiting up to timeout for open requests.
func (g *Gateway) Stop(timeout time.Duration) error {
	g.mu.Lock()
	srv := g.server
	g.server = nil
	g.mu.Unlock()

	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return errors.WrapTransient(err, "Gateway", "Stop", "shutdown")
	}
	return nil
}

func (g *Gateway) handleData(w http.ResponseWriter, r *http.Request) {
	requestID := getOrGenerateRequestID(r)
	w.Header().Set("X-Request-ID", requestID)
	logger := g.logger.With("request_id", requestID)

	if g.config.EnableCORS {
		g.applyCORS(w, r)
		if r.Method == http.MethodOptions {
			g.record(http.StatusNoContent)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		g.writeError(w, http.StatusMethodNotAllowed, errors.ErrorInvalid)
		return
	}

	state, tokens, err := g.parseQuery(r)
	if err != nil {
		logger.Info("Rejected data request", "error", err)
		g.writeError(w, http.StatusBadRequest, errors.ErrorInvalid)
		return
	}

	resp, status, class := g.execute(r.Context(), logger, state, tokens)
	if resp == nil {
		g.writeError(w, status, class)
		return
	}
	g.writeJSON(w, status, resp)
}

// execute runs one request under the gateway timeout. On failure the
// response is nil and status and class describe the error.
func (g *Gateway) execute(ctx context.Context, logger *slog.Logger, state chain.State, tokens []string) (*Response, int, errors.ErrorClass) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	c, runID, err := g.runner.Run(ctx, state, tokens)
	if err != nil {
		class := errors.Classify(err)
		status := mapErrorToHTTPStatus(err)
		logger.Warn("Data request failed",
			"run_id", runID, "region", state.Key(), "status", status, "class", class.String(), "error", err)
		return nil, status, class
	}

	logger.Debug("Data request served", "run_id", runID, "rows", len(c.Body))
	return &Response{RunID: runID, Header: c.Header, Body: c.Body}, http.StatusOK, errors.ErrorTransient
}

// Query is one data request: a region plus the field tokens to resolve.
type Query struct {
	Chr      string   `json:"chr"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Fields   []string `json:"fields"`
	LDRefVar string   `json:"ldrefvar,omitempty"`
}

// parseQuery reads chr, start, end, fields and the optional ldrefvar.
func (g *Gateway) parseQuery(r *http.Request) (chain.State, []string, error) {
	q := r.URL.Query()

	start, err := strconv.Atoi(q.Get("start"))
	if err != nil {
		return chain.State{}, nil, errors.WrapInvalid(err, "Gateway", "parseQuery", "parse start")
	}
	end, err := strconv.Atoi(q.Get("end"))
	if err != nil {
		return chain.State{}, nil, errors.WrapInvalid(err, "Gateway", "parseQuery", "parse end")
	}
	return g.resolve(Query{
		Chr:      q.Get("chr"),
		Start:    start,
		End:      end,
		Fields:   q["fields"],
		LDRefVar: q.Get("ldrefvar"),
	})
}

// resolve validates a query and turns it into a state and field tokens.
// Each Fields entry may hold several comma-separated tokens.
func (g *Gateway) resolve(q Query) (chain.State, []string, error) {
	chr := strings.TrimSpace(q.Chr)
	if chr == "" {
		return chain.State{}, nil, errors.WrapInvalid(errors.ErrInvalidData, "Gateway", "resolve", "chr is required")
	}
	if q.Start < 0 || q.End < q.Start {
		return chain.State{}, nil, errors.WrapInvalid(errors.ErrInvalidData, "Gateway", "resolve",
			fmt.Sprintf("invalid region %d-%d", q.Start, q.End))
	}

	var tokens []string
	for _, raw := range q.Fields {
		for _, tok := range strings.Split(raw, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				tokens = append(tokens, tok)
			}
		}
	}
	if len(tokens) == 0 {
		return chain.State{}, nil, errors.WrapInvalid(errors.ErrInvalidData, "Gateway", "resolve", "fields is required")
	}
	if len(tokens) > g.config.MaxFields {
		return chain.State{}, nil, errors.WrapInvalid(errors.ErrInvalidData, "Gateway", "resolve",
			fmt.Sprintf("%d fields exceeds limit of %d", len(tokens), g.config.MaxFields))
	}

	state := chain.State{Chr: chr, Start: q.Start, End: q.End}
	if ref := strings.TrimSpace(q.LDRefVar); ref != "" {
		state.Params = map[string]any{"ldrefvar": ref}
	}
	return state, tokens, nil
}

// mapErrorToHTTPStatus maps request errors to 400 and everything else,
// upstream failures and timeouts included, to 502.
func mapErrorToHTTPStatus(err error) int {
	if errors.Classify(err) == errors.ErrorInvalid {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func (g *Gateway) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	for _, allowed := range g.config.CORSOrigins {
		if allowed != "*" && allowed != origin {
			continue
		}
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "3600")
		return
	}
}

func (g *Gateway) record(status int) {
	if g.metrics != nil {
		g.metrics.RecordGatewayRequest(status)
	}
}

func (g *Gateway) writeError(w http.ResponseWriter, status int, class errors.ErrorClass) {
	g.writeJSON(w, status, ErrorResponse{Error: errorMessage, Class: class.String()})
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		g.logger.Error("Failed to encode response", "error", err)
		status = http.StatusInternalServerError
		data = []byte(`{"error":"` + errorMessage + `","class":"fatal"}`)
	}
	g.record(status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

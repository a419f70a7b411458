package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/pkg/tlsutil"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// HTTPClient fetches JSON documents for HTTP-backed adapters.
type HTTPClient struct {
	client    *retryablehttp.Client
	limiter   *rate.Limiter
	component string
}

// NewHTTPClient builds a client for component. The "retries" param sets how
// many times a failed request is retried (default 0, no retries); the
// "retry_wait" param (a duration string) bounds the wait between attempts.
// The tls_* params configure a private CA or a client certificate.
// "rate_limit" (requests per second) with "rate_burst" throttles requests.
func NewHTTPClient(component string, params Params, logger *slog.Logger) (*HTTPClient, error) {
	client := retryablehttp.NewClient()
	if tlsCfg := clientTLS(params); !tlsCfg.IsZero() {
		tlsConfig, err := tlsutil.LoadClientTLSConfig(tlsCfg)
		if err != nil {
			return nil, errors.WrapInvalid(err, component, "NewHTTPClient", "configure TLS")
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsConfig
		client.HTTPClient.Transport = transport
	}
	client.RetryMax = params.Int("retries", 0)
	if client.RetryMax < 0 {
		client.RetryMax = 0
	}
	if wait, err := time.ParseDuration(params.String("retry_wait", "")); err == nil && wait > 0 {
		client.RetryWaitMin = wait
		client.RetryWaitMax = wait
	}
	if logger == nil {
		logger = slog.Default()
	}
	client.Logger = logger.With("component", component)
	// Hand the last response back so status codes are classified below
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	h := &HTTPClient{client: client, component: component}
	if limit := params.Float("rate_limit", 0); limit > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(limit), max(params.Int("rate_burst", 1), 1))
	}
	return h, nil
}

func clientTLS(params Params) tlsutil.ClientConfig {
	return tlsutil.ClientConfig{
		CAFiles:            params.Strings("tls_ca_files"),
		CertFile:           params.String("tls_cert_file", ""),
		KeyFile:            params.String("tls_key_file", ""),
		MinVersion:         params.String("tls_min_version", ""),
		InsecureSkipVerify: params.Bool("tls_insecure_skip_verify", false),
	}
}

// GetJSON issues a GET request and decodes the JSON response.
func (h *HTTPClient) GetJSON(ctx context.Context, url string) (any, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapInvalid(err, h.component, "GetJSON", "build request")
	}
	req.Header.Set("Accept", "application/json")
	return h.do(req, "GetJSON")
}

// PostJSON issues a POST request with a JSON body and decodes the JSON response.
func (h *HTTPClient) PostJSON(ctx context.Context, url string, body any) (any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.WrapInvalid(err, h.component, "PostJSON", "encode request body")
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.WrapInvalid(err, h.component, "PostJSON", "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return h.do(req, "PostJSON")
}

func (h *HTTPClient) do(req *retryablehttp.Request, method string) (any, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(req.Context()); err != nil {
			return nil, errors.WrapTransient(err, h.component, method, "wait for rate limiter")
		}
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, errors.WrapTransient(err, h.component, method, fmt.Sprintf("request %s", req.URL.Redacted()))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := fmt.Errorf("%w: %d %s", errors.ErrUpstreamStatus, resp.StatusCode, bytes.TrimSpace(snippet))
		action := fmt.Sprintf("request %s", req.URL.Redacted())
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, errors.WrapTransient(statusErr, h.component, method, action)
		}
		return nil, errors.WrapInvalid(statusErr, h.component, method, action)
	}

	var out any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err), h.component, method, "decode response")
	}
	return out, nil
}

// FilterURL appends a filter expression, plus any extra query values, to base.
func FilterURL(base, filter string, extra url.Values) string {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

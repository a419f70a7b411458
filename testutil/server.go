package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// FixtureServer is an httptest server answering with canned JSON. It records
// the URL of every request so tests can assert on query construction.
type FixtureServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*url.URL
	bodies   [][]byte
}

// FixtureFunc answers one request with a status code and a JSON-encodable body.
type FixtureFunc func(r *http.Request) (int, any)

// NewFixtureServer starts a server driven by fn and closes it on test cleanup.
func NewFixtureServer(t testing.TB, fn FixtureFunc) *FixtureServer {
	t.Helper()

	fs := &FixtureServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			var raw json.RawMessage
			if err := json.NewDecoder(r.Body).Decode(&raw); err == nil {
				body = raw
			}
		}

		fs.mu.Lock()
		u := *r.URL
		fs.requests = append(fs.requests, &u)
		fs.bodies = append(fs.bodies, body)
		fs.mu.Unlock()

		status, payload := fn(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if payload != nil {
			_ = json.NewEncoder(w).Encode(payload)
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

// StaticFixture answers every request with 200 and payload.
func StaticFixture(payload any) FixtureFunc {
	return func(*http.Request) (int, any) {
		return http.StatusOK, payload
	}
}

// Hits returns the number of requests served.
func (fs *FixtureServer) Hits() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.requests)
}

// Requests returns the URLs of the requests served, in order.
func (fs *FixtureServer) Requests() []*url.URL {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]*url.URL(nil), fs.requests...)
}

// LastRequest returns the most recent request URL, or nil.
func (fs *FixtureServer) LastRequest() *url.URL {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.requests) == 0 {
		return nil
	}
	return fs.requests[len(fs.requests)-1]
}

// Bodies returns the decoded JSON request bodies, nil for requests without one.
func (fs *FixtureServer) Bodies() [][]byte {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([][]byte(nil), fs.bodies...)
}

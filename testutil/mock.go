package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
)

// MockSource is a spy adapter.Source. Its stage extracts the requested
// fields from Rows, stores them under the source id and appends them to the
// body. Thread-safe for concurrent use.
type MockSource struct {
	mu sync.Mutex

	Name string
	Rows []chain.Record
	Err  error

	// StageFunc replaces the default stage when set.
	StageFunc func(ctx context.Context, c *chain.Chain, req adapter.Request) (*chain.Chain, error)

	calls  int
	closed bool
}

// NewMockSource creates a spy source serving rows.
func NewMockSource(id string, rows ...chain.Record) *MockSource {
	return &MockSource{Name: id, Rows: rows}
}

// ID returns the source id.
func (m *MockSource) ID() string {
	return m.Name
}

// GetData returns the spy stage.
func (m *MockSource) GetData(_ chain.State, req adapter.Request) adapter.Stage {
	return func(ctx context.Context, c *chain.Chain) (*chain.Chain, error) {
		m.mu.Lock()
		m.calls++
		stageFunc, err := m.StageFunc, m.Err
		rows := chain.CloneRecords(m.Rows)
		m.mu.Unlock()

		if stageFunc != nil {
			return stageFunc(ctx, c, req)
		}
		if err != nil {
			return nil, err
		}

		out, err := adapter.ExtractFields(rows, req)
		if err != nil {
			return nil, err
		}
		c.Discrete[m.Name] = chain.CloneRecords(out)
		return c.WithBody(append(chain.CloneRecords(c.Body), out...)), nil
	}
}

// Calls returns how many times a stage of this source ran.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the source closed.
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockFetcher is an adapter.Fetcher returning Payload and counting fetches.
// The cache key is the encoded state.
type MockFetcher struct {
	mu      sync.Mutex
	Payload any
	Err     error
	calls   int
}

// CacheKey keys responses by the full request state.
func (f *MockFetcher) CacheKey(state chain.State, _ *chain.Chain, _ []string) (string, bool) {
	return state.Key(), true
}

// Fetch returns the payload or the configured error.
func (f *MockFetcher) Fetch(ctx context.Context, _ chain.State, _ *chain.Chain, _ []string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Payload, nil
}

// Calls returns how many fetches ran.
func (f *MockFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Common test errors
var (
	ErrMockFailed     = errors.New("mock operation failed")
	ErrMockConnection = errors.New("mock connection error")
)

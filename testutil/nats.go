package testutil

import (
	"context"
	"fmt"
	"sync"
)

// MockRequester is an in-memory stand-in for natsclient.Client request/reply.
// Responders are registered per subject. Thread-safe for concurrent use.
type MockRequester struct {
	mu         sync.RWMutex
	responders map[string]func(ctx context.Context, data []byte) ([]byte, error)
	requests   map[string][][]byte
}

// NewMockRequester creates a requester with no responders.
func NewMockRequester() *MockRequester {
	return &MockRequester{
		responders: make(map[string]func(context.Context, []byte) ([]byte, error)),
		requests:   make(map[string][][]byte),
	}
}

// Respond registers the handler answering requests on subject.
func (m *MockRequester) Respond(subject string, handler func(ctx context.Context, data []byte) ([]byte, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responders[subject] = handler
}

// Request records data and returns the responder's answer (matches natsclient.Client signature).
func (m *MockRequester) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.requests[subject] = append(m.requests[subject], append([]byte(nil), data...))
	handler, ok := m.responders[subject]
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no responders available for subject %s", subject)
	}
	return handler(ctx, data)
}

// Requests returns a copy of the payloads sent on subject.
func (m *MockRequester) Requests(subject string) [][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.requests[subject]
	result := make([][]byte, len(msgs))
	copy(result, msgs)
	return result
}

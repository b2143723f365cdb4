package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/m4xw311/gemini-agent/errors"
	"github.com/m4xw311/gemini-agent/session"
)

// Request is one generation call against a single model. History is empty
// for one-shot calls.
type Request struct {
	Model   string
	History []session.Message
	Message session.Message
}

// Backend is a generation provider. Implementations return the reply text or
// the provider's own error value so the transient classifier can inspect it.
type Backend interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// MockResponse is one scripted outcome for MockBackend.
type MockResponse struct {
	Text string
	Err  error
}

// MockBackend replays scripted responses in order and records every request.
// Once the script runs out it parrots the last message back.
type MockBackend struct {
	mu        sync.Mutex
	Responses []MockResponse
	Requests  []Request
}

func NewMockBackend(responses ...MockResponse) *MockBackend {
	return &MockBackend{Responses: responses}
}

func (m *MockBackend) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(m.Responses) == 0 {
		return fmt.Sprintf("I am a mock model (%s). You said: '%s'", req.Model, req.Message.Content), nil
	}
	r := m.Responses[0]
	m.Responses = m.Responses[1:]
	return r.Text, r.Err
}

// Calls returns how many requests the mock has seen.
func (m *MockBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// StatusError is a provider-neutral failure carrying an HTTP-like status code.
// Backends without a typed SDK error use it; tests use it to script outages.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

var errEmptyResponse = errors.Sentinel("empty response from model")

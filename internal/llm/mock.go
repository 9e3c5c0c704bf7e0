package llm

import (
	"context"
	"errors"
	"sync"
)

// MockResponse is one canned reply or failure.
type MockResponse struct {
	Text      string
	Usage     Usage
	Truncated bool
	Err       error
}

// TextResponse is a canned plain-text reply.
func TextResponse(text string) MockResponse {
	return MockResponse{Text: text}
}

// FailResponse is a canned failure of the given kind.
func FailResponse(kind FailureKind) MockResponse {
	return MockResponse{Err: Fail(kind, "mock", errors.New(string(kind)))}
}

// MockProvider replays canned responses in order and records every request.
// An exhausted queue fails as unavailable.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	calls     []Request
}

func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)
	if err := ctx.Err(); err != nil {
		return nil, Fail(FailureCanceled, "mock", err)
	}
	if len(m.responses) == 0 {
		return nil, Fail(FailureUnavailable, "mock", errors.New("no canned responses left"))
	}

	next := m.responses[0]
	m.responses = m.responses[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return &Response{Text: next.Text, Usage: next.Usage, Model: "mock", Truncated: next.Truncated}, nil
}

func (m *MockProvider) ModelID() string { return "mock" }

func (m *MockProvider) Name() string { return "mock" }

// LastCall returns the most recent request.
func (m *MockProvider) LastCall() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Request{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// Calls returns a copy of every request received so far.
func (m *MockProvider) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

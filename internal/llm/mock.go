package llm

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error

	// Delay makes Generate sleep before answering. The sleep ignores the
	// context so tests can observe a caller abandoning a slow call.
	Delay time.Duration
}

// Text is a convenience for building a MockResponse from a string.
func Text(s string) MockResponse {
	return MockResponse{Content: json.RawMessage(s)}
}

// MockProvider is a deterministic Provider for testing.
// It returns canned responses in FIFO order and records all requests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate returns the next canned response or ErrProviderUnavailable if
// the queue is empty.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		m.mu.Unlock()
		return nil, &ErrProviderUnavailable{Err: nil}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]
	m.mu.Unlock()

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	if resp.Err != nil {
		return nil, resp.Err
	}

	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Prompts returns the user prompt of every recorded call, in order.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		var s string
		for _, msg := range c.Messages {
			if msg.Role == RoleUser {
				s = msg.Content
			}
		}
		out = append(out, s)
	}
	return out
}

// FuncProvider adapts a function to the Provider interface.
type FuncProvider func(ctx context.Context, req Request) (*Response, error)

func (f FuncProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

func (f FuncProvider) ModelID() string { return "func" }

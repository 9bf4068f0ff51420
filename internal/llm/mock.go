package llm

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"
)

// MockResponse scripts one reply of a MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	// StopReason defaults to a normal end of turn.
	StopReason string
	Err        error
	// Delay holds the reply back; a context that ends first wins.
	Delay time.Duration
}

// MockText scripts a plain reply.
func MockText(s string) MockResponse {
	return MockResponse{Content: json.RawMessage(s)}
}

// MockJSON scripts a reply holding v encoded as JSON.
func MockJSON(v any) MockResponse {
	b, err := json.Marshal(v)
	if err != nil {
		return MockResponse{Err: err}
	}
	return MockResponse{Content: b}
}

// MockRefusal scripts a reply withheld by the model's safety filter.
func MockRefusal() MockResponse {
	return MockResponse{StopReason: stopRefused}
}

// errMockExhausted is wrapped when a MockProvider runs out of replies.
var errMockExhausted = errors.New("mock: no scripted replies left")

// MockProvider replays scripted replies in order and records every request.
// Replies go through the same checks as the SDK providers, so a scripted
// reply that breaks a request's schema fails with ErrInvalidResponse.
type MockProvider struct {
	mu      sync.Mutex
	script  []MockResponse
	history []Request
}

func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	next, ok := m.pop(req)
	if !ok {
		return nil, &ErrProviderUnavailable{Err: errMockExhausted}
	}

	if next.Delay > 0 {
		t := time.NewTimer(next.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if next.Err != nil {
		return nil, next.Err
	}

	stop := next.StopReason
	if stop == "" {
		stop = stopEnd
	}
	return finishResponse(req, &Response{
		Content:    next.Content,
		Usage:      next.Usage,
		Model:      "mock",
		StopReason: stop,
	})
}

func (m *MockProvider) pop(req Request) (MockResponse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, req)
	if len(m.script) == 0 {
		return MockResponse{}, false
	}
	next := m.script[0]
	m.script = m.script[1:]
	return next, true
}

func (m *MockProvider) ModelID() string { return "mock" }

// Requests returns a copy of every request received so far.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.history)
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

// LastCall returns the most recent request.
func (m *MockProvider) LastCall() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return Request{}, false
	}
	return m.history[len(m.history)-1], true
}

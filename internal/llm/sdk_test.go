package llm

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// stubAPI is a canned HTTP backend for the SDK-backed providers. It records
// every request body and header set it sees.
type stubAPI struct {
	mu      sync.Mutex
	bodies  []string
	headers []http.Header

	status int
	header http.Header
	body   any
}

func newStubAPI(t *testing.T, status int, body any) (*stubAPI, *httptest.Server) {
	t.Helper()
	s := &stubAPI{status: status, body: body, header: http.Header{}}
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *stubAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.bodies = append(s.bodies, string(raw))
	s.headers = append(s.headers, r.Header.Clone())
	s.mu.Unlock()

	for k, vs := range s.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(s.status)
	_ = json.NewEncoder(w).Encode(s.body)
}

func (s *stubAPI) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

func (s *stubAPI) lastBody() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.bodies) == 0 {
		return ""
	}
	return s.bodies[len(s.bodies)-1]
}

func (s *stubAPI) lastHeader() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.headers) == 0 {
		return nil
	}
	return s.headers[len(s.headers)-1]
}

// estimateSchema mirrors the insight prediction schema, bounds included.
func estimateSchema() *Schema {
	return &Schema{
		Name:        "test-stress-estimate",
		Description: "A stress estimate",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"stress_level":       map[string]any{"type": "string", "enum": []any{"Low", "Moderate", "High"}},
				"stress_probability": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			},
			"required":             []any{"stress_level", "stress_probability"},
			"additionalProperties": false,
		},
	}
}

var wellnessPrompt = Request{
	System:    "You are a supportive wellness assistant.",
	Messages:  []Message{{Role: RoleUser, Content: "Explain my stress level."}},
	MaxTokens: 256,
}

func structuredPrompt() Request {
	req := wellnessPrompt
	req.Schema = estimateSchema()
	return req
}

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestMockProvider_Replays(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage("Sleep looks solid."), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockJSON(map[string]any{"stress_level": "Low", "stress_probability": 0.7}),
	)
	ctx := context.Background()

	first, err := mock.Generate(ctx, Request{System: "one"})
	if err != nil {
		t.Fatalf("first reply: %v", err)
	}
	if first.Text() != "Sleep looks solid." || first.Usage.TotalTokens != 15 {
		t.Fatalf("unexpected first reply %+v", first)
	}
	if first.StopReason != stopEnd || first.Model != "mock" {
		t.Fatalf("unexpected metadata %q %q", first.StopReason, first.Model)
	}

	second, err := mock.Generate(ctx, Request{System: "two", Schema: testSchema()})
	if err != nil {
		t.Fatalf("structured reply: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(second.Content, &got); err != nil || got["stress_level"] != "Low" {
		t.Fatalf("unexpected structured reply %s (%v)", second.Content, err)
	}

	reqs := mock.Requests()
	if len(reqs) != 2 || reqs[0].System != "one" || reqs[1].System != "two" {
		t.Fatalf("requests not recorded in order: %+v", reqs)
	}
	if last, ok := mock.LastCall(); !ok || last.System != "two" {
		t.Fatalf("last call = %q (ok=%v)", last.System, ok)
	}
}

func TestMockProvider_Failures(t *testing.T) {
	tests := []struct {
		name   string
		script []MockResponse
		req    Request
		check  func(error) bool
	}{
		{
			name:  "exhausted script",
			check: func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) && errors.Is(err, errMockExhausted) },
		},
		{
			name:   "scripted error",
			script: []MockResponse{{Err: &ErrRateLimit{}}},
			check:  func(err error) bool { var e *ErrRateLimit; return errors.As(err, &e) },
		},
		{
			name:   "schema violation",
			script: []MockResponse{MockText(`{"stress_level":"Extreme","stress_probability":0.5}`)},
			req:    Request{Schema: testSchema()},
			check:  func(err error) bool { var e *ErrInvalidResponse; return errors.As(err, &e) },
		},
		{
			name:   "truncated structured reply",
			script: []MockResponse{{Content: json.RawMessage(`{"stress_le`), StopReason: stopMaxTokens}},
			req:    Request{Schema: testSchema()},
			check:  func(err error) bool { var e *ErrMaxTokensExceeded; return errors.As(err, &e) },
		},
		{
			name:   "refusal",
			script: []MockResponse{MockRefusal()},
			check:  func(err error) bool { var e *ErrContentRefused; return errors.As(err, &e) },
		},
		{
			name:   "unencodable json",
			script: []MockResponse{MockJSON(make(chan int))},
			check:  func(err error) bool { return err != nil },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.script...)
			_, err := mock.Generate(context.Background(), tt.req)
			if !tt.check(err) {
				t.Fatalf("unexpected error %T: %v", err, err)
			}
			if mock.CallCount() != 1 {
				t.Fatalf("call count = %d, want 1", mock.CallCount())
			}
		})
	}
}

func TestMockProvider_DelayHonorsContext(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`late`), Delay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	if _, err := mock.Generate(ctx, Request{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got: %v", err)
	}
}

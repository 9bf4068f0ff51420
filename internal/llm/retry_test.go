package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func fail(err error) MockResponse { return MockResponse{Err: err} }

func TestRetry_Policy(t *testing.T) {
	down := &ErrProviderUnavailable{Err: errors.New("down")}
	ok := MockText(`{"ok":true}`)

	tests := []struct {
		name      string
		responses []MockResponse
		wantCalls int
		wantErr   bool
	}{
		{"first attempt succeeds", []MockResponse{ok}, 1, false},
		{"outage then success", []MockResponse{fail(down), ok}, 2, false},
		{"outage on every attempt", []MockResponse{fail(down), fail(down), fail(down), ok}, 3, true},
		{"rate limit honours retry-after", []MockResponse{fail(&ErrRateLimit{RetryAfter: time.Millisecond, Err: errors.New("429")}), ok}, 2, false},
		{"plain network error", []MockResponse{fail(errors.New("connection reset")), ok}, 2, false},
		{"truncated output", []MockResponse{fail(&ErrMaxTokensExceeded{Content: json.RawMessage(`{`)}), ok}, 1, true},
		{"invalid response", []MockResponse{fail(&ErrInvalidResponse{Content: json.RawMessage(`bad`), Err: errors.New("bad")}), ok}, 1, true},
		{"rejected request", []MockResponse{fail(&ErrRequestRejected{StatusCode: 401, Err: errors.New("bad key")}), ok}, 1, true},
		{"refusal", []MockResponse{fail(&ErrContentRefused{Reason: "safety filter"}), ok}, 1, true},
		{"deadline", []MockResponse{fail(context.DeadlineExceeded), ok}, 1, true},
		{"wrapped deadline", []MockResponse{fail(&ErrProviderUnavailable{Err: context.DeadlineExceeded}), ok}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			resp, err := WithRetry(mock, retryConfig(), nil).Generate(context.Background(), Request{})

			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && resp.Text() != `{"ok":true}` {
				t.Fatalf("unexpected content: %s", resp.Content)
			}
			if mock.CallCount() != tt.wantCalls {
				t.Fatalf("expected %d calls, got %d", tt.wantCalls, mock.CallCount())
			}
		})
	}
}

func TestRetry_KeepsErrorKind(t *testing.T) {
	mock := NewMockProvider(fail(&ErrRequestRejected{StatusCode: 404, Err: errors.New("no such model")}))
	_, err := WithRetry(mock, retryConfig(), nil).Generate(context.Background(), Request{})

	var rejected *ErrRequestRejected
	if !errors.As(err, &rejected) || rejected.StatusCode != 404 {
		t.Fatalf("expected ErrRequestRejected(404), got %v", err)
	}
}

func TestRetry_ZeroAttemptsStillCalls(t *testing.T) {
	mock := NewMockProvider(MockText("ok"))
	if _, err := WithRetry(mock, RetryConfig{}, nil).Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_StopsWaitingWhenCancelled(t *testing.T) {
	mock := NewMockProvider(fail(&ErrProviderUnavailable{}), MockText("never"))
	cfg := RetryConfig{MaxAttempts: 2, InitialWait: time.Minute, MaxWait: time.Minute, Multiplier: 1}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := WithRetry(mock, cfg, nil).Generate(ctx, Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("backoff ignored the context")
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_LogsEachRetry(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	mock := NewMockProvider(fail(&ErrProviderUnavailable{}), fail(&ErrProviderUnavailable{}), MockText("ok"))

	ctx := WithPurpose(context.Background(), "insight.chat")
	if _, err := WithRetry(mock, retryConfig(), zap.New(core)).Generate(ctx, Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := logs.FilterMessage("retrying llm request").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 retry logs, got %d", len(entries))
	}
	if got := entries[1].ContextMap()["attempt"]; got != int64(2) {
		t.Fatalf("attempt = %v, want 2", got)
	}
	if got := entries[0].ContextMap()["purpose"]; got != "insight.chat" {
		t.Fatalf("purpose = %v", got)
	}
}

func TestRetry_BackoffBounds(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{InitialWait: 100 * time.Millisecond, MaxWait: 300 * time.Millisecond, Multiplier: 2}}

	for attempt, base := range []time.Duration{100, 200, 300, 300} {
		base *= time.Millisecond
		for range 50 {
			got := r.backoff(attempt, errors.New("x"))
			if got < base*8/10 || got > base*12/10 {
				t.Fatalf("attempt %d: wait %s outside ±20%% of %s", attempt, got, base)
			}
		}
	}

	hinted := r.backoff(0, &ErrRateLimit{RetryAfter: time.Hour})
	if hinted != 300*time.Millisecond {
		t.Fatalf("retry-after should be capped at MaxWait, got %s", hinted)
	}
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	if got := WithRetry(NewMockProvider(), retryConfig(), nil).ModelID(); got != "mock" {
		t.Fatalf("expected 'mock', got %q", got)
	}
}

package llm

import (
	"context"
	"net/http"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func chatCompletion(content, finish string, extra map[string]any) map[string]any {
	msg := map[string]any{"role": "assistant", "content": content}
	for k, v := range extra {
		msg[k] = v
	}
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4.1-mini",
		"choices": []map[string]any{{"index": 0, "message": msg, "finish_reason": finish}},
		"usage":   map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func newTestOpenAIProvider(t *testing.T, status int, body any) (*stubAPI, *OpenAIProvider) {
	t.Helper()
	stub, srv := newStubAPI(t, status, body)
	p := newOpenAIProvider(openai.DefaultConfig("test-key"), OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-mini",
		BaseURL: srv.URL + "/v1",
	})
	return stub, p
}

func TestOpenAIProvider_FreeText(t *testing.T) {
	stub, p := newTestOpenAIProvider(t, http.StatusOK,
		chatCompletion("Your HRV is a little low today; a short walk could help.", "stop", nil))

	resp, err := p.Generate(context.Background(), wellnessPrompt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 || resp.StopReason != stopEnd {
		t.Fatalf("unexpected response: %+v", resp)
	}

	body := stub.lastBody()
	if !strings.Contains(body, `"gpt-4.1-mini"`) {
		t.Fatalf("friendly model name not resolved: %s", body)
	}
	if !strings.Contains(body, `"role":"system"`) {
		t.Fatalf("system prompt not sent as a system message: %s", body)
	}
	if strings.Contains(body, "response_format") {
		t.Fatalf("free text must not request a response format: %s", body)
	}
}

func TestOpenAIProvider_StructuredUsesStrictPortableSchema(t *testing.T) {
	stub, p := newTestOpenAIProvider(t, http.StatusOK,
		chatCompletion(`{"stress_level":"Low","stress_probability":0.7}`, "stop", nil))

	if _, err := p.Generate(context.Background(), structuredPrompt()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := stub.lastBody()
	for _, want := range []string{`"json_schema"`, `"strict":true`, `"test-stress-estimate"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("request missing %s: %s", want, body)
		}
	}
	if strings.Contains(body, "maximum") {
		t.Fatalf("strict schema must not carry numeric bounds: %s", body)
	}
}

func TestOpenAIProvider_ResponseChecks(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		want any
	}{
		{"content filter", chatCompletion("", "content_filter", nil), &ErrContentRefused{}},
		{"refusal message", chatCompletion("", "stop", map[string]any{"refusal": "I can't help with that."}), &ErrContentRefused{}},
		{"length", chatCompletion(`{"stress_level":`, "length", nil), &ErrMaxTokensExceeded{}},
		{"probability out of range", chatCompletion(`{"stress_level":"Low","stress_probability":7}`, "stop", nil), &ErrInvalidResponse{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, p := newTestOpenAIProvider(t, http.StatusOK, tt.body)
			_, err := p.Generate(context.Background(), structuredPrompt())
			assertErrorKind(t, err, tt.want)
		})
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	body := chatCompletion("", "stop", nil)
	body["choices"] = []any{}
	_, p := newTestOpenAIProvider(t, http.StatusOK, body)

	_, err := p.Generate(context.Background(), wellnessPrompt)
	assertErrorKind(t, err, &ErrInvalidResponse{})
}

func TestOpenAIProvider_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   any
	}{
		{http.StatusTooManyRequests, &ErrRateLimit{}},
		{http.StatusServiceUnavailable, &ErrProviderUnavailable{}},
		{http.StatusUnauthorized, &ErrRequestRejected{}},
		{http.StatusBadRequest, &ErrRequestRejected{}},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			_, p := newTestOpenAIProvider(t, tt.status, map[string]any{
				"error": map[string]any{"message": "nope", "type": "error"},
			})
			_, err := p.Generate(context.Background(), wellnessPrompt)
			assertErrorKind(t, err, tt.want)
		})
	}
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(OpenAIConfig{Model: "gpt-mini"}); err == nil {
		t.Fatal("expected error without API key")
	}
}

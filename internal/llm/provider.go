package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider is the single capability stresslens needs from a text-generation
// service: send a prompt, get generated content back.
type Provider interface {
	// Generate sends a prompt to the model. When req.Schema is set the
	// provider asks for JSON matching it and validates the result before
	// returning; otherwise Content carries the raw generated text.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the configured model, used for audit rows and pricing.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System sets the assistant's role and tone.
	System string

	// Messages is the conversation. Insight generation is always single-turn,
	// so this normally holds one user message.
	Messages []Message

	// Schema, when set, requests structured JSON output.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]; zero leaves the provider default.
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role says who wrote a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name is sent to the SDKs as the tool or response format name.
	// Kebab-case.
	Name string

	Description string

	// Definition is the JSON Schema document as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is validated JSON when the request carried a Schema and the
	// raw generated text otherwise.
	Content json.RawMessage

	Usage Usage

	// Model is the model that served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "refused".
	StopReason string
}

// Text returns Content as trimmed text.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(string(r.Content))
}

// Usage is the token count reported for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

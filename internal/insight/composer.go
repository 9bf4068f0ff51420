package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/stresslens/internal/features"
	"github.com/abhisek/stresslens/internal/llm"
)

// Composer turns predictions and rule findings into generated text. It keeps
// no state between calls and is safe for concurrent use.
type Composer struct {
	provider llm.Provider
	cfg      Config
}

// NewComposer creates a composer backed by provider.
func NewComposer(provider llm.Provider, cfg Config) *Composer {
	return &Composer{provider: provider, cfg: cfg}
}

// ModelID reports the model the composer generates with.
func (c *Composer) ModelID() string {
	return c.provider.ModelID()
}

// Compose makes a single generation call for in.Mode. Input errors are
// *features.ValidationError; generation failures are one of
// *GenerationError, *GenerationFormatError or *GenerationTimeoutError.
func (c *Composer) Compose(ctx context.Context, in Input) (*Insight, error) {
	if !in.Mode.Valid() {
		return nil, features.FieldErr("mode", fmt.Sprintf("unknown mode %q", in.Mode))
	}
	if in.Mode == ModeChat && strings.TrimSpace(in.Message) == "" {
		return nil, features.FieldErr("message", "required")
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	ctx = llm.WithPurpose(ctx, "insight."+string(in.Mode))

	schema := schemaFor(in.Mode)
	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(in)},
		},
		Schema:      schema,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	resp, err := c.provider.Generate(ctx, req)
	if err != nil {
		return nil, c.classify(in.Mode, err)
	}

	out := &Insight{Mode: in.Mode, Model: resp.Model}

	if !in.Mode.Structured() {
		text := resp.Text()
		if text == "" {
			return nil, &GenerationError{Mode: in.Mode, Err: errors.New("empty response")}
		}
		out.Text = text
		return out, nil
	}

	// Providers without native structured output hand back whatever the
	// model wrote, so the shape is checked again here.
	if err := llm.ValidateContent(schema, resp.Content); err != nil {
		return nil, &GenerationFormatError{Mode: in.Mode, Content: resp.Content, Err: err}
	}

	switch in.Mode {
	case ModeStructuredPrediction:
		var p GeneratedPrediction
		if err := json.Unmarshal(resp.Content, &p); err != nil {
			return nil, &GenerationFormatError{Mode: in.Mode, Content: resp.Content, Err: err}
		}
		out.Prediction = &p
	case ModeStructuredRecommendation:
		var r GeneratedRecommendation
		if err := json.Unmarshal(resp.Content, &r); err != nil {
			return nil, &GenerationFormatError{Mode: in.Mode, Content: resp.Content, Err: err}
		}
		out.Recommendation = &r
	}
	return out, nil
}

func (c *Composer) classify(mode Mode, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &GenerationTimeoutError{Mode: mode, Timeout: c.cfg.Timeout, Err: err}
	}

	var invalid *llm.ErrInvalidResponse
	if errors.As(err, &invalid) {
		return &GenerationFormatError{Mode: mode, Content: invalid.Content, Err: err}
	}
	var truncated *llm.ErrMaxTokensExceeded
	if errors.As(err, &truncated) {
		return &GenerationFormatError{Mode: mode, Content: truncated.Content, Err: err}
	}

	return &GenerationError{Mode: mode, Err: err}
}

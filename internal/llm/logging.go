package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/abhisek/stresslens/internal/store"
)

// maxAuditBody caps each captured prompt or reply in the audit log.
const maxAuditBody = 32 << 10

// auditProvider logs every call and appends it to the audit log.
type auditProvider struct {
	next     Provider
	provider string
	repo     store.EventRepo
	logger   *zap.Logger
}

// WithLogging wraps p so every call is logged and, when repo is non-nil,
// recorded for `llm list` and `llm stats`. An audit write that fails is
// logged and never fails the call.
func WithLogging(p Provider, providerName string, repo store.EventRepo, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &auditProvider{next: p, provider: providerName, repo: repo, logger: logger}
}

func (a *auditProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := a.next.Generate(ctx, req)
	elapsed := time.Since(start)

	ev := store.LLMRequestEventData{
		Provider:    a.provider,
		Model:       a.next.ModelID(),
		Purpose:     PurposeFrom(ctx),
		RequestID:   RequestIDFrom(ctx),
		LatencyMs:   elapsed.Milliseconds(),
		Success:     err == nil,
		RequestBody: capBody(transcript(req)),
	}
	if resp != nil {
		if resp.Model != "" {
			ev.Model = resp.Model
		}
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = capBody(string(resp.Content))
	}

	log := a.logger.With(
		zap.String("provider", ev.Provider),
		zap.String("model", ev.Model),
		zap.String("purpose", ev.Purpose),
		zap.Duration("latency", elapsed),
	)
	if ev.RequestID != "" {
		log = log.With(zap.String("request_id", ev.RequestID))
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
		log.Warn("llm call failed", zap.String("kind", errorKind(err)), zap.Error(err))
	} else {
		log.Debug("llm call",
			zap.Int("input_tokens", ev.InputTokens),
			zap.Int("output_tokens", ev.OutputTokens),
		)
	}

	if a.repo != nil {
		// The audit row outlives a cancelled request.
		if werr := a.repo.AppendLLMRequest(context.WithoutCancel(ctx), ev); werr != nil {
			log.Warn("audit write failed", zap.Error(werr))
		}
	}
	return resp, err
}

func (a *auditProvider) ModelID() string { return a.next.ModelID() }

// errorKind names the failure class for log filtering.
func errorKind(err error) string {
	var (
		rateLimit   *ErrRateLimit
		unavailable *ErrProviderUnavailable
		rejected    *ErrRequestRejected
		refused     *ErrContentRefused
		invalid     *ErrInvalidResponse
		truncated   *ErrMaxTokensExceeded
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &rateLimit):
		return "rate_limit"
	case errors.As(err, &unavailable):
		return "unavailable"
	case errors.As(err, &rejected):
		return "rejected"
	case errors.As(err, &refused):
		return "refused"
	case errors.As(err, &invalid):
		return "invalid_response"
	case errors.As(err, &truncated):
		return "max_tokens"
	}
	return "other"
}

// transcript renders req the way `llm view` shows it.
func transcript(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}

func capBody(s string) string {
	if len(s) <= maxAuditBody {
		return s
	}
	cut := maxAuditBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + fmt.Sprintf("\n[truncated %d bytes]", len(s)-cut)
}

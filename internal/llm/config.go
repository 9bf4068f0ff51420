package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// discoveryOrder is the precedence used when no provider is selected.
// Gemini's free tier makes it the cheapest default.
var discoveryOrder = []string{ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOpenRouter}

// standardKeyVars are the vendor SDKs' own API key variables.
var standardKeyVars = map[string]string{
	ProviderAnthropic:  "ANTHROPIC_API_KEY",
	ProviderOpenAI:     "OPENAI_API_KEY",
	ProviderGemini:     "GEMINI_API_KEY",
	ProviderOpenRouter: "OPENROUTER_API_KEY",
}

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use. Empty means none is
	// configured and insight features are disabled.
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig
}

type AnthropicConfig struct {
	APIKey  string
	Model   string // Default: "claude-haiku"
	BaseURL string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-mini"
	BaseURL string // Override for compatible APIs.
}

type GeminiConfig struct {
	APIKey  string
	Model   string // Default: "gemini-flash"
	BaseURL string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.5-flash"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
	// AppURL and AppTitle are sent as OpenRouter attribution headers.
	AppURL   string
	AppTitle string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with no provider selected and small,
// fast default models: insight replies are a few sentences long.
func DefaultConfig() Config {
	return Config{
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.5-flash"},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// apiKey returns a pointer to the key field of the named provider, or nil.
func (c *Config) apiKey(provider string) *string {
	switch provider {
	case ProviderAnthropic:
		return &c.Anthropic.APIKey
	case ProviderOpenAI:
		return &c.OpenAI.APIKey
	case ProviderGemini:
		return &c.Gemini.APIKey
	case ProviderOpenRouter:
		return &c.OpenRouter.APIKey
	}
	return nil
}

// ApplyEnv overlays STRESSLENS_* environment variables onto cfg.
func (c *Config) ApplyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.Provider, "STRESSLENS_LLM_PROVIDER")

	set(&c.Anthropic.APIKey, "STRESSLENS_ANTHROPIC_API_KEY")
	set(&c.Anthropic.Model, "STRESSLENS_ANTHROPIC_MODEL")
	set(&c.Anthropic.BaseURL, "STRESSLENS_ANTHROPIC_BASE_URL")

	set(&c.OpenAI.APIKey, "STRESSLENS_OPENAI_API_KEY")
	set(&c.OpenAI.Model, "STRESSLENS_OPENAI_MODEL")
	set(&c.OpenAI.BaseURL, "STRESSLENS_OPENAI_BASE_URL")

	set(&c.Gemini.APIKey, "STRESSLENS_GEMINI_API_KEY")
	set(&c.Gemini.Model, "STRESSLENS_GEMINI_MODEL")
	set(&c.Gemini.BaseURL, "STRESSLENS_GEMINI_BASE_URL")

	set(&c.OpenRouter.APIKey, "STRESSLENS_OPENROUTER_API_KEY")
	set(&c.OpenRouter.Model, "STRESSLENS_OPENROUTER_MODEL")
	set(&c.OpenRouter.BaseURL, "STRESSLENS_OPENROUTER_BASE_URL")
	set(&c.OpenRouter.AppURL, "STRESSLENS_OPENROUTER_APP_URL")

	if v := os.Getenv("STRESSLENS_LLM_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retry.MaxAttempts = n
		}
	}
}

// Discover completes the selection from the standard API key variables.
// A selected provider without a key takes its vendor variable; with no
// selection the first provider in discoveryOrder whose variable is set
// wins. It reports whether a provider is selected afterwards.
func (c *Config) Discover() bool {
	if c.Provider != "" {
		if key := c.apiKey(c.Provider); key != nil && *key == "" {
			*key = os.Getenv(standardKeyVars[c.Provider])
		}
		return true
	}

	for _, p := range discoveryOrder {
		if k := os.Getenv(standardKeyVars[p]); k != "" {
			c.Provider = p
			*c.apiKey(p) = k
			return true
		}
	}
	return false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "":
		return fmt.Errorf("no LLM provider configured")
	case ProviderMock:
	default:
		key := c.apiKey(c.Provider)
		if key == nil {
			return fmt.Errorf("unknown LLM provider: %q", c.Provider)
		}
		if *key == "" {
			return fmt.Errorf("%s or %s is required for the %s provider",
				standardKeyVars[c.Provider], envKeyVar(c.Provider), c.Provider)
		}
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1")
	}
	return nil
}

func envKeyVar(provider string) string {
	return "STRESSLENS_" + strings.ToUpper(provider) + "_API_KEY"
}

// Package config loads stresslens settings from a YAML file, an optional
// .env file and STRESSLENS_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/stresslens/internal/insight"
	"github.com/abhisek/stresslens/internal/llm"
)

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Model   ModelConfig   `yaml:"model"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
	LLM     LLMConfig     `yaml:"llm"`
}

type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
}

type ModelConfig struct {
	// Path to a forest artifact. Empty uses the embedded default.
	Path string `yaml:"path"`
}

type StoreConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path to the SQLite audit database. Empty uses the XDG data dir.
	Path string `yaml:"path"`
	// Retention drops audit rows older than this at startup. Zero keeps all.
	Retention time.Duration `yaml:"retention"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// LLMConfig selects and tunes the text-generation provider. Model, APIKey
// and BaseURL apply to the selected provider only.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	ins := insight.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:          ":5000",
			ReadTimeout:   15 * time.Second,
			WriteTimeout:  60 * time.Second,
			ShutdownGrace: 10 * time.Second,
		},
		Store: StoreConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		LLM: LLMConfig{
			Timeout:     ins.Timeout,
			MaxTokens:   ins.MaxTokens,
			Temperature: ins.Temperature,
			MaxAttempts: llm.DefaultConfig().Retry.MaxAttempts,
		},
	}
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. An empty path skips the file; a path that does
// not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=value pairs from path into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	// PORT is what most hosting platforms set.
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if addr := os.Getenv("STRESSLENS_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if p := os.Getenv("STRESSLENS_MODEL_PATH"); p != "" {
		c.Model.Path = p
	}
	if p := os.Getenv("STRESSLENS_DB"); p != "" {
		c.Store.Path = p
	}
	if v := os.Getenv("STRESSLENS_STORE_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STRESSLENS_STORE_ENABLED: %w", err)
		}
		c.Store.Enabled = b
	}
	if v := os.Getenv("STRESSLENS_STORE_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STRESSLENS_STORE_RETENTION: %w", err)
		}
		c.Store.Retention = d
	}
	if lvl := os.Getenv("STRESSLENS_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
	if v := os.Getenv("STRESSLENS_LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STRESSLENS_LLM_TIMEOUT: %w", err)
		}
		c.LLM.Timeout = d
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownGrace < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	if c.Store.Retention < 0 {
		return fmt.Errorf("store.retention must not be negative")
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm.timeout must not be negative")
	}
	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm.max_tokens must not be negative")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		return fmt.Errorf("llm.temperature must be between 0 and 1, got %g", c.LLM.Temperature)
	}
	if c.LLM.MaxAttempts < 1 {
		return fmt.Errorf("llm.max_attempts must be at least 1")
	}
	return nil
}

// ProviderConfig converts the llm section into provider settings.
// Provider-specific STRESSLENS_* variables override the file, and when no
// provider is chosen the standard API key variables are consulted. The
// boolean reports whether a provider ended up selected.
func (c *Config) ProviderConfig() (llm.Config, bool) {
	out := llm.DefaultConfig()
	out.Provider = c.LLM.Provider
	out.Retry.MaxAttempts = c.LLM.MaxAttempts

	setIf := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	switch c.LLM.Provider {
	case llm.ProviderAnthropic:
		setIf(&out.Anthropic.Model, c.LLM.Model)
		setIf(&out.Anthropic.APIKey, c.LLM.APIKey)
		setIf(&out.Anthropic.BaseURL, c.LLM.BaseURL)
	case llm.ProviderOpenAI:
		setIf(&out.OpenAI.Model, c.LLM.Model)
		setIf(&out.OpenAI.APIKey, c.LLM.APIKey)
		setIf(&out.OpenAI.BaseURL, c.LLM.BaseURL)
	case llm.ProviderGemini:
		setIf(&out.Gemini.Model, c.LLM.Model)
		setIf(&out.Gemini.APIKey, c.LLM.APIKey)
		setIf(&out.Gemini.BaseURL, c.LLM.BaseURL)
	case llm.ProviderOpenRouter:
		setIf(&out.OpenRouter.Model, c.LLM.Model)
		setIf(&out.OpenRouter.APIKey, c.LLM.APIKey)
		setIf(&out.OpenRouter.BaseURL, c.LLM.BaseURL)
	}

	out.ApplyEnv()
	ok := out.Discover()
	return out, ok
}

// Insight returns the composer settings.
func (c *Config) Insight() insight.Config {
	return insight.Config{
		Timeout:     c.LLM.Timeout,
		MaxTokens:   c.LLM.MaxTokens,
		Temperature: c.LLM.Temperature,
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/stresslens/internal/llm"
)

// clearEnv blanks every variable Load and ProviderConfig read so the host
// environment cannot leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "STRESSLENS_ADDR", "STRESSLENS_MODEL_PATH", "STRESSLENS_DB",
		"STRESSLENS_STORE_ENABLED", "STRESSLENS_STORE_RETENTION", "STRESSLENS_LOG_LEVEL", "STRESSLENS_LLM_TIMEOUT",
		"STRESSLENS_LLM_PROVIDER", "STRESSLENS_LLM_MAX_ATTEMPTS",
		"STRESSLENS_ANTHROPIC_API_KEY", "STRESSLENS_ANTHROPIC_MODEL", "STRESSLENS_ANTHROPIC_BASE_URL",
		"STRESSLENS_OPENAI_API_KEY", "STRESSLENS_OPENAI_MODEL", "STRESSLENS_OPENAI_BASE_URL",
		"STRESSLENS_GEMINI_API_KEY", "STRESSLENS_GEMINI_MODEL", "STRESSLENS_GEMINI_BASE_URL",
		"STRESSLENS_OPENROUTER_API_KEY", "STRESSLENS_OPENROUTER_MODEL", "STRESSLENS_OPENROUTER_BASE_URL",
		"STRESSLENS_OPENROUTER_APP_URL",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.True(t, cfg.Store.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 20*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2, cfg.LLM.MaxAttempts)
}

func TestLoad_YAMLOverDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "stresslens.yaml", `
server:
  addr: "127.0.0.1:8080"
  shutdown_grace: 3s
model:
  path: /srv/models/forest.json
store:
  enabled: false
  retention: 720h
logging:
  level: debug
  development: true
llm:
  provider: openai
  model: gpt-4o
  api_key: sk-file
  timeout: 5s
  temperature: 0.2
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownGrace)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "unset keys keep defaults")
	assert.Equal(t, "/srv/models/forest.json", cfg.Model.Path)
	assert.False(t, cfg.Store.Enabled)
	assert.Equal(t, 30*24*time.Hour, cfg.Store.Retention)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 5*time.Second, cfg.Insight().Timeout)
	assert.Equal(t, 0.2, cfg.Insight().Temperature)

	pc, ok := cfg.ProviderConfig()
	require.True(t, ok)
	assert.Equal(t, llm.ProviderOpenAI, pc.Provider)
	assert.Equal(t, "gpt-4o", pc.OpenAI.Model)
	assert.Equal(t, "sk-file", pc.OpenAI.APIKey)
	assert.NoError(t, pc.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "stresslens.yaml", "server:\n  addr: \":9000\"\n")

	t.Setenv("PORT", "7000")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)

	t.Setenv("STRESSLENS_ADDR", "0.0.0.0:7100")
	t.Setenv("STRESSLENS_LLM_TIMEOUT", "2s")
	t.Setenv("STRESSLENS_STORE_ENABLED", "false")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7100", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.LLM.Timeout)
	assert.False(t, cfg.Store.Enabled)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "explicit missing file")

	_, err = Load(writeFile(t, "bad.yaml", "server: [unclosed"))
	assert.Error(t, err, "malformed yaml")

	_, err = Load(writeFile(t, "hot.yaml", "llm:\n  temperature: 1.5\n"))
	assert.ErrorContains(t, err, "temperature")

	_, err = Load(writeFile(t, "neg.yaml", "store:\n  retention: -1h\n"))
	assert.ErrorContains(t, err, "store.retention")

	t.Setenv("STRESSLENS_STORE_RETENTION", "a while")
	_, err = Load("")
	assert.ErrorContains(t, err, "STRESSLENS_STORE_RETENTION")
	t.Setenv("STRESSLENS_STORE_RETENTION", "")

	t.Setenv("STRESSLENS_LLM_TIMEOUT", "soon")
	_, err = Load("")
	assert.ErrorContains(t, err, "STRESSLENS_LLM_TIMEOUT")
}

func TestProviderConfig_NoneConfigured(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	_, ok := cfg.ProviderConfig()
	assert.False(t, ok)
}

func TestProviderConfig_DiscoversFromStandardKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load("")
	require.NoError(t, err)

	pc, ok := cfg.ProviderConfig()
	require.True(t, ok)
	assert.Equal(t, llm.ProviderAnthropic, pc.Provider)
	assert.Equal(t, "sk-ant", pc.Anthropic.APIKey)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	// Setenv registers the restore; the variable must be truly absent for
	// the file to fill it in.
	require.NoError(t, os.Unsetenv("STRESSLENS_LLM_PROVIDER"))
	t.Setenv("STRESSLENS_LOG_LEVEL", "error")

	path := writeFile(t, ".env", "STRESSLENS_LLM_PROVIDER=mock\nSTRESSLENS_LOG_LEVEL=warn\n")
	require.NoError(t, LoadEnvFile(path))

	assert.Equal(t, "mock", os.Getenv("STRESSLENS_LLM_PROVIDER"))
	assert.Equal(t, "error", os.Getenv("STRESSLENS_LOG_LEVEL"))

	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")))
}

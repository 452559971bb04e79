package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/resume-tools/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv isolates a test from credentials and overrides set on the host.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "GEMINI_API_KEY",
		"RESUME_TOOLS_LLM_PROVIDER", "RESUME_TOOLS_LLM_MODEL", "RESUME_TOOLS_LLM_API_KEY",
		"RESUME_TOOLS_LLM_TEMPERATURE", "RESUME_TOOLS_DATABASE_URL", "RESUME_TOOLS_LOGGING_LEVEL",
	} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, llm.DefaultTimeout, cfg.LLM.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.HistoryEnabled())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	content := `
llm:
  provider: gemini
  temperature: 0.2
  timeout: 45s
database:
  url: postgres://localhost:5432/resume_tools
fetch:
  use_browser: true
server:
  port: 9090
`
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.Fetch.UseBrowser)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.HistoryEnabled())
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile("resume_tools.yaml", []byte("llm:\n  model: gpt-4o-mini\n"), 0o644))

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(New(), "/nonexistent/resume_tools.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("RESUME_TOOLS_LLM_MODEL", "gpt-4.1")
	t.Setenv("RESUME_TOOLS_DATABASE_URL", "postgres://db/runs")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", cfg.LLM.Model)
	assert.Equal(t, "postgres://db/runs", cfg.Database.URL)
}

func TestLoad_CredentialFallbackByProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GEMINI_API_KEY", "gm-key")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "sk-openai", cfg.LLM.APIKey)

	t.Setenv("RESUME_TOOLS_LLM_PROVIDER", "gemini")
	cfg, err = Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "gm-key", cfg.LLM.APIKey)
}

func TestLoad_ExplicitKeyWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("RESUME_TOOLS_LLM_API_KEY", "sk-explicit")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "sk-explicit", cfg.LLM.APIKey)
}

func TestLLMClientConfig(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{Provider: "openai", Model: "gpt-4o", Temperature: 0.7, Timeout: time.Minute, BaseURL: "http://proxy"}}

	clientCfg := cfg.LLMClientConfig()
	assert.Equal(t, llm.ProviderOpenAI, clientCfg.Provider)
	assert.Equal(t, "gpt-4o", clientCfg.Model)
	assert.InDelta(t, 0.7, clientCfg.Temperature, 1e-6)
	assert.Equal(t, time.Minute, clientCfg.Timeout)
	assert.Equal(t, "http://proxy", clientCfg.BaseURL)
	require.NoError(t, clientCfg.Validate())
}

func TestLLMClientConfig_BlankModelUsesProviderDefault(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{Provider: "gemini", Temperature: 0.2}}

	clientCfg := cfg.LLMClientConfig()
	assert.Equal(t, llm.ProviderGemini, clientCfg.Provider)
	assert.Equal(t, llm.DefaultModel(llm.ProviderGemini), clientCfg.Model)
	assert.InDelta(t, 0.2, clientCfg.Temperature, 1e-6)
}

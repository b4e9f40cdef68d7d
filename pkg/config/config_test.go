package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.LLM.MaxAttempts)
	assert.Equal(t, time.Second, cfg.LLM.RetryDelay.Std())
	assert.Equal(t, 100, cfg.Force.Iterations)
}

// clearEnv blanks every variable Load consults so tests see only what
// they set themselves.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "ELIE_ADDR", "ELIE_DB", "GEMINI_API_KEY", "LLM_ENDPOINT", "LLM_API_KEY"} {
		t.Setenv(key, "")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "elie.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = ":9000"
session_ttl = "30m"

[llm]
starter_terms = 6

[force]
iterations = 10
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL.Std())
	assert.Equal(t, 6, cfg.LLM.StarterTerms)
	assert.Equal(t, 10, cfg.Force.Iterations)
	// untouched sections keep their defaults
	assert.Equal(t, 5.0, cfg.Layout.LevelStep)
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7777")
	t.Setenv("ELIE_DB", "/tmp/sessions.db")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "/tmp/sessions.db", cfg.Server.DBPath)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
}

func TestAddrEnvBeatsPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7777")
	t.Setenv("ELIE_ADDR", "127.0.0.1:9999")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
}

func TestAutoPrefersGeminiOverEndpoint(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gkey")
	t.Setenv("LLM_ENDPOINT", "http://localhost:11434")
	t.Setenv("LLM_API_KEY", "okey")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gkey", cfg.LLM.APIKey)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.LLM.MaxAttempts = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LLM.Provider = "openai"
	cfg.LLM.Endpoint = ""
	assert.Error(t, cfg.Validate())
}

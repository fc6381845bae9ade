package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.7, cfg.Anthropic.Temperature)
	assert.Equal(t, int64(1000), cfg.Anthropic.MaxTokens)
	assert.Equal(t, "Hot", cfg.Pipeline.Threshold)
	assert.Equal(t, 2, cfg.Pipeline.BatchSize)
	assert.False(t, cfg.Pipeline.AutoSend)
	assert.Equal(t, "data/leads.csv", cfg.Paths.Leads)
	assert.Equal(t, "data/state.csv", cfg.Paths.State)
	assert.Equal(t, "csv", cfg.Store.Driver)
	assert.Equal(t, "manual", cfg.Run.Mode)
	assert.Equal(t, "smtp.gmail.com", cfg.Email.SMTPHost)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
}

func TestLoadLegacyEnvNames(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("MODEL_API_KEY", "sk-test")
	t.Setenv("AUTO_SEND_EMAILS", "true")
	t.Setenv("AUTO_APPROVE_THRESHOLD", "Warm")
	t.Setenv("EMAIL_BATCH_SIZE", "5")
	t.Setenv("RUN_MODE", "scheduled")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Anthropic.Key)
	assert.True(t, cfg.Pipeline.AutoSend)
	assert.Equal(t, "Warm", cfg.Pipeline.Threshold)
	assert.Equal(t, 5, cfg.Pipeline.BatchSize)
	assert.Equal(t, "scheduled", cfg.Run.Mode)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
pipeline:
  threshold: Cold
  batch_size: 7
store:
  driver: sqlite
  database_url: leadflow.db
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Cold", cfg.Pipeline.Threshold)
	assert.Equal(t, 7, cfg.Pipeline.BatchSize)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestResolveTransport(t *testing.T) {
	assert.Equal(t, "none", EmailConfig{Transport: "auto"}.ResolveTransport())
	assert.Equal(t, "resend", EmailConfig{Transport: "auto", ResendKey: "re_123"}.ResolveTransport())
	assert.Equal(t, "smtp", EmailConfig{Sender: "a@b.com", Password: "pw"}.ResolveTransport())
	// Explicit transport wins over auto-detection.
	assert.Equal(t, "smtp", EmailConfig{Transport: "smtp", ResendKey: "re_123"}.ResolveTransport())
	assert.Equal(t, "none", EmailConfig{Transport: "none", ResendKey: "re_123"}.ResolveTransport())
}

func TestValidateLLM(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.ValidateLLM())
	cfg.Anthropic.Key = "sk-test"
	assert.NoError(t, cfg.ValidateLLM())
}

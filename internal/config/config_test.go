package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "carebrief.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, ProviderAnthropic, cfg.Provider.Name)
	assert.Equal(t, 60*time.Second, cfg.Provider.APITimeout)
	assert.Equal(t, 3, cfg.Summarizer.MaxRetries)
	assert.Equal(t, time.Second, cfg.Summarizer.BaseDelay)
	assert.Equal(t, 10*time.Second, cfg.Summarizer.MaxDelay)
	assert.Equal(t, 2.0, cfg.Summarizer.BackoffMultiplier)
	assert.Equal(t, 100*time.Millisecond, cfg.Summarizer.MinRequestInterval)
	assert.False(t, cfg.Database.Enabled)
}

// A partial config file merges over the defaults instead of replacing them.
func TestLoad_FileMergesOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
provider:
  name: gemini
  model: gemini-2.0-flash
summarizer:
  max_retries: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.Provider.Name)
	assert.Equal(t, "gemini-2.0-flash", cfg.Provider.Model)
	assert.Equal(t, 5, cfg.Summarizer.MaxRetries)
	// Untouched keys keep their defaults.
	assert.Equal(t, time.Second, cfg.Summarizer.BaseDelay)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "provider:\n  name: anthropic\n")
	t.Setenv("CAREBRIEF_PROVIDER_NAME", "gemini")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.Provider.Name)
}

func TestLoad_RejectsMalformedFile(t *testing.T) {
	path := writeConfigFile(t, "provider: [this is not a mapping\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"unknown provider", func(c *Config) { c.Provider.Name = "openai" }, "unknown provider"},
		{"negative retries", func(c *Config) { c.Summarizer.MaxRetries = -1 }, "max_retries"},
		{"negative multiplier", func(c *Config) { c.Summarizer.BackoffMultiplier = -0.5 }, "backoff_multiplier"},
		{"database enabled without url", func(c *Config) { c.Database.Enabled = true }, "database.url"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tc.mutate(cfg)

			err = cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobcraft/internal/llm"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
llm:
  backend: claude
  model: claude-3-5-haiku-latest
  timeout: 45s
  requests_per_minute: 50
retry:
  max_attempts: 5
  max_backoff: 2m
scraper:
  use_browser: true
  concurrency: 8
cache:
  driver: redis
  url: redis://localhost:6379/0
  ttl: 12h
log:
  level: debug
  verbose: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "claude", cfg.LLM.Backend)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.LLM.Model)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 50, cfg.LLM.RequestsPerMinute)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Retry.MaxBackoff)
	assert.True(t, cfg.Scraper.UseBrowser)
	assert.Equal(t, 8, cfg.Scraper.Concurrency)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, 12*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Verbose)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "llm: [unclosed")

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, "gemini", cfg.LLM.Backend)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, "none", cfg.Cache.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", "llm:\n  backend: ollama\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLM.Backend)
	assert.Equal(t, llm.DefaultTimeout, cfg.LLM.Timeout)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 4, cfg.Scraper.Concurrency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.LLM.Backend = "watson" }, "'llm.backend' failed oneof"},
		{"too many attempts", func(c *Config) { c.Retry.MaxAttempts = 50 }, "'retry.max_attempts' failed lte"},
		{"bad base url", func(c *Config) { c.LLM.BaseURL = "not a url" }, "'llm.base_url' failed url"},
		{"cache url required", func(c *Config) { c.Cache.Driver = "postgres" }, "'cache.url' failed required_unless"},
		{"unknown cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, "'cache.driver' failed oneof"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "'log.level' failed oneof"},
		{"backoff below base", func(c *Config) { c.Retry.MaxBackoff = time.Millisecond }, "'retry.max_backoff' must not be below"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{
		LLM:   LLMConfig{Backend: "openai", MaxTokens: 1024},
		Cache: CacheConfig{Driver: "postgres", URL: "postgres://localhost/jobs"},
	}

	merged := cfg.MergeWithDefaults(Default())

	assert.Equal(t, "openai", merged.LLM.Backend)
	assert.Equal(t, 1024, merged.LLM.MaxTokens)
	assert.Equal(t, 0.1, merged.LLM.Temperature)
	assert.Equal(t, "postgres", merged.Cache.Driver)
	assert.Equal(t, 24*time.Hour, merged.Cache.TTL)
	assert.Equal(t, 30*time.Second, merged.Retry.DefaultRateLimitDelay)

	// Original unchanged
	assert.Equal(t, 0, cfg.Retry.MaxAttempts)
}

func TestYAMLPath(t *testing.T) {
	assert.Equal(t, "llm.max_tokens", yamlPath("Config.LLM.MaxTokens"))
	assert.Equal(t, "llm.base_url", yamlPath("Config.LLM.BaseURL"))
	assert.Equal(t, "scraper.host_requests_per_minute", yamlPath("Config.Scraper.HostRequestsPerMinute"))
	assert.Equal(t, "cache.ttl", yamlPath("Config.Cache.TTL"))
}

func TestLoadAPIKey(t *testing.T) {
	t.Run("env wins", func(t *testing.T) {
		t.Setenv(APIKeyEnv, " env-key ")
		path := writeFile(t, "secrets.yaml", "llm_api_key: file-key\n")

		key, err := LoadAPIKey(path)
		require.NoError(t, err)
		assert.Equal(t, "env-key", key)
	})

	t.Run("secrets file", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "")
		path := writeFile(t, "secrets.yaml", "llm_api_key: file-key\n")

		key, err := LoadAPIKey(path)
		require.NoError(t, err)
		assert.Equal(t, "file-key", key)
	})

	t.Run("empty secret", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "")
		path := writeFile(t, "secrets.yaml", "llm_api_key: \"\"\n")

		_, err := LoadAPIKey(path)
		assert.ErrorIs(t, err, ErrMissingSecret)
	})

	t.Run("no source", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "")

		key, err := LoadAPIKey("")
		require.NoError(t, err)
		assert.Empty(t, key)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "")

		_, err := LoadAPIKey("/nonexistent/secrets.yaml")
		assert.ErrorContains(t, err, "failed to read secrets file")
	})
}

func TestBuilders(t *testing.T) {
	cfg := Default()
	cfg.LLM.Backend = "openai"
	cfg.Scraper.FetchTimeout = 10 * time.Second

	mc := cfg.ModelConfig("sk-test")
	assert.Equal(t, llm.BackendOpenAI, mc.Backend)
	assert.Equal(t, "sk-test", mc.APIKey)

	policy := cfg.RetryPolicy()
	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 60*time.Second, policy.MaxBackoff)

	opts := cfg.FetchOptions()
	assert.Equal(t, 10*time.Second, opts.Timeout)
	assert.False(t, opts.AllowInternal)
}

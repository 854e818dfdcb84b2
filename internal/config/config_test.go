package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/anupalankarta/internal/cache"
	"github.com/jonathan/anupalankarta/internal/fetch"
	"github.com/jonathan/anupalankarta/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultCacheDir(), cfg.CacheDir)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTLDuration())
	assert.Equal(t, 256, cfg.CacheMaxEntries)
	assert.Equal(t, 20*time.Second, cfg.FetchTimeoutDuration())
	assert.Equal(t, "anupalankarta/1.0", cfg.UserAgent)
	assert.Equal(t, 2*time.Minute, cfg.ReportTimeoutDuration())
	assert.Equal(t, "huggingface", cfg.Provider)
	assert.Equal(t, llm.DefaultHuggingFaceModel, cfg.LLMConfig().GetModel())
	assert.Equal(t, llm.DefaultOptions(), cfg.LLMOptions())
	assert.NoError(t, cfg.Validate())
}

func TestDefaultCacheDir(t *testing.T) {
	assert.Equal(t, "anupalankarta", filepath.Base(DefaultCacheDir()))
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, `{
		"cache_ttl": "30m",
		"cache_max_entries": 0,
		"strict_extraction": true,
		"provider": "gemini",
		"temperature": 0.7,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 30*time.Minute, cfg.CacheTTLDuration())
	assert.Equal(t, 0, cfg.CacheMaxEntries)
	assert.True(t, cfg.StrictExtraction)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, 0.7, cfg.Temperature)

	// Unset fields keep their defaults.
	assert.Equal(t, 600, cfg.MaxTokens)
	assert.Equal(t, "anupalankarta/1.0", cfg.UserAgent)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{ invalid json }`))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestResolve(t *testing.T) {
	t.Setenv(PathEnv, "")
	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := writeConfig(t, `{"cache_ttl": "1h"}`)
	t.Setenv(PathEnv, path)
	cfg, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.CacheTTLDuration())

	explicit := writeConfig(t, `{"cache_ttl": "2h"}`)
	cfg, err = Resolve(explicit)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.CacheTTLDuration())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		target error
	}{
		{"zero ttl", func(c *Config) { c.CacheTTL = "0s" }, ErrInvalidTTL},
		{"negative ttl", func(c *Config) { c.CacheTTL = "-1h" }, ErrInvalidTTL},
		{"unparseable ttl", func(c *Config) { c.CacheTTL = "twelve hours" }, ErrInvalidTTL},
		{"bad fetch timeout", func(c *Config) { c.FetchTimeout = "soon" }, ErrInvalidTimeout},
		{"zero report timeout", func(c *Config) { c.ReportTimeout = "0s" }, ErrInvalidTimeout},
		{"negative max entries", func(c *Config) { c.CacheMaxEntries = -1 }, ErrInvalidMaxEntries},
		{"unknown provider", func(c *Config) { c.Provider = "openai" }, ErrInvalidProvider},
		{"temperature too high", func(c *Config) { c.Temperature = 3 }, ErrInvalidSampling},
		{"top_p out of range", func(c *Config) { c.TopP = 1.5 }, ErrInvalidSampling},
		{"max tokens too large", func(c *Config) { c.MaxTokens = 10000 }, ErrInvalidSampling},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	flags := &Config{
		CacheTTL:   "1h",
		Model:      "custom/model",
		UseBrowser: true,
	}
	defaults := *Default()
	defaults.StrictExtraction = true

	merged := flags.MergeWithDefaults(defaults)

	assert.Equal(t, "1h", merged.CacheTTL)
	assert.Equal(t, "custom/model", merged.Model)
	assert.True(t, merged.UseBrowser)
	assert.True(t, merged.StrictExtraction)
	assert.Equal(t, defaults.CacheDir, merged.CacheDir)
	assert.Equal(t, defaults.UserAgent, merged.UserAgent)
	assert.Equal(t, defaults.MaxTokens, merged.MaxTokens)
	assert.Equal(t, defaults.CacheMaxEntries, merged.CacheMaxEntries)
	assert.Equal(t, defaults.TopP, merged.TopP)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := &Config{Provider: "gemini"}
	merged := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, "gemini", merged.Provider)
	assert.Empty(t, merged.CacheDir)
}

func TestCacheOptions(t *testing.T) {
	cfg := Default()
	cfg.CacheDir = "/tmp/anupalankarta-test"
	cfg.CacheMaxEntries = 10
	cfg.FetchTimeout = "5s"

	opts := cfg.CacheOptions(nil)
	assert.Equal(t, "/tmp/anupalankarta-test", opts.Dir)
	assert.Equal(t, 10, opts.MaxEntries)
	assert.Equal(t, 5*time.Second+fetch.DefaultBrowserTimeout, opts.FetchTimeout)
}

func TestFetcherConfig(t *testing.T) {
	cfg := Default()
	cfg.CacheTTL = "5m"
	cfg.FetchTimeout = "3s"
	cfg.UserAgent = "custom-agent"
	cfg.StrictExtraction = true
	cfg.UseBrowser = true

	fc := cfg.FetcherConfig(nil)
	assert.Equal(t, 5*time.Minute, fc.CacheTTL)
	assert.Equal(t, 3*time.Second, fc.Options.Timeout)
	assert.Equal(t, "custom-agent", fc.Options.UserAgent)
	assert.True(t, fc.StrictExtraction)
	assert.True(t, fc.UseBrowser)
}

func TestDurationFallbacks(t *testing.T) {
	cfg := &Config{CacheTTL: "bogus"}
	assert.Equal(t, cache.DefaultTTL, cfg.CacheTTLDuration())
	assert.Equal(t, llm.DefaultTimeout, cfg.ReportTimeoutDuration())
}

func TestLLMConfig(t *testing.T) {
	cfg := Default()
	cfg.Provider = "gemini"
	cfg.ReportTimeout = "45s"

	lc := cfg.LLMConfig()
	assert.Equal(t, llm.ProviderGemini, lc.Provider)
	assert.Equal(t, llm.DefaultGeminiModel, lc.GetModel())
	assert.Equal(t, 45*time.Second, lc.Timeout)

	cfg.Model = "gemini-2.0-pro"
	assert.Equal(t, "gemini-2.0-pro", cfg.LLMConfig().GetModel())
}

func TestAPIKey(t *testing.T) {
	t.Setenv(llm.HuggingFaceTokenEnv, "hf_test")
	t.Setenv(llm.GeminiAPIKeyEnv, "gm_test")

	cfg := Default()
	assert.Equal(t, "hf_test", cfg.APIKey())

	cfg.Provider = "gemini"
	assert.Equal(t, "gm_test", cfg.APIKey())
}

// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/jonathan/anupalankarta/internal/cache"
	"github.com/jonathan/anupalankarta/internal/fetch"
	"github.com/jonathan/anupalankarta/internal/llm"
	"go.uber.org/zap"
)

// PathEnv names the environment variable holding the config file path.
const PathEnv = "ANUPALANKARTA_CONFIG"

// appName is the directory name used under the XDG cache home.
const appName = "anupalankarta"

// Validation errors returned by Config.Validate.
var (
	ErrInvalidTTL        = errors.New("config error: 'cache_ttl' must be a positive duration")
	ErrInvalidTimeout    = errors.New("config error: timeouts must be positive durations")
	ErrInvalidMaxEntries = errors.New("config error: 'cache_max_entries' must be non-negative")
	ErrInvalidProvider   = errors.New("config error: 'provider' must be huggingface or gemini")
	ErrInvalidSampling   = errors.New("config error: invalid sampling parameters")
)

// Config represents the configuration that can be loaded from a JSON file.
// Fields missing from the file keep their defaults.
type Config struct {
	// Cache
	CacheDir        string `json:"cache_dir,omitempty"`
	CacheTTL        string `json:"cache_ttl,omitempty"` // duration, e.g. "12h"
	CacheMaxEntries int    `json:"cache_max_entries"`   // 0 means unbounded

	// Fetching
	FetchTimeout     string `json:"fetch_timeout,omitempty"`
	UserAgent        string `json:"user_agent,omitempty"`
	StrictExtraction bool   `json:"strict_extraction,omitempty"` // fail on pages with no paragraph text
	UseBrowser       bool   `json:"use_browser,omitempty"`       // render short pages with a headless browser

	// Report generation
	Provider      string  `json:"provider,omitempty"`
	Model         string  `json:"model,omitempty"` // empty uses the provider default
	MaxTokens     int     `json:"max_tokens,omitempty"`
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	ReportTimeout string  `json:"report_timeout,omitempty"`

	Verbose bool `json:"verbose,omitempty"`
}

// DefaultCacheDir returns $XDG_CACHE_HOME/anupalankarta.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, appName)
}

// Default returns the built-in configuration.
func Default() *Config {
	opts := llm.DefaultOptions()
	return &Config{
		CacheDir:        DefaultCacheDir(),
		CacheTTL:        cache.DefaultTTL.String(),
		CacheMaxEntries: cache.DefaultMaxEntries,
		FetchTimeout:    fetch.DefaultTimeout.String(),
		UserAgent:       fetch.DefaultUserAgent,
		Provider:        string(llm.ProviderHuggingFace),
		MaxTokens:       opts.MaxTokens,
		Temperature:     opts.Temperature,
		TopP:            opts.TopP,
		ReportTimeout:   llm.DefaultTimeout.String(),
	}
}

// LoadConfig loads configuration from a JSON file on top of the defaults.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return cfg, nil
}

// Resolve loads the config at path, or at $ANUPALANKARTA_CONFIG when path is empty.
// With neither set it returns the defaults.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadConfig(path)
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if d, err := parseDuration(c.CacheTTL); err != nil || d <= 0 {
		return ErrInvalidTTL
	}
	for _, raw := range []string{c.FetchTimeout, c.ReportTimeout} {
		if d, err := parseDuration(raw); err != nil || d <= 0 {
			return fmt.Errorf("%w: %q", ErrInvalidTimeout, raw)
		}
	}
	if c.CacheMaxEntries < 0 {
		return ErrInvalidMaxEntries
	}

	switch llm.Provider(c.Provider) {
	case llm.ProviderHuggingFace, llm.ProviderGemini:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProvider, c.Provider)
	}

	if err := c.LLMOptions().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSampling, err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.CacheDir == "" {
		result.CacheDir = defaults.CacheDir
	}
	if result.CacheTTL == "" {
		result.CacheTTL = defaults.CacheTTL
	}
	if result.FetchTimeout == "" {
		result.FetchTimeout = defaults.FetchTimeout
	}
	if result.UserAgent == "" {
		result.UserAgent = defaults.UserAgent
	}
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.ReportTimeout == "" {
		result.ReportTimeout = defaults.ReportTimeout
	}

	// Numeric fields: use default if zero
	if result.CacheMaxEntries == 0 {
		result.CacheMaxEntries = defaults.CacheMaxEntries
	}
	if result.MaxTokens == 0 {
		result.MaxTokens = defaults.MaxTokens
	}
	if result.Temperature == 0 {
		result.Temperature = defaults.Temperature
	}
	if result.TopP == 0 {
		result.TopP = defaults.TopP
	}

	// Bool fields: true wins
	result.StrictExtraction = result.StrictExtraction || defaults.StrictExtraction
	result.UseBrowser = result.UseBrowser || defaults.UseBrowser
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

// CacheTTLDuration returns the parsed cache TTL, or the default when unset or invalid.
func (c *Config) CacheTTLDuration() time.Duration {
	return durationOr(c.CacheTTL, cache.DefaultTTL)
}

// FetchTimeoutDuration returns the parsed fetch timeout.
func (c *Config) FetchTimeoutDuration() time.Duration {
	return durationOr(c.FetchTimeout, fetch.DefaultTimeout)
}

// ReportTimeoutDuration returns the parsed report generation timeout.
func (c *Config) ReportTimeoutDuration() time.Duration {
	return durationOr(c.ReportTimeout, llm.DefaultTimeout)
}

// CacheOptions returns file store options for the configured cache directory.
func (c *Config) CacheOptions(logger *zap.Logger) *cache.Options {
	opts := cache.DefaultOptions(c.CacheDir)
	opts.MaxEntries = c.CacheMaxEntries
	opts.FetchTimeout = c.FetchTimeoutDuration() + fetch.DefaultBrowserTimeout
	opts.Logger = logger
	return opts
}

// FetcherConfig returns the cached fetcher configuration.
func (c *Config) FetcherConfig(logger *zap.Logger) *fetch.CachedFetcherConfig {
	opts := fetch.DefaultOptions()
	opts.Timeout = c.FetchTimeoutDuration()
	if c.UserAgent != "" {
		opts.UserAgent = c.UserAgent
	}
	return &fetch.CachedFetcherConfig{
		CacheTTL:         c.CacheTTLDuration(),
		Options:          opts,
		StrictExtraction: c.StrictExtraction,
		UseBrowser:       c.UseBrowser,
		Logger:           logger,
	}
}

// LLMConfig returns the model configuration.
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.DefaultConfig()
	if c.Provider == string(llm.ProviderGemini) {
		cfg = llm.DefaultGeminiConfig()
	}
	if c.Model != "" {
		cfg = cfg.WithModel(c.Model)
	}
	cfg.Timeout = c.ReportTimeoutDuration()
	return cfg
}

// LLMOptions returns the sampling parameters.
func (c *Config) LLMOptions() *llm.Options {
	return &llm.Options{
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		TopP:        c.TopP,
	}
}

// APIKey returns the credential for the configured provider from the environment.
func (c *Config) APIKey() string {
	return os.Getenv(c.LLMConfig().APIKeyEnv())
}

func parseDuration(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty duration")
	}
	return time.ParseDuration(raw)
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	d, err := parseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Package llm provides the text-generation clients used for narrative compliance reports.
package llm

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderHuggingFace is the Hugging Face Inference API
	ProviderHuggingFace Provider = "huggingface"
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// Default models per provider.
const (
	DefaultHuggingFaceModel = "mistralai/Mixtral-8x7B-Instruct-v0.1"
	DefaultGeminiModel      = "gemini-2.5-flash"
)

// Environment variables holding provider credentials.
const (
	HuggingFaceTokenEnv = "HF_TOKEN"
	GeminiAPIKeyEnv     = "GEMINI_API_KEY"
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 2 * time.Minute

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Model    string
	Timeout  time.Duration
}

// DefaultConfig returns the default configuration (Hugging Face, Mixtral)
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderHuggingFace,
		Model:    DefaultHuggingFaceModel,
		Timeout:  DefaultTimeout,
	}
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Model:    DefaultGeminiModel,
		Timeout:  DefaultTimeout,
	}
}

// GetModel returns the configured model, falling back to the provider default
func (c *Config) GetModel() string {
	if c.Model != "" {
		return c.Model
	}
	if c.Provider == ProviderGemini {
		return DefaultGeminiModel
	}
	return DefaultHuggingFaceModel
}

// WithModel returns a copy of the Config using model
func (c *Config) WithModel(model string) *Config {
	copied := *c
	copied.Model = model
	return &copied
}

// APIKeyEnv names the environment variable holding the provider's credential
func (c *Config) APIKeyEnv() string {
	if c.Provider == ProviderGemini {
		return GeminiAPIKeyEnv
	}
	return HuggingFaceTokenEnv
}

// Options are the sampling parameters of one generation call.
type Options struct {
	MaxTokens   int     `json:"max_tokens" validate:"gt=0,lte=4096"`
	Temperature float64 `json:"temperature" validate:"gte=0,lte=2"`
	TopP        float64 `json:"top_p" validate:"gt=0,lte=1"`
}

// DefaultOptions returns 600 tokens, temperature 0.4 and nucleus sampling 0.9.
func DefaultOptions() *Options {
	return &Options{
		MaxTokens:   600,
		Temperature: 0.4,
		TopP:        0.9,
	}
}

// Validate validates the Options using the validator.
func (o *Options) Validate() error {
	validate := validator.New()
	return validate.Struct(o)
}

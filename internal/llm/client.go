package llm

import (
	"context"
	"fmt"
)

// Client is an abstraction over text-generation providers
type Client interface {
	// Generate returns the text generated for prompt, without the prompt echoed back
	Generate(ctx context.Context, prompt string, opts *Options) (string, error)
	// Model returns the model identifier requests are sent to
	Model() string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration.
// An empty apiKey yields an AuthenticationError.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderHuggingFace, "":
		return NewHuggingFaceClient(config, apiKey)
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unknown provider %q: supported providers are huggingface, gemini", config.Provider)
	}
}

func resolveOptions(provider Provider, opts *Options) (*Options, error) {
	if opts == nil {
		return DefaultOptions(), nil
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s generation options: %w", provider, err)
	}
	return opts, nil
}

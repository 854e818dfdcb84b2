package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errEmptyResponse = errors.New("no text in response")

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if config == nil {
		config = DefaultGeminiConfig()
	}
	if apiKey == "" {
		return nil, &AuthenticationError{
			Provider: ProviderGemini,
			Message:  GeminiAPIKeyEnv + " is not set",
		}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  config.GetModel(),
	}, nil
}

// Generate generates narrative text with the given sampling options
func (c *GeminiClient) Generate(ctx context.Context, prompt string, opts *Options) (string, error) {
	opts, err := resolveOptions(ProviderGemini, opts)
	if err != nil {
		return "", err
	}

	model := c.client.GenerativeModel(c.model)
	model.SetMaxOutputTokens(int32(opts.MaxTokens))
	model.SetTemperature(float32(opts.Temperature))
	model.SetTopP(float32(opts.TopP))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text, err := extractTextFromResponse(resp)
	if errors.Is(err, errEmptyResponse) {
		return "", &RemoteServiceError{Provider: ProviderGemini, Message: "empty response"}
	}
	if err != nil {
		return "", &RemoteServiceError{Provider: ProviderGemini, Message: "malformed response", Cause: err}
	}
	return text, nil
}

// Model returns the model identifier
func (c *GeminiClient) Model() string {
	return c.model
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// classifyGeminiError maps gRPC status codes onto the package error kinds.
func classifyGeminiError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &RemoteServiceError{Provider: ProviderGemini, Message: "response blocked", Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &RemoteServiceError{Provider: ProviderGemini, Message: "request timed out", Cause: err}
	}

	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return &AuthenticationError{Provider: ProviderGemini, Message: "credential rejected", Cause: err}
	case codes.ResourceExhausted:
		return &RemoteServiceError{Provider: ProviderGemini, Message: "quota exhausted", Cause: err}
	case codes.DeadlineExceeded:
		return &RemoteServiceError{Provider: ProviderGemini, Message: "request timed out", Cause: err}
	default:
		return &RemoteServiceError{Provider: ProviderGemini, Message: "failed to generate content", Cause: err}
	}
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	text := strings.Join(parts, "")
	if strings.TrimSpace(text) == "" {
		return "", errEmptyResponse
	}
	return text, nil
}

var _ Client = (*GeminiClient)(nil)

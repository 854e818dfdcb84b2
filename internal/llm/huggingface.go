package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// huggingFaceAPIURL is a var to allow test overrides via httptest.
var huggingFaceAPIURL = "https://api-inference.huggingface.co/models/"

// HuggingFaceClient implements Client for the Hugging Face Inference API
type HuggingFaceClient struct {
	model      string
	token      string // unexported; never serialized
	httpClient *http.Client
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type hfError struct {
	Error string `json:"error"`
}

// NewHuggingFaceClient creates a client for config's model using token as bearer credential
func NewHuggingFaceClient(config *Config, token string) (*HuggingFaceClient, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if token == "" {
		return nil, &AuthenticationError{
			Provider: ProviderHuggingFace,
			Message:  HuggingFaceTokenEnv + " is not set",
		}
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HuggingFaceClient{
		model:      config.GetModel(),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Generate sends one text-generation request
func (c *HuggingFaceClient) Generate(ctx context.Context, prompt string, opts *Options) (string, error) {
	opts, err := resolveOptions(ProviderHuggingFace, opts)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens: opts.MaxTokens,
			Temperature:  opts.Temperature,
			TopP:         opts.TopP,
		},
		Options: hfOptions{WaitForModel: true},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, huggingFaceAPIURL+c.model, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.remoteError(0, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	const maxBodyBytes = 10 * 1024 * 1024
	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", c.remoteError(resp.StatusCode, "reading response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := truncate(strings.TrimSpace(string(respBytes)), 200)
		var apiErr hfError
		if json.Unmarshal(respBytes, &apiErr) == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return "", &AuthenticationError{
				Provider: ProviderHuggingFace,
				Message:  fmt.Sprintf("HTTP %d: %s", resp.StatusCode, message),
			}
		}
		return "", c.remoteError(resp.StatusCode, message, nil)
	}

	var generations []hfGeneration
	if err := json.Unmarshal(respBytes, &generations); err != nil {
		return "", c.remoteError(resp.StatusCode,
			fmt.Sprintf("malformed response (body: %s)", truncate(string(respBytes), 200)), err)
	}
	if len(generations) == 0 || strings.TrimSpace(generations[0].GeneratedText) == "" {
		return "", c.remoteError(resp.StatusCode, "empty response", nil)
	}

	return generations[0].GeneratedText, nil
}

func (c *HuggingFaceClient) remoteError(status int, message string, cause error) error {
	if cause != nil && (errors.Is(cause, context.DeadlineExceeded) || isTimeout(cause)) {
		message = "request timed out"
	}
	return &RemoteServiceError{
		Provider:   ProviderHuggingFace,
		StatusCode: status,
		Message:    message,
		Cause:      cause,
	}
}

// Model returns the model identifier
func (c *HuggingFaceClient) Model() string {
	return c.model
}

// Close releases idle connections
func (c *HuggingFaceClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func isTimeout(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}

var _ Client = (*HuggingFaceClient)(nil)

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withHuggingFaceServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	original := huggingFaceAPIURL
	huggingFaceAPIURL = server.URL + "/models/"
	t.Cleanup(func() {
		huggingFaceAPIURL = original
		server.Close()
	})
}

func TestNewHuggingFaceClient_MissingToken(t *testing.T) {
	_, err := NewHuggingFaceClient(DefaultConfig(), "")
	require.Error(t, err)

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ProviderHuggingFace, authErr.Provider)
	assert.Contains(t, err.Error(), "HF_TOKEN")
}

func TestHuggingFaceClient_Generate(t *testing.T) {
	var got hfRequest
	withHuggingFaceServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/mistralai/Mixtral-8x7B-Instruct-v0.1", r.URL.Path)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"generated_text": "  # Compliance Report\n\nGDPR looks good.  "}]`))
	})

	client, err := NewHuggingFaceClient(DefaultConfig(), "hf_test")
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	text, err := client.Generate(context.Background(), "Summarize", nil)
	require.NoError(t, err)
	assert.Equal(t, "  # Compliance Report\n\nGDPR looks good.  ", text)

	assert.Equal(t, "Summarize", got.Inputs)
	assert.Equal(t, 600, got.Parameters.MaxNewTokens)
	assert.InDelta(t, 0.4, got.Parameters.Temperature, 1e-9)
	assert.InDelta(t, 0.9, got.Parameters.TopP, 1e-9)
	assert.False(t, got.Parameters.ReturnFullText)
	assert.True(t, got.Options.WaitForModel)
}

func TestHuggingFaceClient_CustomOptions(t *testing.T) {
	var got hfRequest
	withHuggingFaceServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`[{"generated_text": "ok"}]`))
	})

	client, err := NewHuggingFaceClient(DefaultConfig().WithModel("org/model"), "hf_test")
	require.NoError(t, err)
	assert.Equal(t, "org/model", client.Model())

	_, err = client.Generate(context.Background(), "p", &Options{MaxTokens: 100, Temperature: 0.1, TopP: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 100, got.Parameters.MaxNewTokens)
}

func TestHuggingFaceClient_InvalidOptions(t *testing.T) {
	client, err := NewHuggingFaceClient(DefaultConfig(), "hf_test")
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "p", &Options{MaxTokens: -1, TopP: 0.9})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid huggingface generation options")
}

func TestHuggingFaceClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantAuth   bool
		wantStatus int
		errMsg     string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error": "Invalid credentials in Authorization header"}`, true, 0, "Invalid credentials"},
		{"forbidden", http.StatusForbidden, `{"error": "forbidden"}`, true, 0, "forbidden"},
		{"rate limited", http.StatusTooManyRequests, `{"error": "Rate limit reached"}`, false, 429, "Rate limit reached"},
		{"model loading", http.StatusServiceUnavailable, `{"error": "Model is currently loading"}`, false, 503, "currently loading"},
		{"plain text error", http.StatusBadGateway, `upstream down`, false, 502, "upstream down"},
		{"malformed body", http.StatusOK, `{"generated_text": "not an array"}`, false, 200, "malformed response"},
		{"empty array", http.StatusOK, `[]`, false, 200, "empty response"},
		{"blank text", http.StatusOK, `[{"generated_text": " \n\t"}]`, false, 200, "empty response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withHuggingFaceServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			client, err := NewHuggingFaceClient(DefaultConfig(), "hf_test")
			require.NoError(t, err)

			_, err = client.Generate(context.Background(), "p", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)

			if tt.wantAuth {
				var authErr *AuthenticationError
				assert.ErrorAs(t, err, &authErr)
				return
			}
			var remoteErr *RemoteServiceError
			require.ErrorAs(t, err, &remoteErr)
			assert.Equal(t, tt.wantStatus, remoteErr.StatusCode)
		})
	}
}

func TestHuggingFaceClient_Timeout(t *testing.T) {
	withHuggingFaceServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	config := DefaultConfig()
	config.Timeout = 50 * time.Millisecond
	client, err := NewHuggingFaceClient(config, "hf_test")
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "p", nil)
	var remoteErr *RemoteServiceError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "request timed out", remoteErr.Message)
	assert.Equal(t, 0, remoteErr.StatusCode)
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	client, err := NewClient(ctx, nil, "hf_test")
	require.NoError(t, err)
	assert.IsType(t, &HuggingFaceClient{}, client)

	_, err = NewClient(ctx, &Config{Provider: "openai"}, "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")

	_, err = NewClient(ctx, DefaultGeminiConfig(), "")
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ProviderGemini, authErr.Provider)
}

package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mikey/llm-mail-triage/internal/resilience"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewOpenAIClient(openai.NewClientWithConfig(cfg), "gpt-4", zap.NewNop())
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got openai.ChatCompletionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID: "chatcmpl-1",
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "  Spanish\n"}},
			},
		})
	})

	out, err := client.Complete(context.Background(), "Detect the language", 0.1, 10)
	require.NoError(t, err)
	assert.Equal(t, "Spanish", out)

	assert.Equal(t, "gpt-4", got.Model)
	assert.Equal(t, 10, got.MaxTokens)
	assert.InDelta(t, 0.1, got.Temperature, 0.0001)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "Detect the language", got.Messages[1].Content)
}

func TestOpenAIClient_ClientErrorIsPermanent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	})

	_, err := client.Complete(context.Background(), "prompt", 0.1, 10)
	require.Error(t, err)
	assert.True(t, resilience.IsPermanent(err))
}

func TestOpenAIClient_ServerErrorIsRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	})

	_, err := client.Complete(context.Background(), "prompt", 0.1, 10)
	require.Error(t, err)
	assert.False(t, resilience.IsPermanent(err))
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	})

	_, err := client.Complete(context.Background(), "prompt", 0.1, 10)
	assert.Error(t, err)
}

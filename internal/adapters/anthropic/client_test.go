package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepwise/interview-api/internal/core"
)

func TestClient_Chat(t *testing.T) {
	var gotReq messagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "hello "},
				{"type": "text", "text": "world"},
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	text, err := client.Chat(context.Background(), core.ChatRequest{Prompt: "say hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)

	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "say hello", gotReq.Messages[0].Content)
	assert.Equal(t, defaultModel, gotReq.Model)
	assert.Equal(t, defaultMaxTokens, gotReq.MaxTokens)
	assert.InDelta(t, defaultTemperature, gotReq.Temperature, 0.001)
}

func TestClient_ChatOverrides(t *testing.T) {
	var gotReq messagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": "ok"}},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL, Model: "configured-model"})
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), core.ChatRequest{
		Prompt:      "p",
		Model:       "request-model",
		MaxTokens:   128,
		Temperature: 0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, "request-model", gotReq.Model)
	assert.Equal(t, 128, gotReq.MaxTokens)
	assert.InDelta(t, 0.2, gotReq.Temperature, 0.001)
}

func TestClient_ChatAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), core.ChatRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate_limit_error")
	assert.Contains(t, err.Error(), "slow down")
}

func TestClient_ChatEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"content": []map[string]any{}})
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), core.ChatRequest{Prompt: "p"})
	assert.Error(t, err)
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

// Package anthropic implements the ChatCompleter gateway against the
// Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/prepwise/interview-api/internal/core"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	messagesPath   = "/v1/messages"
	apiVersion     = "2023-06-01"

	defaultModel       = "claude-3-5-haiku-latest"
	defaultMaxTokens   = 3000
	defaultTemperature = 0.8
)

// Config captures the subset of Messages API behaviour we need.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// RequestsPerMinute throttles outbound calls across all workers sharing
	// this client. Zero disables throttling.
	RequestsPerMinute int
	Client            *http.Client
}

// Client is a rate-limited Anthropic Messages API client.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	limiter *rate.Limiter
	client  *http.Client
}

// NewClient builds an Anthropic client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute)
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		limiter: limiter,
		client:  hc,
	}, nil
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Chat sends a single-turn completion request and returns the concatenated
// text blocks of the response.
func (c *Client) Chat(ctx context.Context, req core.ChatRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("prompt is required")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	body, err := json.Marshal(messagesRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode messages request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create messages request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("messages request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", decodeAPIError(resp)
	}

	var decoded messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode messages response: %w", err)
	}

	var text strings.Builder
	for _, block := range decoded.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", errors.New("messages response contained no text content")
	}
	return text.String(), nil
}

func decodeAPIError(resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("anthropic api status %d", resp.StatusCode)
	}

	var decoded apiError
	if jsonErr := json.Unmarshal(raw, &decoded); jsonErr == nil && decoded.Error.Message != "" {
		return fmt.Errorf("anthropic api status %d: %s: %s", resp.StatusCode, decoded.Error.Type, decoded.Error.Message)
	}
	return fmt.Errorf("anthropic api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}

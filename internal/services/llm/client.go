package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL        = "https://api.openai.com/v1"
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 5
)

// Config captures the runtime settings required to talk to the API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	Temperature    float64
	TimeoutSeconds int
}

// Client wraps the chat completion and speech endpoints.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count (defaults to 5).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	client := &Client{
		cfg:              cfg,
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Model returns the configured chat model.
func (c *Client) Model() string { return c.cfg.Model }

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		// Legacy completion-style payloads.
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Complete sends a chat completion and returns the trimmed assistant text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", errors.New("llm complete: user prompt required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("llm complete: api key required")
	}
	payload := chatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}
	if systemPrompt = strings.TrimSpace(systemPrompt); systemPrompt != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: userPrompt})

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("llm complete: encode body: %w", err)
	}

	var text string
	err = c.withRetry(ctx, "llm complete", func() error {
		body, _, err := c.post(ctx, "chat/completions", "application/json", encoded)
		if err != nil {
			return err
		}
		var completion chatCompletionResponse
		if err := json.Unmarshal(body, &completion); err != nil {
			return fmt.Errorf("llm request: decode response: %w", err)
		}
		if completion.Error != nil {
			return fmt.Errorf("llm request: api error: %s", strings.TrimSpace(completion.Error.Message))
		}
		var finishReason, refusal string
		for _, choice := range completion.Choices {
			finishReason = firstNonEmpty(finishReason, choice.FinishReason)
			refusal = firstNonEmpty(refusal, choice.Message.Refusal)
			if content := firstNonEmpty(choice.Message.Content, choice.Text); content != "" {
				text = content
				return nil
			}
		}
		return &emptyContentError{
			Op:           "llm complete",
			FinishReason: finishReason,
			Refusal:      refusal,
			Snippet:      summarizePayloadSnippet(string(body)),
		}
	})
	return text, err
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// Speech synthesizes text with the given model and voice and returns the
// encoded audio. format is passed as response_format (mp3, wav, ...).
func (c *Client) Speech(ctx context.Context, model, voice, format, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("llm speech: input text required")
	}
	if c.cfg.APIKey == "" {
		return nil, errors.New("llm speech: api key required")
	}
	encoded, err := json.Marshal(speechRequest{Model: model, Input: text, Voice: voice, ResponseFormat: format})
	if err != nil {
		return nil, fmt.Errorf("llm speech: encode body: %w", err)
	}
	var audio []byte
	err = c.withRetry(ctx, "llm speech", func() error {
		body, contentType, err := c.post(ctx, "audio/speech", "application/json", encoded)
		if err != nil {
			return err
		}
		if strings.HasPrefix(contentType, "application/json") {
			return fmt.Errorf("llm speech: unexpected json response: %s", summarizePayloadSnippet(string(body)))
		}
		if len(body) == 0 {
			return &emptyContentError{Op: "llm speech", Snippet: "<empty>"}
		}
		audio = body
		return nil
	})
	return audio, err
}

func (c *Client) post(ctx context.Context, path, contentType string, payload []byte) ([]byte, string, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, path)
	if err != nil {
		return nil, "", fmt.Errorf("llm request: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("llm request: http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, "", newHTTPStatusError(resp.StatusCode, body, retryAfter)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func summarizePayloadSnippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}

// Package llm talks to an OpenAI-compatible chat completion API to
// polish raw transcripts.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"catalog/internal/config"
	"catalog/internal/services"
)

const defaultHTTPTimeout = 120 * time.Second

// PolishPrompt instructs the model to clean a transcript without
// changing its meaning.
const PolishPrompt = `You are an editor cleaning up a raw speech transcript.
Fix punctuation, casing, and obvious transcription mistakes. Remove filler
words. Preserve speaker labels and timestamps exactly as written. Do not
summarize, reorder, or add content. Respond with the cleaned transcript only.`

// Client wraps the chat completion API.
type Client struct {
	cfg        config.LLM
	httpClient *http.Client
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

// NewClient constructs a client from configuration.
func NewClient(cfg config.LLM, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Available reports whether the client is configured with credentials.
func (c *Client) Available() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Process sends the transcript for polishing and returns the cleaned
// text. HTTP 429 and 5xx map to transient failures so callers retry;
// other rejections are permanent.
func (c *Client) Process(ctx context.Context, text string) (string, error) {
	if !c.Available() {
		return "", services.Wrap(services.ErrUnavailable, "llm", "process", "api key not configured", nil)
	}
	if strings.TrimSpace(text) == "" {
		return "", services.Wrap(services.ErrValidation, "llm", "process", "transcript is empty", nil)
	}

	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: PolishPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", services.Wrap(services.ErrPermanent, "llm", "process", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", services.Wrap(services.ErrPermanent, "llm", "process", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "llm", "process", "send request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "llm", "process", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		marker := services.ErrPermanent
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			marker = services.ErrTransient
		}
		return "", services.Wrap(marker, "llm", "process",
			fmt.Sprintf("http %d: %s", resp.StatusCode, snippet(respBody)), nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", services.Wrap(services.ErrPermanent, "llm", "process", "decode response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", services.Wrap(services.ErrPermanent, "llm", "process", "response has no choices", nil)
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", services.Wrap(services.ErrPermanent, "llm", "process",
			fmt.Sprintf("empty content (finish_reason=%q)", parsed.Choices[0].FinishReason), nil)
	}
	return content, nil
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		return text[:200] + "..."
	}
	return text
}

// Package nomic computes text embeddings through an Ollama server
// running a nomic-embed-text style model.
package nomic

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

const defaultHTTPTimeout = 60 * time.Second

// Client calls the Ollama embeddings endpoint.
type Client struct {
	baseURL    string
	model      string
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
func NewClient(cfg config.Embeddings, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the vector for the given text. Connection failures and
// server errors are transient; an unknown model is permanent.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, services.Wrap(services.ErrValidation, "nomic", "embed", "text is empty", nil)
	}

	body, err := json.Marshal(embedRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, services.Wrap(services.ErrPermanent, "nomic", "embed", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrPermanent, "nomic", "embed", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "nomic", "embed", "send request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "nomic", "embed", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		marker := services.ErrPermanent
		if resp.StatusCode >= 500 {
			marker = services.ErrTransient
		}
		return nil, services.Wrap(marker, "nomic", "embed",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))), nil)
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, services.Wrap(services.ErrPermanent, "nomic", "embed", "decode response", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, services.Wrap(services.ErrPermanent, "nomic", "embed", "response has no embedding", nil)
	}

	vector := make([]float32, len(parsed.Embedding))
	for i, value := range parsed.Embedding {
		vector[i] = float32(value)
	}
	return vector, nil
}

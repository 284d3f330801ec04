package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog/internal/config"
	"catalog/internal/services"
	"catalog/internal/services/llm"
)

func testConfig(url string) config.LLM {
	return config.LLM{
		APIKey:         "test-key",
		BaseURL:        url,
		Model:          "deepseek-chat",
		TimeoutSeconds: 5,
	}
}

func TestProcessReturnsPolishedText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header %q", got)
		}
		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(payload.Messages) != 2 || payload.Messages[1].Content != "um so yeah the plan" {
			t.Errorf("messages %+v", payload.Messages)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "The plan."}},
			},
		})
	}))
	defer server.Close()

	client := llm.NewClient(testConfig(server.URL))
	got, err := client.Process(context.Background(), "um so yeah the plan")
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if got != "The plan." {
		t.Fatalf("polished text %q", got)
	}
}

func TestProcessClassifiesHTTPFailures(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		transient bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			defer server.Close()

			client := llm.NewClient(testConfig(server.URL))
			_, err := client.Process(context.Background(), "text")
			if err == nil {
				t.Fatal("expected error")
			}
			if services.IsTransient(err) != tc.transient {
				t.Fatalf("transient=%v for status %d, want %v", services.IsTransient(err), tc.status, tc.transient)
			}
		})
	}
}

func TestProcessWithoutAPIKey(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.APIKey = ""
	client := llm.NewClient(cfg)
	if client.Available() {
		t.Fatal("client reports available without key")
	}
	if _, err := client.Process(context.Background(), "text"); !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestProcessRejectsEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": ""}, "finish_reason": "length"},
			},
		})
	}))
	defer server.Close()

	client := llm.NewClient(testConfig(server.URL))
	_, err := client.Process(context.Background(), "text")
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("expected permanent error for empty content, got %v", err)
	}
}

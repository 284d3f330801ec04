package nomic_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog/internal/config"
	"catalog/internal/services"
	"catalog/internal/services/nomic"
)

func testConfig(url string) config.Embeddings {
	return config.Embeddings{
		BaseURL:        url,
		Model:          "nomic-embed-text",
		Dimensions:     4,
		TimeoutSeconds: 5,
	}
}

func TestEmbedReturnsVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("path %q", r.URL.Path)
		}
		var payload struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload.Model != "nomic-embed-text" || payload.Prompt != "some text" {
			t.Errorf("payload %+v", payload)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float64{0.1, 0.2, 0.3, 0.4},
		})
	}))
	defer server.Close()

	client := nomic.NewClient(testConfig(server.URL))
	vector, err := client.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}
	if len(vector) != 4 {
		t.Fatalf("vector width %d", len(vector))
	}
}

func TestEmbedClassifiesFailures(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		transient bool
	}{
		{"server error", http.StatusInternalServerError, true},
		{"unknown model", http.StatusNotFound, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			defer server.Close()

			client := nomic.NewClient(testConfig(server.URL))
			_, err := client.Embed(context.Background(), "text")
			if err == nil {
				t.Fatal("expected error")
			}
			if services.IsTransient(err) != tc.transient {
				t.Fatalf("transient=%v for status %d", services.IsTransient(err), tc.status)
			}
		})
	}
}

func TestEmbedRejectsEmptyTextAndEmptyVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{}})
	}))
	defer server.Close()

	client := nomic.NewClient(testConfig(server.URL))
	if _, err := client.Embed(context.Background(), " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := client.Embed(context.Background(), "text"); !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("expected permanent error for empty embedding, got %v", err)
	}
}

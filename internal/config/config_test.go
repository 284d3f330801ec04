package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"catalog/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if path == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Embeddings.Model != "nomic-embed-text" {
		t.Fatalf("unexpected embeddings model %q", cfg.Embeddings.Model)
	}
	if cfg.Embeddings.Dimensions != 768 {
		t.Fatalf("unexpected embeddings dimensions %d", cfg.Embeddings.Dimensions)
	}
	if cfg.Search.DefaultLimit != 10 {
		t.Fatalf("unexpected default limit %d", cfg.Search.DefaultLimit)
	}
	if cfg.Workflow.TranscribeConcurrency != 2 {
		t.Fatalf("unexpected concurrency %d", cfg.Workflow.TranscribeConcurrency)
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
[paths]
data_dir = "` + filepath.ToSlash(filepath.Join(dir, "data")) + `"

[search]
fuzzy_threshold = 0.8
default_limit = 25

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if resolved != path {
		t.Fatalf("resolved path %q, want %q", resolved, path)
	}
	if cfg.Search.FuzzyThreshold != 0.8 {
		t.Fatalf("fuzzy threshold %g, want 0.8", cfg.Search.FuzzyThreshold)
	}
	if cfg.Search.DefaultLimit != 25 {
		t.Fatalf("default limit %d, want 25", cfg.Search.DefaultLimit)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("format %q, want lowercase json", cfg.Logging.Format)
	}
	if cfg.Search.VectorThreshold != 0.75 {
		t.Fatalf("vector threshold %g, want default 0.75", cfg.Search.VectorThreshold)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name     string
		contents string
		fragment string
	}{
		{
			name:     "fuzzy threshold out of range",
			contents: "[search]\nfuzzy_threshold = 1.5\n",
			fragment: "fuzzy_threshold",
		},
		{
			name:     "zero concurrency",
			contents: "[workflow]\ntranscribe_concurrency = 0\n",
			fragment: "transcribe_concurrency",
		},
		{
			name:     "bad log format",
			contents: "[logging]\nformat = \"yaml\"\n",
			fragment: "format",
		},
		{
			name:     "zero dimensions",
			contents: "[embeddings]\ndimensions = 0\n",
			fragment: "dimensions",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.contents), 0o644); err != nil {
				t.Fatal(err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.fragment) {
				t.Fatalf("error %q does not mention %q", err, tc.fragment)
			}
		})
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[paths]\ndata_dir = \"~/catalog-data\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := filepath.Join(home, "catalog-data")
	if cfg.Paths.DataDir != want {
		t.Fatalf("data dir %q, want %q", cfg.Paths.DataDir, want)
	}
	if cfg.CatalogPath() != filepath.Join(want, "catalog.json") {
		t.Fatalf("catalog path %q", cfg.CatalogPath())
	}
	if cfg.MediaDir() != filepath.Join(want, "media") {
		t.Fatalf("media dir %q", cfg.MediaDir())
	}
	if cfg.EmbeddingsPath() != filepath.Join(want, "embeddings.json") {
		t.Fatalf("embeddings path %q", cfg.EmbeddingsPath())
	}
}

func TestCreateSampleWritesParseableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config invalid: %v", err)
	}
}

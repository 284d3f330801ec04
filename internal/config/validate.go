package config

import (
	"errors"
	"fmt"
)

// Validate checks that every section holds usable values.
func (c *Config) Validate() error {
	if err := c.Paths.validate(); err != nil {
		return fmt.Errorf("paths: %w", err)
	}
	if err := c.Transcription.validate(); err != nil {
		return fmt.Errorf("transcription: %w", err)
	}
	if err := c.LLM.validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Embeddings.validate(); err != nil {
		return fmt.Errorf("embeddings: %w", err)
	}
	if err := c.Search.validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := c.Workflow.validate(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	if err := c.Logging.validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (p Paths) validate() error {
	if p.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if p.ExportDir == "" {
		return errors.New("export_dir is required")
	}
	return nil
}

func (t Transcription) validate() error {
	if t.Model == "" {
		return errors.New("model is required")
	}
	if t.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", t.TimeoutSeconds)
	}
	return nil
}

func (l LLM) validate() error {
	if l.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if l.Model == "" {
		return errors.New("model is required")
	}
	if l.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", l.TimeoutSeconds)
	}
	return nil
}

func (e Embeddings) validate() error {
	if e.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if e.Model == "" {
		return errors.New("model is required")
	}
	if e.Dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got %d", e.Dimensions)
	}
	if e.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", e.TimeoutSeconds)
	}
	return nil
}

func (s Search) validate() error {
	if s.FuzzyThreshold < 0 || s.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy_threshold must be between 0 and 1, got %g", s.FuzzyThreshold)
	}
	if s.VectorThreshold < 0 || s.VectorThreshold > 1 {
		return fmt.Errorf("vector_threshold must be between 0 and 1, got %g", s.VectorThreshold)
	}
	if s.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", s.DefaultLimit)
	}
	return nil
}

func (w Workflow) validate() error {
	if w.TranscribeConcurrency < 1 {
		return fmt.Errorf("transcribe_concurrency must be at least 1, got %d", w.TranscribeConcurrency)
	}
	if w.RetryMaxAttempts < 1 {
		return fmt.Errorf("retry_max_attempts must be at least 1, got %d", w.RetryMaxAttempts)
	}
	if w.RetryBaseDelaySeconds < 0 {
		return fmt.Errorf("retry_base_delay_seconds cannot be negative, got %d", w.RetryBaseDelaySeconds)
	}
	if w.RetryMaxDelaySeconds < w.RetryBaseDelaySeconds {
		return fmt.Errorf("retry_max_delay_seconds must be at least retry_base_delay_seconds, got %d", w.RetryMaxDelaySeconds)
	}
	return nil
}

func (l Logging) validate() error {
	switch l.Format {
	case "console", "json":
	default:
		return fmt.Errorf("format must be console or json, got %q", l.Format)
	}
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level must be debug, info, warn, or error, got %q", l.Level)
	}
	return nil
}

// Package whisperx runs the WhisperX CLI through uvx to transcribe
// audio files.
package whisperx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"catalog/internal/config"
	"catalog/internal/lifecycle"
	"catalog/internal/services"
)

const uvxCommand = "uvx"

// CommandRunner executes the transcription command and returns its
// combined output. Overridable for tests.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service invokes WhisperX as an external process.
type Service struct {
	cfg    config.Transcription
	runner CommandRunner
}

// Option customizes the service.
type Option func(*Service)

// WithCommandRunner sets a custom command runner.
func WithCommandRunner(runner CommandRunner) Option {
	return func(s *Service) {
		if runner != nil {
			s.runner = runner
		}
	}
}

// NewService creates the transcription service.
func NewService(cfg config.Transcription, opts ...Option) *Service {
	service := &Service{cfg: cfg, runner: runCommand}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Transcribe runs WhisperX over the audio file and returns the raw text
// plus a formatted transcript with speaker labels and timestamps.
func (s *Service) Transcribe(ctx context.Context, audioPath string) (lifecycle.Transcript, error) {
	var empty lifecycle.Transcript

	if _, err := os.Stat(audioPath); err != nil {
		return empty, services.Wrap(services.ErrPermanent, "whisperx", "transcribe",
			fmt.Sprintf("audio file %s is not readable", audioPath), err)
	}

	outputDir, err := os.MkdirTemp("", "whisperx-*")
	if err != nil {
		return empty, services.Wrap(services.ErrTransient, "whisperx", "transcribe", "create output directory", err)
	}
	defer os.RemoveAll(outputDir)

	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	args := []string{
		"whisperx",
		audioPath,
		"--model", s.cfg.Model,
		"--output_format", "json",
		"--output_dir", outputDir,
	}
	if s.cfg.Language != "" {
		args = append(args, "--language", s.cfg.Language)
	}
	if s.cfg.CUDAEnabled {
		args = append(args, "--device", "cuda")
	} else {
		args = append(args, "--device", "cpu", "--compute_type", "int8")
	}

	output, err := s.runner(ctx, uvxCommand, args...)
	if err != nil {
		return empty, classifyRunError(err, output)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	resultPath := filepath.Join(outputDir, base+".json")
	data, err := os.ReadFile(resultPath)
	if err != nil {
		return empty, services.Wrap(services.ErrPermanent, "whisperx", "transcribe",
			fmt.Sprintf("whisperx produced no result at %s", resultPath), err)
	}

	transcript, err := ParseResult(data)
	if err != nil {
		return empty, err
	}
	return transcript, nil
}

func classifyRunError(err error, output []byte) error {
	detail := strings.TrimSpace(string(output))
	if len(detail) > 300 {
		detail = detail[len(detail)-300:]
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTransient, "whisperx", "transcribe", "backend timed out", err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, exec.ErrNotFound):
		return services.Wrap(services.ErrUnavailable, "whisperx", "transcribe",
			fmt.Sprintf("%s is not installed", uvxCommand), err)
	default:
		return services.Wrap(services.ErrPermanent, "whisperx", "transcribe", detail, err)
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil && ctx.Err() != nil {
		return output, ctx.Err()
	}
	return output, err
}

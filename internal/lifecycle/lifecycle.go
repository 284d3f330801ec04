// Package lifecycle drives media objects through transcription,
// post-processing, and export.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"catalog/internal/config"
	"catalog/internal/logging"
	"catalog/internal/media"
	"catalog/internal/services"
	"catalog/internal/store"
)

// Transcript is the output of a transcription backend. Formatted may be
// empty when the backend produces no speaker or timing detail.
type Transcript struct {
	Raw       string
	Formatted string
}

// Transcriber converts stored audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (Transcript, error)
}

// Processor polishes a raw transcript into its final form.
type Processor interface {
	Process(ctx context.Context, text string) (string, error)
}

// Exporter writes the final document for an object.
type Exporter interface {
	Export(object media.Object, entry media.Entry) (string, error)
}

// Outcome is the per-object result of a batch operation.
type Outcome struct {
	ObjectID string
	Title    string
	State    media.State
	Attempts int
	Skipped  bool
	Err      error
}

// Manager owns the object state machine. Batches run each object
// independently; one object's failure never aborts the rest.
type Manager struct {
	store       *store.Store
	transcriber Transcriber
	processor   Processor
	exporter    Exporter
	concurrency int
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	logger      *slog.Logger
}

// NewManager wires the manager against its backends. The processor and
// exporter are optional; operations needing an absent backend fail with
// an unavailable error.
func NewManager(st *store.Store, transcriber Transcriber, processor Processor, exporter Exporter, cfg config.Workflow, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	concurrency := cfg.TranscribeConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Manager{
		store:       st,
		transcriber: transcriber,
		processor:   processor,
		exporter:    exporter,
		concurrency: concurrency,
		maxAttempts: max(cfg.RetryMaxAttempts, 1),
		baseDelay:   time.Duration(cfg.RetryBaseDelaySeconds) * time.Second,
		maxDelay:    time.Duration(cfg.RetryMaxDelaySeconds) * time.Second,
		logger:      logging.NewComponentLogger(logger, "lifecycle"),
	}
}

// TranscribeBatch runs transcription for each object under the
// configured concurrency limit. Objects whose work has not started when
// the context is cancelled are skipped and keep their state; objects in
// flight finish or time out. The returned outcomes follow the input
// order and the call itself never fails for a single object's error.
func (m *Manager) TranscribeBatch(ctx context.Context, objectIDs []string) []Outcome {
	outcomes := make([]Outcome, len(objectIDs))
	semaphore := make(chan struct{}, m.concurrency)
	var wg sync.WaitGroup

	for i, objectID := range objectIDs {
		outcomes[i] = Outcome{ObjectID: objectID}

		// A select with a free semaphore slot picks a ready case at
		// random, so check cancellation first to keep the skip
		// deterministic.
		if ctx.Err() != nil {
			outcomes[i].Skipped = true
			continue
		}
		select {
		case <-ctx.Done():
			outcomes[i].Skipped = true
			continue
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(outcome *Outcome) {
			defer wg.Done()
			defer func() { <-semaphore }()
			*outcome = m.transcribeOne(ctx, outcome.ObjectID)
		}(&outcomes[i])
	}
	wg.Wait()

	var succeeded, failed, skipped int
	for _, outcome := range outcomes {
		switch {
		case outcome.Skipped:
			skipped++
		case outcome.Err != nil:
			failed++
		default:
			succeeded++
		}
	}
	m.logger.Info("transcription batch finished",
		logging.Int("succeeded", succeeded),
		logging.Int("failed", failed),
		logging.Int("skipped", skipped))
	return outcomes
}

func (m *Manager) transcribeOne(ctx context.Context, objectID string) Outcome {
	outcome := Outcome{ObjectID: objectID}

	// Cancellation between scheduling and start must leave the object
	// untouched; once transcribing is recorded the work counts as begun.
	if ctx.Err() != nil {
		outcome.Skipped = true
		return outcome
	}

	if m.transcriber == nil {
		outcome.Err = services.Wrap(services.ErrUnavailable, "lifecycle", "transcribe", "no transcription backend configured", nil)
		return outcome
	}

	object, err := m.store.GetMedia(objectID)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Title = object.Title
	outcome.State = object.State

	if !object.Type.Transcribable() {
		outcome.Err = services.Wrap(services.ErrPermanent, "lifecycle", "transcribe",
			fmt.Sprintf("%s media cannot be transcribed", object.Type), nil)
		return outcome
	}
	if object.State != media.StateImported && object.State != media.StateTranscriptionFailed {
		outcome.Err = services.Wrap(services.ErrValidation, "lifecycle", "transcribe",
			fmt.Sprintf("object is %s, expected imported or transcription_failed", object.State), nil)
		return outcome
	}

	if _, err := m.store.SetState(objectID, media.StateTranscribing, ""); err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.State = media.StateTranscribing

	transcript, attempts, err := withRetry(ctx, m, func(ctx context.Context) (Transcript, error) {
		return m.transcriber.Transcribe(ctx, object.StoredPath)
	})
	outcome.Attempts = attempts
	if err != nil {
		outcome.Err = err
		return m.markFailed(outcome, media.StateTranscriptionFailed)
	}

	if _, err := m.store.PutEntry(ctx, objectID, media.VariantRaw, transcript.Raw); err != nil {
		outcome.Err = err
		return m.markFailed(outcome, media.StateTranscriptionFailed)
	}
	outcome.State = media.StateTranscribed
	if transcript.Formatted != "" {
		if _, err := m.store.PutEntry(ctx, objectID, media.VariantFormatted, transcript.Formatted); err != nil {
			outcome.Err = err
			return outcome
		}
	}

	m.logger.Info("transcribed object",
		logging.String(logging.FieldObjectID, objectID),
		logging.Int("attempts", attempts))
	return outcome
}

// Process runs LLM post-processing over the object's best transcript.
func (m *Manager) Process(ctx context.Context, objectID string) (Outcome, error) {
	outcome := Outcome{ObjectID: objectID}

	if m.processor == nil {
		return outcome, services.Wrap(services.ErrUnavailable, "lifecycle", "process", "no processing backend configured", nil)
	}

	object, err := m.store.GetMedia(objectID)
	if err != nil {
		return outcome, err
	}
	outcome.Title = object.Title

	if object.State != media.StateTranscribed && object.State != media.StateProcessingFailed {
		return outcome, services.Wrap(services.ErrValidation, "lifecycle", "process",
			fmt.Sprintf("object is %s, expected transcribed or processing_failed", object.State), nil)
	}

	entries, err := m.store.Entries(objectID)
	if err != nil {
		return outcome, err
	}
	source := media.BestEntry(entries)
	if source == nil {
		return outcome, services.Wrap(services.ErrValidation, "lifecycle", "process", "object has no transcript to process", nil)
	}

	if _, err := m.store.SetState(objectID, media.StateProcessing, ""); err != nil {
		return outcome, err
	}
	outcome.State = media.StateProcessing

	polished, attempts, err := withRetry(ctx, m, func(ctx context.Context) (string, error) {
		return m.processor.Process(ctx, source.Text)
	})
	outcome.Attempts = attempts
	if err != nil {
		outcome.Err = err
		outcome = m.markFailed(outcome, media.StateProcessingFailed)
		return outcome, err
	}

	if _, err := m.store.PutEntry(ctx, objectID, media.VariantProcessed, polished); err != nil {
		outcome.Err = err
		outcome = m.markFailed(outcome, media.StateProcessingFailed)
		return outcome, err
	}
	outcome.State = media.StateProcessed

	m.logger.Info("processed object",
		logging.String(logging.FieldObjectID, objectID),
		logging.Int("attempts", attempts))
	return outcome, nil
}

// Export writes the final document for an object using its best entry
// and marks the object exported.
func (m *Manager) Export(ctx context.Context, objectID string) (string, error) {
	if m.exporter == nil {
		return "", services.Wrap(services.ErrUnavailable, "lifecycle", "export", "no exporter configured", nil)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	object, err := m.store.GetMedia(objectID)
	if err != nil {
		return "", err
	}
	if object.State != media.StateTranscribed && object.State != media.StateProcessed && object.State != media.StateExported {
		return "", services.Wrap(services.ErrValidation, "lifecycle", "export",
			fmt.Sprintf("object is %s, expected transcribed or processed", object.State), nil)
	}

	entries, err := m.store.Entries(objectID)
	if err != nil {
		return "", err
	}
	best := media.BestEntry(entries)
	if best == nil {
		return "", services.Wrap(services.ErrValidation, "lifecycle", "export", "object has no entry to export", nil)
	}

	path, err := m.exporter.Export(*object, *best)
	if err != nil {
		return "", err
	}
	if _, err := m.store.SetState(objectID, media.StateExported, ""); err != nil {
		return "", err
	}

	m.logger.Info("exported object",
		logging.String(logging.FieldObjectID, objectID),
		logging.String("path", path))
	return path, nil
}

// withRetry runs the call with bounded exponential backoff. Only
// transient failures are retried; cancellation and permanent failures
// surface immediately.
func withRetry[T any](ctx context.Context, m *Manager, call func(context.Context) (T, error)) (T, int, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		result, err := call(ctx)
		if err == nil {
			return result, attempt, nil
		}
		lastErr = err
		if !services.IsTransient(err) || attempt == m.maxAttempts {
			return zero, attempt, err
		}

		delay := m.backoffDelay(attempt)
		m.logger.Warn("transient failure, backing off",
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err))
		select {
		case <-ctx.Done():
			return zero, attempt, ctx.Err()
		case <-time.After(delay):
		}
	}
	return zero, m.maxAttempts, lastErr
}

func (m *Manager) backoffDelay(attempt int) time.Duration {
	if m.baseDelay <= 0 {
		return 0
	}
	delay := time.Duration(float64(m.baseDelay) * math.Pow(2, float64(attempt-1)))
	if m.maxDelay > 0 && delay > m.maxDelay {
		delay = m.maxDelay
	}
	return delay
}

func (m *Manager) markFailed(outcome Outcome, failedState media.State) Outcome {
	object, err := m.store.SetState(outcome.ObjectID, failedState, errMessage(outcome.Err))
	if err != nil {
		m.logger.Error("failed to record failure state",
			logging.String(logging.FieldObjectID, outcome.ObjectID),
			logging.Error(err))
		return outcome
	}
	outcome.State = object.State
	return outcome
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

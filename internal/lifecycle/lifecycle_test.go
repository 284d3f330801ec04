package lifecycle_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"catalog/internal/config"
	"catalog/internal/lifecycle"
	"catalog/internal/logging"
	"catalog/internal/media"
	"catalog/internal/services"
	"catalog/internal/store"
	"catalog/internal/testsupport"
)

type scriptedTranscriber struct {
	mu      sync.Mutex
	results map[string]lifecycle.Transcript
	errs    map[string]error
	// failures counts down transient failures per path before success.
	failures map[string]int
	calls    int
}

func (s *scriptedTranscriber) Transcribe(_ context.Context, audioPath string) (lifecycle.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	key := filepath.Base(audioPath)
	if remaining := s.failures[key]; remaining > 0 {
		s.failures[key] = remaining - 1
		return lifecycle.Transcript{}, services.Wrap(services.ErrTransient, "whisperx", "transcribe", "backend busy", nil)
	}
	if err, ok := s.errs[key]; ok {
		return lifecycle.Transcript{}, err
	}
	if result, ok := s.results[key]; ok {
		return result, nil
	}
	return lifecycle.Transcript{Raw: "default transcript"}, nil
}

type scriptedProcessor struct {
	err error
}

func (s *scriptedProcessor) Process(_ context.Context, text string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "polished: " + text, nil
}

type captureExporter struct {
	entry media.Entry
}

func (c *captureExporter) Export(_ media.Object, entry media.Entry) (string, error) {
	c.entry = entry
	return "/tmp/export.md", nil
}

func fastWorkflow() config.Workflow {
	return config.Workflow{
		TranscribeConcurrency: 2,
		RetryMaxAttempts:      3,
		RetryBaseDelaySeconds: 0,
		RetryMaxDelaySeconds:  0,
	}
}

func importAudio(t *testing.T, st *store.Store, name string) *media.Object {
	t.Helper()
	source := testsupport.WriteSourceFile(t, name, "audio")
	object, err := st.PutMedia(context.Background(), source, "", media.TypeAudio, nil)
	if err != nil {
		t.Fatal(err)
	}
	return object
}

func TestBatchReportsEveryOutcomeWithoutAborting(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	good := importAudio(t, st, "good.wav")
	badA := importAudio(t, st, "bad_a.wav")
	badB := importAudio(t, st, "bad_b.wav")

	permanent := services.Wrap(services.ErrPermanent, "whisperx", "transcribe", "unsupported codec", nil)
	transcriber := &scriptedTranscriber{
		results: map[string]lifecycle.Transcript{
			filepath.Base(good.StoredPath): {Raw: "hello from the good file"},
		},
		errs: map[string]error{
			filepath.Base(badA.StoredPath): permanent,
			filepath.Base(badB.StoredPath): permanent,
		},
	}
	manager := lifecycle.NewManager(st, transcriber, nil, nil, fastWorkflow(), logging.NewNop())

	outcomes := manager.TranscribeBatch(context.Background(), []string{good.ID, badA.ID, badB.ID})
	if len(outcomes) != 3 {
		t.Fatalf("outcomes %d, want 3", len(outcomes))
	}

	if outcomes[0].Err != nil || outcomes[0].State != media.StateTranscribed {
		t.Fatalf("good outcome %+v", outcomes[0])
	}
	for _, outcome := range outcomes[1:] {
		if outcome.Err == nil || outcome.State != media.StateTranscriptionFailed {
			t.Fatalf("failed outcome %+v", outcome)
		}
	}

	entry, err := st.GetEntry(good.ID, media.VariantRaw)
	if err != nil {
		t.Fatalf("raw entry missing: %v", err)
	}
	if entry.Text != "hello from the good file" {
		t.Fatalf("entry text %q", entry.Text)
	}

	failed, err := st.GetMedia(badA.ID)
	if err != nil {
		t.Fatal(err)
	}
	if failed.State != media.StateTranscriptionFailed || !strings.Contains(failed.Error, "unsupported codec") {
		t.Fatalf("failed object %+v", failed)
	}
}

func TestTransientFailuresAreRetried(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	object := importAudio(t, st, "flaky.wav")
	transcriber := &scriptedTranscriber{
		failures: map[string]int{filepath.Base(object.StoredPath): 2},
		results: map[string]lifecycle.Transcript{
			filepath.Base(object.StoredPath): {Raw: "finally worked", Formatted: "_S1:_ finally worked"},
		},
	}
	manager := lifecycle.NewManager(st, transcriber, nil, nil, fastWorkflow(), logging.NewNop())

	outcomes := manager.TranscribeBatch(context.Background(), []string{object.ID})
	if outcomes[0].Err != nil {
		t.Fatalf("outcome error: %v", outcomes[0].Err)
	}
	if outcomes[0].Attempts != 3 {
		t.Fatalf("attempts %d, want 3", outcomes[0].Attempts)
	}
	if _, err := st.GetEntry(object.ID, media.VariantFormatted); err != nil {
		t.Fatalf("formatted entry missing: %v", err)
	}
}

func TestRetriesStopAtAttemptLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	object := importAudio(t, st, "down.wav")
	transcriber := &scriptedTranscriber{
		failures: map[string]int{filepath.Base(object.StoredPath): 99},
	}
	manager := lifecycle.NewManager(st, transcriber, nil, nil, fastWorkflow(), logging.NewNop())

	outcomes := manager.TranscribeBatch(context.Background(), []string{object.ID})
	if outcomes[0].Err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if outcomes[0].Attempts != 3 {
		t.Fatalf("attempts %d, want max 3", outcomes[0].Attempts)
	}
	if outcomes[0].State != media.StateTranscriptionFailed {
		t.Fatalf("state %s", outcomes[0].State)
	}
}

func TestCancelledBatchSkipsUnstartedObjects(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	a := importAudio(t, st, "a.wav")
	b := importAudio(t, st, "b.wav")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transcriber := &scriptedTranscriber{}
	manager := lifecycle.NewManager(st, transcriber, nil, nil, fastWorkflow(), logging.NewNop())

	// The worker pool has free capacity here, so the skip must not
	// depend on which select case wins.
	for round := 0; round < 25; round++ {
		outcomes := manager.TranscribeBatch(ctx, []string{a.ID, b.ID})
		for _, outcome := range outcomes {
			if !outcome.Skipped {
				t.Fatalf("outcome not skipped: %+v", outcome)
			}
		}
	}
	if transcriber.calls != 0 {
		t.Fatalf("backend called %d times after cancellation", transcriber.calls)
	}
	for _, id := range []string{a.ID, b.ID} {
		object, err := st.GetMedia(id)
		if err != nil {
			t.Fatal(err)
		}
		if object.State != media.StateImported {
			t.Fatalf("skipped object state %s, want imported", object.State)
		}
	}
}

func TestNonAudioObjectsAreRejectedWithoutStateChange(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	source := testsupport.WriteSourceFile(t, "photo.png", "pixels")
	object, err := st.PutMedia(context.Background(), source, "", media.TypeImage, nil)
	if err != nil {
		t.Fatal(err)
	}

	manager := lifecycle.NewManager(st, &scriptedTranscriber{}, nil, nil, fastWorkflow(), logging.NewNop())
	outcomes := manager.TranscribeBatch(context.Background(), []string{object.ID})

	if !errors.Is(outcomes[0].Err, services.ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", outcomes[0].Err)
	}
	got, err := st.GetMedia(object.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != media.StateImported {
		t.Fatalf("state %s, want untouched imported", got.State)
	}
}

func TestProcessCreatesProcessedEntry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	object := importAudio(t, st, "talk.wav")
	if _, err := st.SetState(object.ID, media.StateTranscribing, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := st.PutEntry(context.Background(), object.ID, media.VariantRaw, "um so the plan is"); err != nil {
		t.Fatal(err)
	}

	manager := lifecycle.NewManager(st, nil, &scriptedProcessor{}, nil, fastWorkflow(), logging.NewNop())
	outcome, err := manager.Process(context.Background(), object.ID)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if outcome.State != media.StateProcessed {
		t.Fatalf("state %s", outcome.State)
	}

	entry, err := st.GetEntry(object.ID, media.VariantProcessed)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Text != "polished: um so the plan is" {
		t.Fatalf("processed text %q", entry.Text)
	}
}

func TestProcessWithoutBackendIsUnavailable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	object := importAudio(t, st, "talk.wav")

	manager := lifecycle.NewManager(st, nil, nil, nil, fastWorkflow(), logging.NewNop())
	if _, err := manager.Process(context.Background(), object.ID); !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestExportUsesBestEntryAndMarksExported(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	object := importAudio(t, st, "talk.wav")
	if _, err := st.SetState(object.ID, media.StateTranscribing, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := st.PutEntry(context.Background(), object.ID, media.VariantRaw, "raw words"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.PutEntry(context.Background(), object.ID, media.VariantFormatted, "formatted words"); err != nil {
		t.Fatal(err)
	}

	exporter := &captureExporter{}
	manager := lifecycle.NewManager(st, nil, nil, exporter, fastWorkflow(), logging.NewNop())
	path, err := manager.Export(context.Background(), object.ID)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if path == "" {
		t.Fatal("empty export path")
	}
	if exporter.entry.Variant != media.VariantFormatted {
		t.Fatalf("exported variant %s, want formatted preferred over raw", exporter.entry.Variant)
	}

	got, err := st.GetMedia(object.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != media.StateExported {
		t.Fatalf("state %s", got.State)
	}
}

func TestExportRejectsUnreadyObject(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	object := importAudio(t, st, "talk.wav")

	manager := lifecycle.NewManager(st, nil, nil, &captureExporter{}, fastWorkflow(), logging.NewNop())
	if _, err := manager.Export(context.Background(), object.ID); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

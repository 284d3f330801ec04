package export_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"catalog/internal/export"
	"catalog/internal/logging"
	"catalog/internal/media"
	"catalog/internal/services"
	"catalog/internal/testsupport"
)

func fixture() (media.Object, media.Entry) {
	object := media.Object{
		ID:        "obj-1",
		Title:     "Quarterly Planning Call",
		Type:      media.TypeAudio,
		Tags:      []string{"work", "planning"},
		State:     media.StateTranscribed,
		CreatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	entry := media.Entry{
		ID:       "ent-1",
		ObjectID: object.ID,
		Variant:  media.VariantFormatted,
		Text:     "**00:01** _S1:_ let's begin\n",
	}
	return object, entry
}

func TestExportWritesFrontmatterAndBody(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exporter := export.NewMarkdown(cfg, logging.NewNop())

	object, entry := fixture()
	path, err := exporter.Export(object, entry)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if filepath.Dir(path) != cfg.Paths.ExportDir {
		t.Fatalf("path %q not under export dir", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	document := string(data)

	for _, want := range []string{
		"id: obj-1",
		"title: \"Quarterly Planning Call\"",
		"created: 2026-03-14T09:00:00Z",
		"variant: formatted",
		"  - media/audio",
		"  - work",
		"  - planning",
		"# Quarterly Planning Call",
		"_S1:_ let's begin",
	} {
		if !strings.Contains(document, want) {
			t.Fatalf("document missing %q:\n%s", want, document)
		}
	}
	if !strings.HasPrefix(document, "---\n") {
		t.Fatal("document does not open with frontmatter")
	}
}

func TestExportRejectsEmptyEntry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exporter := export.NewMarkdown(cfg, logging.NewNop())

	object, entry := fixture()
	entry.Text = "  \n"
	if _, err := exporter.Export(object, entry); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExportOverwritesPreviousDocument(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exporter := export.NewMarkdown(cfg, logging.NewNop())

	object, entry := fixture()
	first, err := exporter.Export(object, entry)
	if err != nil {
		t.Fatal(err)
	}

	entry.Text = "revised transcript"
	second, err := exporter.Export(object, entry)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("paths differ: %q vs %q", first, second)
	}

	data, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "revised transcript") {
		t.Fatal("document not replaced")
	}
}

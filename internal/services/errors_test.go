package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"catalog/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "whisperx", "transcribe", "backend failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"whisperx", "transcribe", "backend failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := services.Wrap(nil, "llm", "process", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient default, got %v", err)
	}
}

func TestIsTransientClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"transient marker", services.Wrap(services.ErrTransient, "llm", "call", "", nil), true},
		{"deadline", context.DeadlineExceeded, true},
		{"permanent marker", services.Wrap(services.ErrPermanent, "whisperx", "call", "unsupported", nil), false},
		{"validation", services.Wrap(services.ErrValidation, "store", "put", "bad input", nil), false},
		{"canceled", context.Canceled, false},
		{"nil", nil, false},
		{"plain", errors.New("plain"), false},
	}
	for _, tc := range cases {
		if got := services.IsTransient(tc.err); got != tc.want {
			t.Errorf("%s: IsTransient = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsPermanent(t *testing.T) {
	if !services.IsPermanent(services.Wrap(services.ErrPermanent, "whisperx", "call", "", nil)) {
		t.Fatal("expected permanent marker to classify permanent")
	}
	if services.IsPermanent(services.Wrap(services.ErrTransient, "whisperx", "call", "", nil)) {
		t.Fatal("transient marker must not classify permanent")
	}
}

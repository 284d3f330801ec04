package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrTransient marks failures worth retrying: timeouts, rate limits,
	// connection resets.
	ErrTransient = errors.New("transient failure")
	// ErrPermanent marks failures that retrying cannot fix: unsupported
	// formats, rejected requests.
	ErrPermanent = errors.New("permanent failure")
	// ErrUnavailable marks a backend that is not configured or not reachable
	// at all, as opposed to one that failed a single call.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrValidation marks bad input caught before any backend call.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing object or entry.
	ErrNotFound = errors.New("not found")
	// ErrCorrupt marks a persisted document that failed validation on load.
	// Callers must refuse to proceed rather than guess at the contents.
	ErrCorrupt = errors.New("corrupt document")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTransient reports whether an error should be retried with backoff.
// Context cancellation is never transient: the caller asked to stop.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrPermanent) || errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrCorrupt) {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// IsPermanent reports whether an error is a non-retryable backend rejection.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent) || errors.Is(err, ErrValidation)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable marks failures reaching an external service. Retryable;
	// the affected album is skipped, not the whole run.
	ErrUnavailable = errors.New("service unavailable")
	// ErrAuth marks quota or authentication rejections from an external service.
	ErrAuth = errors.New("auth or quota rejected")
	// ErrMalformedAudio marks audio the fingerprinter cannot process (for
	// example tracks too short to fingerprint).
	ErrMalformedAudio = errors.New("malformed audio")
	// ErrConflict marks filesystem conflicts during apply: a destination that
	// already exists or a source that disappeared. Aborts only that album's
	// transaction.
	ErrConflict = errors.New("filesystem conflict")
	// ErrActiveProcess marks cleanup refusals caused by a live rip or encode
	// process owning the item.
	ErrActiveProcess = errors.New("concurrent activity detected")
	// ErrCorruptState marks an unreadable job-tracking store. Callers degrade
	// to filesystem-only classification.
	ErrCorruptState = errors.New("corrupt state")
	// ErrValidation marks invalid inputs or configuration.
	ErrValidation = errors.New("validation error")
	// ErrTransient marks failures with no more specific classification.
	ErrTransient = errors.New("transient failure")
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

// Retryable reports whether the classified error is worth retrying on a
// later run without operator intervention.
func Retryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTransient)
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

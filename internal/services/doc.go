// Package services defines the shared error taxonomy and context helpers
// used by the stylus service clients and stages.
//
// Errors are classified with sentinel markers so callers can decide whether
// a failure is retryable (the fingerprint service was unreachable), a
// defined outcome (insufficient confidence is not an error at all), or a
// per-album abort (a destination collision during apply). One album's
// failure never terminates the run; stages collect per-album outcomes and
// keep going.
package services

// Package logging centralizes slog construction and the structured
// attribute helpers used across stylus components.
//
// Loggers are built once from configuration and handed to components with
// a standardized "component" attribute. Decision and cleanup logging must
// carry enough fields (thresholds evaluated, resulting values, paths) to
// reconstruct why an action was taken without the live process.
package logging

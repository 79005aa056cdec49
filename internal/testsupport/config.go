package testsupport

import (
	"path/filepath"
	"testing"

	"stylus/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.MusicDir = filepath.Join(base, "music")
	cfg.Paths.UnknownDir = filepath.Join(base, "music", "Unknown Artist")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.JobDB = filepath.Join(base, "jobs.db")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Identification.AcoustIDAPIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithAcoustIDKey sets the lookup service API key on the test config.
func WithAcoustIDKey(key string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Identification.AcoustIDAPIKey = key
	}
}

// WithThresholds overrides the voting thresholds on the test config.
func WithThresholds(trackScore, coverage, agreement float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Identification.MinTrackScore = trackScore
		cfg.Identification.MinCoverage = coverage
		cfg.Identification.MinAgreement = agreement
	}
}

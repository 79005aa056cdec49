package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadAppliesFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
music_dir = "` + filepath.Join(dir, "music") + `"
work_dir = "` + filepath.Join(dir, "rips") + `"

[identification]
min_track_score = 0.9
min_coverage = 0.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Identification.MinTrackScore != 0.9 {
		t.Fatalf("min_track_score = %v, want 0.9", cfg.Identification.MinTrackScore)
	}
	// Unset values fall back to defaults.
	if cfg.Identification.MinAgreement != defaultMinAgreement {
		t.Fatalf("min_agreement = %v, want default", cfg.Identification.MinAgreement)
	}
	if cfg.Reconcile.TempDirPrefix != defaultTempDirPrefix {
		t.Fatalf("temp_dir_prefix = %q, want default", cfg.Reconcile.TempDirPrefix)
	}
}

func TestUnknownDirDerivedFromMusicDir(t *testing.T) {
	cfg := Default()
	cfg.Paths.MusicDir = "/srv/music"
	cfg.Paths.UnknownDir = ""
	if err := cfg.normalize(); err != nil {
		t.Fatal(err)
	}
	if cfg.Paths.UnknownDir != filepath.Join("/srv/music", "Unknown Artist") {
		t.Fatalf("unknown_dir = %q", cfg.Paths.UnknownDir)
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatal(err)
	}
	cfg.Identification.MinCoverage = 1.5
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(err.Error(), "min_coverage") {
		t.Fatalf("error should name the bad threshold: %v", err)
	}
}

func TestValidateRescanRequiresEndpoint(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatal(err)
	}
	cfg.Library.RescanEnabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rescan validation failure")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatal(err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}

func TestSampleConfigParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stylus/internal/config"
)

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nmusic_dir = %q\nunknown_dir = %q\nwork_dir = %q\njob_db = %q\nlog_dir = %q\n\n[identification]\nacoustid_api_key = %q\n",
		cfg.Paths.MusicDir,
		cfg.Paths.UnknownDir,
		cfg.Paths.WorkDir,
		cfg.Paths.JobDB,
		cfg.Paths.LogDir,
		cfg.Identification.AcoustIDAPIKey,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func newTestConfigFile(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.MusicDir = filepath.Join(base, "music")
	cfg.Paths.UnknownDir = filepath.Join(base, "music", "Unknown Artist")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.JobDB = filepath.Join(base, "jobs.db")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Identification.AcoustIDAPIKey = "test"

	path := filepath.Join(base, "config.toml")
	writeTestConfig(t, path, &cfg)
	return path
}

func runCLI(t *testing.T, args []string, configPath string, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != "" {
		cmd.SetIn(strings.NewReader(stdin))
	}
	var flags []string
	if configPath != "" {
		flags = []string{"--config", configPath}
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestReconcileScanOnlyCleanWorkArea(t *testing.T) {
	configPath := newTestConfigFile(t)

	out, _, err := runCLI(t, []string{"reconcile"}, configPath, "")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	requireContains(t, out, "Work area is clean.")
}

func TestReconcileFlagsStaleTempDir(t *testing.T) {
	configPath := newTestConfigFile(t)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(cfg.Paths.WorkDir, "abcde.a1b2c3")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"reconcile"}, configPath, "")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	requireContains(t, out, "temp_dir")
	// Scan-only must never delete.
	if _, err := os.Stat(stale); err != nil {
		t.Fatal("scan-only reconcile must not remove anything")
	}
}

func TestReconcileCleanAbortsWithoutConfirmation(t *testing.T) {
	configPath := newTestConfigFile(t)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(cfg.Paths.WorkDir, "abcde.a1b2c3")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"reconcile", "--clean"}, configPath, "n\n")
	if err != nil {
		t.Fatalf("reconcile --clean: %v", err)
	}
	requireContains(t, out, "Cleanup aborted.")
	if _, err := os.Stat(stale); err != nil {
		t.Fatal("declined cleanup must not remove anything")
	}
}

func TestReconcileCleanWithYes(t *testing.T) {
	configPath := newTestConfigFile(t)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(cfg.Paths.WorkDir, "abcde.a1b2c3")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"reconcile", "--clean", "--yes"}, configPath, "")
	if err != nil {
		t.Fatalf("reconcile --clean --yes: %v", err)
	}
	requireContains(t, out, "Removed 1, refused 0, failed 0.")
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale temp dir should be removed")
	}
}

func TestIdentifyNoPendingWork(t *testing.T) {
	configPath := newTestConfigFile(t)

	out, _, err := runCLI(t, []string{"identify"}, configPath, "")
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	requireContains(t, out, "No unknown albums pending.")
}

func TestNotifyTestDisabled(t *testing.T) {
	configPath := newTestConfigFile(t)

	out, _, err := runCLI(t, []string{"notify-test"}, configPath, "")
	if err != nil {
		t.Fatalf("notify-test: %v", err)
	}
	requireContains(t, out, "disabled")
}

package preflight

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"stylus/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckAcoustID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Identification.AcoustIDAPIKey = "key"
	cfg.Identification.AcoustIDBaseURL = server.URL

	result := CheckAcoustID(context.Background(), &cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckAcoustIDMissingKey(t *testing.T) {
	cfg := config.Default()
	cfg.Identification.AcoustIDAPIKey = ""

	result := CheckAcoustID(context.Background(), &cfg)
	if result.Passed {
		t.Fatal("expected failure without api key")
	}
}

func TestCheckJobDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE job (job_id INTEGER PRIMARY KEY, title TEXT, status TEXT, start_time TEXT, stop_time TEXT)`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	result := CheckJobDatabase(context.Background(), path)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckJobDatabaseMissing(t *testing.T) {
	result := CheckJobDatabase(context.Background(), filepath.Join(t.TempDir(), "nope.db"))
	if result.Passed {
		t.Fatal("expected failure for missing database")
	}
}

func TestRunAllSkipsRescanWhenDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.MusicDir = t.TempDir()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Library.RescanEnabled = false

	results := RunAll(context.Background(), &cfg)
	for _, result := range results {
		if result.Name == "Library rescan" {
			t.Fatal("rescan check should be skipped when disabled")
		}
	}
}

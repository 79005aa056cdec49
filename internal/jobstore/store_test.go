package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"stylus/internal/services"
)

func newFixtureDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	const schema = `CREATE TABLE job (
        job_id INTEGER PRIMARY KEY,
        title TEXT,
        status TEXT,
        start_time TEXT,
        stop_time TEXT
    )`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	rows := []struct {
		id     int64
		title  string
		status string
		start  string
		stop   string
	}{
		{1, "Kind of Blue", "success", now.Add(-48 * time.Hour).Format(timeLayout), now.Add(-47 * time.Hour).Format(timeLayout)},
		{2, "In Rainbows", "fail", now.Add(-24 * time.Hour).Format(timeLayout), now.Add(-23 * time.Hour).Format(timeLayout)},
		{3, "Unknown Disc", "transcoding", now.Add(-5 * time.Hour).Format(timeLayout), ""},
		{4, "Fresh Disc", "ripping", now.Add(-10 * time.Minute).Format(timeLayout), ""},
	}
	for _, r := range rows {
		if _, err := db.Exec(
			`INSERT INTO job (job_id, title, status, start_time, stop_time) VALUES (?, ?, ?, ?, ?)`,
			r.id, r.title, r.status, r.start, r.stop,
		); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestOpenMissingDatabase(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.db"))
	if !errors.Is(err, services.ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState, got %v", err)
	}
}

func TestJobs(t *testing.T) {
	store, err := Open(newFixtureDB(t))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	jobs, err := store.Jobs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 4 {
		t.Fatalf("expected 4 jobs, got %d", len(jobs))
	}
	if !jobs[0].Terminal() || !jobs[1].Terminal() {
		t.Fatal("success and fail must both be terminal")
	}
	if jobs[2].Terminal() || jobs[3].Terminal() {
		t.Fatal("in-flight statuses must not be terminal")
	}
	if jobs[0].StartTime.IsZero() {
		t.Fatal("start time should parse")
	}
	if !jobs[2].StopTime.IsZero() {
		t.Fatal("empty stop time should be zero")
	}
}

func TestStuckJobs(t *testing.T) {
	store, err := Open(newFixtureDB(t))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	stuck, err := store.StuckJobs(context.Background(), 2*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(stuck) != 1 {
		t.Fatalf("expected 1 stuck job, got %d", len(stuck))
	}
	if stuck[0].ID != 3 {
		t.Fatalf("expected job 3, got %d", stuck[0].ID)
	}
}

func TestMarkFailed(t *testing.T) {
	store, err := Open(newFixtureDB(t))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.MarkFailed(ctx, 3); err != nil {
		t.Fatal(err)
	}

	jobs, err := store.Jobs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var reset Job
	for _, job := range jobs {
		if job.ID == 3 {
			reset = job
		}
	}
	if reset.Status != StatusFail {
		t.Fatalf("expected status %q, got %q", StatusFail, reset.Status)
	}
	if reset.StopTime.IsZero() {
		t.Fatal("stop time should be stamped")
	}
}

func TestMarkFailedRefusesTerminalJob(t *testing.T) {
	store, err := Open(newFixtureDB(t))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	err = store.MarkFailed(context.Background(), 1)
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected ErrConflict for terminal job, got %v", err)
	}
}

func TestJobStuckWithoutStartTime(t *testing.T) {
	job := Job{ID: 9, Status: "ripping"}
	if !job.Stuck(time.Now()) {
		t.Fatal("non-terminal job without a start time should count as stuck")
	}
}

package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"stylus/internal/services"
)

// Terminal status values used by the rip pipeline's tracking store. Every
// other status means the job is, or was, in flight.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// Job is one rip job record as persisted by the upstream pipeline. The
// pipeline owns the schema; this package only reads it and, during cleanup,
// marks stuck jobs failed using the pipeline's own status vocabulary.
type Job struct {
	ID        int64
	Title     string
	Status    string
	StartTime time.Time
	StopTime  time.Time
}

// Terminal reports whether the job reached a final state.
func (j Job) Terminal() bool {
	return j.Status == StatusSuccess || j.Status == StatusFail
}

// Stuck reports whether the job is non-terminal and started before the
// given cutoff. Jobs with no recorded start time are treated as stuck as
// soon as they are non-terminal.
func (j Job) Stuck(cutoff time.Time) bool {
	if j.Terminal() {
		return false
	}
	if j.StartTime.IsZero() {
		return true
	}
	return j.StartTime.Before(cutoff)
}

// Store reads the rip pipeline's job database.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to an existing job database. A missing or unreadable
// database yields ErrCorruptState so callers can degrade to filesystem-only
// classification instead of aborting.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, services.Wrap(services.ErrCorruptState, "jobstore", "open", "job database not accessible", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, services.Wrap(services.ErrCorruptState, "jobstore", "open", "open sqlite db", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrCorruptState, "jobstore", "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.Health(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Health verifies the job table is queryable.
func (s *Store) Health(ctx context.Context) error {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM job`).Scan(&count); err != nil {
		return services.Wrap(services.ErrCorruptState, "jobstore", "health", "query job table", err)
	}
	return nil
}

// Jobs returns every job record ordered by identifier.
func (s *Store) Jobs(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT job_id, title, status, start_time, stop_time FROM job ORDER BY job_id`)
	if err != nil {
		return nil, services.Wrap(services.ErrCorruptState, "jobstore", "jobs", "query jobs", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var (
			job    Job
			title  sql.NullString
			status sql.NullString
			start  sql.NullString
			stop   sql.NullString
		)
		if err := rows.Scan(&job.ID, &title, &status, &start, &stop); err != nil {
			return nil, services.Wrap(services.ErrCorruptState, "jobstore", "jobs", "scan job row", err)
		}
		job.Title = title.String
		job.Status = strings.TrimSpace(status.String)
		job.StartTime = parseTime(start.String)
		job.StopTime = parseTime(stop.String)
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrCorruptState, "jobstore", "jobs", "iterate job rows", err)
	}
	return jobs, nil
}

// StuckJobs returns non-terminal jobs that started before now minus maxAge.
func (s *Store) StuckJobs(ctx context.Context, maxAge time.Duration) ([]Job, error) {
	jobs, err := s.Jobs(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-maxAge)
	var stuck []Job
	for _, job := range jobs {
		if job.Stuck(cutoff) {
			stuck = append(stuck, job)
		}
	}
	return stuck, nil
}

// MarkFailed transitions a non-terminal job to the pipeline's terminal
// failure status and stamps its stop time. Terminal jobs are left alone.
func (s *Store) MarkFailed(ctx context.Context, jobID int64) error {
	stamp := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`UPDATE job SET status = ?, stop_time = ? WHERE job_id = ? AND status NOT IN (?, ?)`,
		StatusFail, stamp, jobID, StatusSuccess, StatusFail,
	)
	if err != nil {
		return services.Wrap(services.ErrCorruptState, "jobstore", "mark-failed", "update job", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrCorruptState, "jobstore", "mark-failed", "rows affected", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrConflict, "jobstore", "mark-failed",
			fmt.Sprintf("job %d is terminal or missing", jobID), errors.New("no rows updated"))
	}
	return nil
}

const timeLayout = "2006-01-02 15:04:05"

// parseTime tolerates the handful of timestamp shapes seen in pipeline
// databases over the years. An unparseable or empty value yields the zero
// time.
func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999",
		timeLayout,
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

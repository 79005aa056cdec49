package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"stylus/internal/config"
	"stylus/internal/jobstore"
	"stylus/internal/logging"
)

// Kind labels the category of an inconsistent work-area artifact.
type Kind string

const (
	KindTempDir       Kind = "temp_dir"
	KindLeftoverAudio Kind = "leftover_audio"
	KindStaleLock     Kind = "stale_lock"
	KindStuckJob      Kind = "stuck_job"
)

// State is the classification of one work item. Items older than the
// configured stale age are stale even while a rip runs elsewhere; fresh
// items are presumed owned by a live rip process when one exists. Clean
// state is represented by the item's absence from the report.
type State string

const (
	StateInProgress State = "in_progress"
	StateStale      State = "stale"
)

// Item is one artifact flagged by a scan.
type Item struct {
	Kind   Kind          `json:"kind"`
	State  State         `json:"state"`
	Path   string        `json:"path,omitempty"`
	JobID  int64         `json:"job_id,omitempty"`
	Title  string        `json:"title,omitempty"`
	Age    time.Duration `json:"age,omitempty"`
	Detail string        `json:"detail,omitempty"`
}

// StateReport is the read-only result of one reconciliation scan.
type StateReport struct {
	GeneratedAt      time.Time     `json:"generated_at"`
	WorkDir          string        `json:"work_dir"`
	Items            []Item        `json:"items"`
	Processes        []ProcessInfo `json:"processes,omitempty"`
	JobStoreDegraded bool          `json:"job_store_degraded,omitempty"`
	DegradedReason   string        `json:"degraded_reason,omitempty"`
}

// Clean reports whether the scan found nothing to reconcile.
func (r *StateReport) Clean() bool {
	return r != nil && len(r.Items) == 0
}

// Stale returns only the items eligible for cleanup.
func (r *StateReport) Stale() []Item {
	if r == nil {
		return nil
	}
	var stale []Item
	for _, item := range r.Items {
		if item.State == StateStale {
			stale = append(stale, item)
		}
	}
	return stale
}

// ActiveRip reports whether a live rip or encode process was observed.
func (r *StateReport) ActiveRip() bool {
	return r != nil && len(r.Processes) > 0
}

// JobSource abstracts the pipeline job database for scanning.
type JobSource interface {
	StuckJobs(ctx context.Context, maxAge time.Duration) ([]jobstore.Job, error)
	Close() error
}

// Option adjusts scanner construction, mainly for tests.
type Option func(*Scanner)

// WithProcessLister overrides live-process detection.
func WithProcessLister(lister ProcessLister) Option {
	return func(s *Scanner) { s.lister = lister }
}

// WithJobSourceOpener overrides how the job database is opened.
func WithJobSourceOpener(open func(path string) (JobSource, error)) Option {
	return func(s *Scanner) { s.openJobs = open }
}

// Scanner classifies shared work-area and job-tracking state. Scans never
// mutate anything; they only observe.
type Scanner struct {
	cfg      *config.Config
	logger   *slog.Logger
	lister   ProcessLister
	openJobs func(path string) (JobSource, error)
}

// New builds a scanner over the configured work area.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Scanner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "scanner"),
		lister: procLister{},
		openJobs: func(path string) (JobSource, error) {
			return jobstore.Open(path)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan inspects the work area and job store and classifies everything it
// finds. The work area is owned by another process, so every path observed
// here must be re-checked before any destructive action.
func (s *Scanner) Scan(ctx context.Context) (*StateReport, error) {
	report := &StateReport{
		GeneratedAt: time.Now().UTC(),
		WorkDir:     s.cfg.Paths.WorkDir,
	}

	processes, err := s.lister.List(ctx, s.cfg.Reconcile.RipProcessNames)
	if err != nil {
		return nil, fmt.Errorf("list rip processes: %w", err)
	}
	report.Processes = processes
	activeRip := len(processes) > 0
	if activeRip {
		s.logger.InfoContext(ctx, "live rip process detected",
			logging.Int("count", len(processes)))
	}

	if err := s.scanTempDirs(ctx, report, activeRip); err != nil {
		return nil, err
	}
	if err := s.scanLeftoverAudio(ctx, report, activeRip); err != nil {
		return nil, err
	}
	if err := s.scanLockFiles(ctx, report); err != nil {
		return nil, err
	}
	s.scanJobs(ctx, report)

	s.logger.InfoContext(ctx, "scan complete",
		logging.Int("items", len(report.Items)),
		logging.Bool("active_rip", report.ActiveRip()),
		logging.Bool("job_store_degraded", report.JobStoreDegraded))
	return report, nil
}

func (s *Scanner) staleAge() time.Duration {
	return time.Duration(s.cfg.Reconcile.StaleAgeHours) * time.Hour
}

// classify applies the per-item staleness rule. Age beats the process
// probe: an artifact older than the stale age has been abandoned by
// whatever rip is currently running, so it stays eligible for cleanup.
func (s *Scanner) classify(age time.Duration, activeRip bool) State {
	if age >= s.staleAge() {
		return StateStale
	}
	if activeRip {
		return StateInProgress
	}
	return StateStale
}

func (s *Scanner) scanTempDirs(ctx context.Context, report *StateReport, activeRip bool) error {
	entries, err := os.ReadDir(s.cfg.Paths.WorkDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read work dir: %w", err)
	}

	prefix := s.cfg.Reconcile.TempDirPrefix
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		path := filepath.Join(s.cfg.Paths.WorkDir, entry.Name())
		item := Item{
			Kind:   KindTempDir,
			Path:   path,
			Detail: "intermediate rip directory",
		}
		if info, err := entry.Info(); err == nil {
			item.Age = time.Since(info.ModTime()).Round(time.Second)
		}
		item.State = s.classify(item.Age, activeRip)
		report.Items = append(report.Items, item)
		s.logger.DebugContext(ctx, "temp directory found",
			logging.String("path", path),
			logging.String("state", string(item.State)))
	}
	return nil
}

func (s *Scanner) scanLeftoverAudio(ctx context.Context, report *StateReport, activeRip bool) error {
	workDir := s.cfg.Paths.WorkDir
	prefix := s.cfg.Reconcile.TempDirPrefix
	err := filepath.WalkDir(workDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// The pipeline may remove entries mid-walk.
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != workDir && strings.HasPrefix(d.Name(), prefix) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ".wav") {
			return nil
		}
		item := Item{
			Kind:   KindLeftoverAudio,
			Path:   path,
			Detail: "raw audio outside any rip directory",
		}
		if info, err := d.Info(); err == nil {
			item.Age = time.Since(info.ModTime()).Round(time.Second)
		}
		item.State = s.classify(item.Age, activeRip)
		report.Items = append(report.Items, item)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("walk work dir: %w", err)
	}
	return nil
}

func (s *Scanner) scanLockFiles(ctx context.Context, report *StateReport) error {
	entries, err := os.ReadDir(s.cfg.Paths.WorkDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read work dir: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".lock" && ext != ".pid" {
			continue
		}
		path := filepath.Join(s.cfg.Paths.WorkDir, entry.Name())
		pid, ok := readPidFile(path)
		if ok && pidAlive(pid) {
			s.logger.DebugContext(ctx, "coordination file has live owner",
				logging.String("path", path),
				logging.Int("pid", pid))
			continue
		}
		detail := "coordination file without a live owner"
		if ok {
			detail = fmt.Sprintf("owner pid %d is not running", pid)
		}
		report.Items = append(report.Items, Item{
			Kind:   KindStaleLock,
			State:  StateStale,
			Path:   path,
			Detail: detail,
		})
	}
	return nil
}

func (s *Scanner) scanJobs(ctx context.Context, report *StateReport) {
	source, err := s.openJobs(s.cfg.Paths.JobDB)
	if err != nil {
		report.JobStoreDegraded = true
		report.DegradedReason = err.Error()
		s.logger.WarnContext(ctx, "job store unreadable, filesystem-only classification",
			logging.Error(err))
		return
	}
	defer source.Close()

	stuck, err := source.StuckJobs(ctx, s.staleAge())
	if err != nil {
		report.JobStoreDegraded = true
		report.DegradedReason = err.Error()
		s.logger.WarnContext(ctx, "job query failed, filesystem-only classification",
			logging.Error(err))
		return
	}

	for _, job := range stuck {
		item := Item{
			Kind:   KindStuckJob,
			State:  StateStale,
			JobID:  job.ID,
			Title:  job.Title,
			Detail: fmt.Sprintf("status %q with no terminal marker", job.Status),
		}
		if !job.StartTime.IsZero() {
			item.Age = time.Since(job.StartTime).Round(time.Second)
		}
		report.Items = append(report.Items, item)
	}
}

func readPidFile(path string) (int, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	content := strings.TrimSpace(string(raw))
	if fields := strings.Fields(content); len(fields) > 0 {
		content = fields[0]
	}
	pid, err := strconv.Atoi(content)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

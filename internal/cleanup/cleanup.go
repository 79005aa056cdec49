package cleanup

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/gofrs/flock"

	"stylus/internal/config"
	"stylus/internal/jobstore"
	"stylus/internal/logging"
	"stylus/internal/scanner"
	"stylus/internal/services"
)

// Outcome records what happened to one item during cleanup.
type Outcome string

const (
	OutcomeRemoved Outcome = "removed"
	OutcomeMissing Outcome = "missing"
	OutcomeRefused Outcome = "refused"
	OutcomeFailed  Outcome = "failed"
)

// Result is the per-item cleanup record. Deletion is irreversible, so every
// item gets an explicit entry rather than an aggregate count.
type Result struct {
	Item    scanner.Item `json:"item"`
	Outcome Outcome      `json:"outcome"`
	Error   string       `json:"error,omitempty"`
}

// Report is the full record of one cleanup run.
type Report struct {
	Results []Result `json:"results"`
}

// Removed counts items actually deleted or reset.
func (r *Report) Removed() int { return r.count(OutcomeRemoved) }

// Refused counts items skipped for safety.
func (r *Report) Refused() int { return r.count(OutcomeRefused) }

// Failed counts items whose removal errored.
func (r *Report) Failed() int { return r.count(OutcomeFailed) }

func (r *Report) count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// JobResetter marks stuck jobs failed in the pipeline's job database.
type JobResetter interface {
	MarkFailed(ctx context.Context, jobID int64) error
	Close() error
}

// Option adjusts executor construction.
type Option func(*Executor)

// WithJobResetterOpener overrides how the job database is opened for resets.
func WithJobResetterOpener(open func(path string) (JobResetter, error)) Option {
	return func(e *Executor) { e.openJobs = open }
}

// Executor removes stale work-area artifacts flagged by a scan.
type Executor struct {
	cfg      *config.Config
	logger   *slog.Logger
	openJobs func(path string) (JobResetter, error)
}

// New builds a cleanup executor.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Executor{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "cleanup"),
		openJobs: func(path string) (JobResetter, error) {
			return jobstore.Open(path)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clean removes the stale items in the report. In-progress items are refused
// unless force is set; the caller is expected to have confirmed the override
// with the operator before passing force. Paths are re-checked immediately
// before deletion because the work area is mutated by another process, and a
// path that vanished since the scan counts as already clean.
func (e *Executor) Clean(ctx context.Context, report *scanner.StateReport, force bool) (*Report, error) {
	if report == nil {
		return &Report{}, nil
	}

	lock := flock.New(e.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConflict, "cleanup", "lock", "acquire instance lock", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConflict, "cleanup", "lock",
			"another stylus instance is already running", errors.New("lock held"))
	}
	defer func() { _ = lock.Unlock() }()

	out := &Report{}
	for _, item := range report.Items {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out.Results = append(out.Results, e.cleanItem(ctx, item, force))
	}

	e.logger.InfoContext(ctx, "cleanup complete",
		logging.Int("removed", out.Removed()),
		logging.Int("refused", out.Refused()),
		logging.Int("failed", out.Failed()))
	return out, nil
}

func (e *Executor) cleanItem(ctx context.Context, item scanner.Item, force bool) Result {
	if item.State != scanner.StateStale && !force {
		e.logger.WarnContext(ctx, "refusing item with live owner",
			logging.String("kind", string(item.Kind)),
			logging.String("path", item.Path))
		return Result{Item: item, Outcome: OutcomeRefused, Error: services.ErrActiveProcess.Error()}
	}

	if item.Kind == scanner.KindStuckJob {
		return e.resetJob(ctx, item)
	}
	return e.removePath(ctx, item)
}

func (e *Executor) removePath(ctx context.Context, item scanner.Item) Result {
	// Re-validate just before deleting; the scan result may be minutes old.
	if _, err := os.Lstat(item.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Item: item, Outcome: OutcomeMissing}
		}
		return Result{Item: item, Outcome: OutcomeFailed, Error: err.Error()}
	}

	if err := os.RemoveAll(item.Path); err != nil {
		e.logger.ErrorContext(ctx, "remove failed",
			logging.String("path", item.Path),
			logging.Error(err))
		return Result{Item: item, Outcome: OutcomeFailed, Error: err.Error()}
	}
	e.logger.InfoContext(ctx, "removed",
		logging.String("kind", string(item.Kind)),
		logging.String("path", item.Path))
	return Result{Item: item, Outcome: OutcomeRemoved}
}

func (e *Executor) resetJob(ctx context.Context, item scanner.Item) Result {
	source, err := e.openJobs(e.cfg.Paths.JobDB)
	if err != nil {
		return Result{Item: item, Outcome: OutcomeFailed, Error: err.Error()}
	}
	defer source.Close()

	if err := source.MarkFailed(ctx, item.JobID); err != nil {
		// A job that went terminal since the scan needs no reset.
		if errors.Is(err, services.ErrConflict) {
			return Result{Item: item, Outcome: OutcomeMissing}
		}
		return Result{Item: item, Outcome: OutcomeFailed, Error: err.Error()}
	}
	e.logger.InfoContext(ctx, "stuck job marked failed",
		logging.Int64("job_id", item.JobID),
		logging.String("title", item.Title))
	return Result{Item: item, Outcome: OutcomeRemoved}
}

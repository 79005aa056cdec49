package organizer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"

	"stylus/internal/album"
	"stylus/internal/config"
	"stylus/internal/fileutil"
	"stylus/internal/logging"
	"stylus/internal/services"
	"stylus/internal/services/navidrome"
	"stylus/internal/textutil"
	"stylus/internal/voting"
)

// Mode selects between previewing and committing a reorganization.
type Mode string

const (
	DryRun Mode = "dry_run"
	Apply  Mode = "apply"
)

// Status is the final state of one reorganization attempt.
type Status string

const (
	StatusPlanned Status = "planned"
	StatusApplied Status = "applied"
	// StatusPartialFailure means a move failed mid-album and every file
	// already moved was returned to the source folder.
	StatusPartialFailure Status = "partial_failure"
)

// TrackPlan is the intended tag write and move for one track.
type TrackPlan struct {
	Source      string            `json:"source"`
	Destination string            `json:"destination"`
	Tags        map[string]string `json:"tags"`
}

// Report records everything one reorganization did, or would do.
type Report struct {
	Mode           Mode        `json:"mode"`
	Status         Status      `json:"status"`
	Artist         string      `json:"artist"`
	Album          string      `json:"album"`
	DestinationDir string      `json:"destination_dir"`
	Tracks         []TrackPlan `json:"tracks"`
	SourceRemoved  bool        `json:"source_removed,omitempty"`
	RescanOK       bool        `json:"rescan_ok,omitempty"`
	// RescanError is reported but never fails the reorganization.
	RescanError string `json:"rescan_error,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Option adjusts organizer construction.
type Option func(*Organizer)

// WithTagger overrides the embedded tag writer.
func WithTagger(tagger Tagger) Option {
	return func(o *Organizer) { o.tagger = tagger }
}

// Organizer applies an accepted identity to an album folder.
type Organizer struct {
	cfg    *config.Config
	logger *slog.Logger
	tagger Tagger
	rescan navidrome.Service
}

// New builds an organizer. The rescan service may be a noop.
func New(cfg *config.Config, logger *slog.Logger, rescan navidrome.Service, opts ...Option) *Organizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Organizer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "organizer"),
		tagger: flacTagger{},
		rescan: rescan,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Plan computes the tag writes and moves an accepted decision implies,
// without touching anything. A destination collision is an error here so
// the operator learns about it before apply.
func (o *Organizer) Plan(folder string, decision voting.Decision) (*Report, error) {
	if decision.Outcome != voting.Accept || decision.Identity == nil {
		return nil, services.Wrap(services.ErrValidation, "organizer", "plan",
			"only an accepted decision can be organized", nil)
	}
	identity := decision.Identity

	artistDir := textutil.SanitizeFileName(identity.Artist)
	albumDir := textutil.SanitizeFileName(identity.Album)
	if artistDir == "" || albumDir == "" {
		return nil, services.Wrap(services.ErrValidation, "organizer", "plan",
			"identity sanitizes to an empty path element", nil)
	}
	destDir := filepath.Join(o.cfg.Paths.MusicDir, artistDir, albumDir)

	report := &Report{
		Mode:           DryRun,
		Status:         StatusPlanned,
		Artist:         identity.Artist,
		Album:          identity.Album,
		DestinationDir: destDir,
	}

	fallbacks := loadFallbacks(folder)
	total := len(identity.Tracks)
	for idx, track := range identity.Tracks {
		title := track.Title
		number := track.TrackNo
		if title == "" || number <= 0 {
			// Unidentified tracks keep their folder-derived name and
			// position so the album stays complete on disk.
			fallbackTitle, ordinal := fallbackFor(fallbacks, track.Path, idx)
			if title == "" {
				title = fallbackTitle
			}
			if number <= 0 {
				number = ordinal
			}
		}

		name := fmt.Sprintf("%02d - %s.flac", number, textutil.SanitizeFileName(title))
		destination := filepath.Join(destDir, name)

		tags := map[string]string{
			"TITLE":       title,
			"ARTIST":      identity.Artist,
			"ALBUM":       identity.Album,
			"ALBUMARTIST": identity.Artist,
			"TRACKNUMBER": strconv.Itoa(number),
			"TOTALTRACKS": strconv.Itoa(total),
		}
		if identity.Year != "" {
			tags["DATE"] = identity.Year
		}
		if identity.Genre != "" {
			tags["GENRE"] = identity.Genre
		}

		report.Tracks = append(report.Tracks, TrackPlan{
			Source:      track.Path,
			Destination: destination,
			Tags:        tags,
		})
	}

	if err := o.checkCollisions(report); err != nil {
		return nil, err
	}
	return report, nil
}

// Run executes the reorganization in the given mode. DryRun returns the
// plan untouched; Apply commits it as one logical transaction per album.
func (o *Organizer) Run(ctx context.Context, folder string, decision voting.Decision, mode Mode) (*Report, error) {
	report, err := o.Plan(folder, decision)
	if err != nil {
		return nil, err
	}
	if mode != Apply {
		return report, nil
	}
	return o.apply(ctx, folder, report)
}

func (o *Organizer) apply(ctx context.Context, folder string, report *Report) (*Report, error) {
	report.Mode = Apply

	lock := flock.New(o.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return report, services.Wrap(services.ErrConflict, "organizer", "apply", "acquire instance lock", err)
	}
	if !ok {
		return report, services.Wrap(services.ErrConflict, "organizer", "apply",
			"another stylus instance is already running", errors.New("lock held"))
	}
	defer func() { _ = lock.Unlock() }()

	// The work area can change between plan and apply; re-check before
	// the first mutation.
	if err := o.checkCollisions(report); err != nil {
		report.Error = err.Error()
		return report, err
	}
	for _, plan := range report.Tracks {
		if _, err := os.Stat(plan.Source); err != nil {
			wrapped := services.Wrap(services.ErrConflict, "organizer", "apply",
				fmt.Sprintf("source vanished before apply: %s", plan.Source), err)
			report.Error = wrapped.Error()
			return report, wrapped
		}
	}

	logger := logging.WithContext(ctx, o.logger)
	for _, plan := range report.Tracks {
		if err := o.tagger.WriteTags(plan.Source, plan.Tags); err != nil {
			wrapped := services.Wrap(services.ErrMalformedAudio, "organizer", "tag",
				fmt.Sprintf("write tags for %s", plan.Source), err)
			report.Error = wrapped.Error()
			return report, wrapped
		}
		logger.DebugContext(ctx, "tags written", logging.String("path", plan.Source))
	}

	moved := make([]TrackPlan, 0, len(report.Tracks))
	for _, plan := range report.Tracks {
		// MoveFile replaces an existing destination, so a file that
		// appeared since the collision check must stop the album.
		if _, err := os.Lstat(plan.Destination); err == nil {
			o.rollback(ctx, logger, moved)
			report.Status = StatusPartialFailure
			wrapped := services.Wrap(services.ErrConflict, "organizer", "move",
				fmt.Sprintf("destination appeared during apply: %s", plan.Destination), nil)
			report.Error = wrapped.Error()
			return report, wrapped
		}
		if err := fileutil.MoveFile(plan.Source, plan.Destination); err != nil {
			o.rollback(ctx, logger, moved)
			report.Status = StatusPartialFailure
			wrapped := services.Wrap(services.ErrConflict, "organizer", "move",
				fmt.Sprintf("move %s failed, album rolled back", plan.Source), err)
			report.Error = wrapped.Error()
			return report, wrapped
		}
		moved = append(moved, plan)
		logger.InfoContext(ctx, "track moved",
			logging.String("from", plan.Source),
			logging.String("to", plan.Destination))
	}

	report.Status = StatusApplied
	report.SourceRemoved = o.pruneSource(ctx, logger, folder)

	// Rescan is fire and forget; a delivery failure never unwinds a
	// completed reorganization.
	if err := o.rescan.StartScan(ctx); err != nil {
		report.RescanError = err.Error()
		logger.WarnContext(ctx, "library rescan failed", logging.Error(err))
	} else {
		report.RescanOK = true
	}

	logger.InfoContext(ctx, "album organized",
		logging.String("artist", report.Artist),
		logging.String("album", report.Album),
		logging.String("destination", report.DestinationDir),
		logging.Int("tracks", len(report.Tracks)))
	return report, nil
}

// rollback returns already-moved files to their sources so a failed apply
// leaves zero files relocated.
func (o *Organizer) rollback(ctx context.Context, logger *slog.Logger, moved []TrackPlan) {
	for i := len(moved) - 1; i >= 0; i-- {
		plan := moved[i]
		if err := fileutil.MoveFile(plan.Destination, plan.Source); err != nil {
			logger.ErrorContext(ctx, "rollback move failed",
				logging.String("path", plan.Destination),
				logging.Error(err))
		}
	}
	// Drop the destination album dir if the rollback emptied it.
	if len(moved) > 0 {
		if _, err := fileutil.RemoveDirIfEmpty(filepath.Dir(moved[0].Destination)); err != nil {
			logger.WarnContext(ctx, "could not remove destination dir after rollback",
				logging.Error(err))
		}
	}
}

// pruneSource removes the emptied album folder and, when that folder was
// the last one pending, the unknown-artist holding directory itself.
func (o *Organizer) pruneSource(ctx context.Context, logger *slog.Logger, folder string) bool {
	removed, err := fileutil.RemoveDirIfEmpty(folder)
	if err != nil {
		logger.WarnContext(ctx, "could not remove source folder",
			logging.String("path", folder),
			logging.Error(err))
		return false
	}
	if !removed {
		return false
	}
	if filepath.Dir(folder) == o.cfg.Paths.UnknownDir {
		if _, err := fileutil.RemoveDirIfEmpty(o.cfg.Paths.UnknownDir); err != nil {
			logger.WarnContext(ctx, "could not prune unknown-artist dir",
				logging.Error(err))
		}
	}
	return true
}

func (o *Organizer) checkCollisions(report *Report) error {
	seen := make(map[string]string, len(report.Tracks))
	for _, plan := range report.Tracks {
		if prior, ok := seen[plan.Destination]; ok {
			return services.Wrap(services.ErrConflict, "organizer", "plan",
				fmt.Sprintf("tracks %s and %s both map to %s", prior, plan.Source, plan.Destination), nil)
		}
		seen[plan.Destination] = plan.Source
		if _, err := os.Lstat(plan.Destination); err == nil {
			return services.Wrap(services.ErrConflict, "organizer", "plan",
				fmt.Sprintf("destination already exists: %s", plan.Destination), nil)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat destination %s: %w", plan.Destination, err)
		}
	}
	return nil
}

func loadFallbacks(folder string) map[string]album.Track {
	fallbacks := make(map[string]album.Track)
	tracks, err := album.LoadTracks(folder)
	if err != nil {
		return fallbacks
	}
	for _, track := range tracks {
		fallbacks[track.Path] = track
	}
	return fallbacks
}

func fallbackFor(fallbacks map[string]album.Track, path string, idx int) (string, int) {
	if track, ok := fallbacks[path]; ok {
		return track.FallbackTitle, track.Ordinal
	}
	base := filepath.Base(path)
	return textutil.TitleCase(base[:len(base)-len(filepath.Ext(base))]), idx + 1
}

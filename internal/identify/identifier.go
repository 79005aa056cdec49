package identify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"stylus/internal/album"
	"stylus/internal/config"
	"stylus/internal/logging"
	"stylus/internal/services"
	"stylus/internal/services/acoustid"
	"stylus/internal/services/chromaprint"
	"stylus/internal/voting"
)

// Fingerprinter produces an acoustic fingerprint for one audio file.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, path string) (chromaprint.Fingerprint, error)
}

// Lookup resolves a fingerprint into ranked match candidates.
type Lookup interface {
	Lookup(ctx context.Context, fp chromaprint.Fingerprint) ([]album.Candidate, error)
}

// AlbumResult is the outcome of identifying one album folder.
type AlbumResult struct {
	Folder   string          `json:"folder"`
	Decision voting.Decision `json:"decision"`
	// Err records a per-album failure. Failures are isolated; one album's
	// error never aborts its siblings.
	Err error `json:"-"`
	// ErrMessage mirrors Err for serialized reports.
	ErrMessage string `json:"error,omitempty"`
}

// Identifier runs the fingerprint, lookup, and voting pipeline for unknown
// albums.
type Identifier struct {
	cfg         *config.Config
	logger      *slog.Logger
	fingerprint Fingerprinter
	lookup      Lookup
}

// New wires an identifier from configuration, building the default
// chromaprint and AcoustID clients.
func New(cfg *config.Config, logger *slog.Logger) (*Identifier, error) {
	fp, err := chromaprint.New(cfg.Identification.FpcalcBinary)
	if err != nil {
		return nil, err
	}
	lookup, err := acoustid.New(acoustid.Config{
		APIKey:  cfg.Identification.AcoustIDAPIKey,
		BaseURL: cfg.Identification.AcoustIDBaseURL,
		Timeout: time.Duration(cfg.Identification.LookupTimeout) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return NewWithClients(cfg, logger, fp, lookup), nil
}

// NewWithClients wires an identifier around explicit service clients.
func NewWithClients(cfg *config.Config, logger *slog.Logger, fp Fingerprinter, lookup Lookup) *Identifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Identifier{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "identify"),
		fingerprint: fp,
		lookup:      lookup,
	}
}

// Run identifies every pending unknown album, or just the given folder when
// scope is non-empty. No pending work is a no-op, not an error.
func (i *Identifier) Run(ctx context.Context, scope string) ([]AlbumResult, error) {
	ctx = services.WithRunID(ctx, uuid.NewString())

	var folders []string
	if scope != "" {
		folders = []string{scope}
	} else {
		listed, err := album.ListUnknownAlbums(i.cfg.Paths.UnknownDir)
		if err != nil {
			return nil, fmt.Errorf("list unknown albums: %w", err)
		}
		folders = listed
	}

	if len(folders) == 0 {
		i.logger.InfoContext(ctx, "no unknown albums pending")
		return nil, nil
	}

	results := make([]AlbumResult, 0, len(folders))
	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, i.identifyAlbum(ctx, folder))
	}
	return results, nil
}

// IdentifyAlbum runs the full pipeline for a single album folder.
func (i *Identifier) IdentifyAlbum(ctx context.Context, folder string) AlbumResult {
	ctx = services.WithRunID(ctx, uuid.NewString())
	return i.identifyAlbum(ctx, folder)
}

func (i *Identifier) identifyAlbum(ctx context.Context, folder string) AlbumResult {
	ctx = services.WithAlbum(ctx, filepath.Base(folder))
	logger := logging.WithContext(ctx, i.logger)
	result := AlbumResult{Folder: folder}

	tracks, err := album.LoadTracks(folder)
	if err != nil {
		logger.ErrorContext(ctx, "load tracks failed", logging.Error(err))
		return result.withError(err)
	}
	if len(tracks) == 0 {
		err := services.Wrap(services.ErrValidation, "identify", "load",
			"album folder contains no audio files", nil)
		return result.withError(err)
	}

	ballots, err := i.collectBallots(ctx, logger, tracks)
	if err != nil {
		return result.withError(err)
	}

	thresholds := voting.Thresholds{
		MinTrackScore: i.cfg.Identification.MinTrackScore,
		MinCoverage:   i.cfg.Identification.MinCoverage,
		MinAgreement:  i.cfg.Identification.MinAgreement,
	}
	decision := voting.Decide(ballots, thresholds)
	result.Decision = decision

	attrs := []logging.Attr{
		logging.String("decision", string(decision.Outcome)),
		logging.Int("tracks", decision.TotalTracks),
		logging.Int("identified", decision.IdentifiedTracks),
		logging.Float64("coverage", decision.Coverage),
		logging.Float64("agreement", decision.Agreement),
		logging.Float64("min_track_score", thresholds.MinTrackScore),
		logging.Float64("min_coverage", thresholds.MinCoverage),
		logging.Float64("min_agreement", thresholds.MinAgreement),
	}
	if decision.Identity != nil {
		attrs = append(attrs,
			logging.String("artist", decision.Identity.Artist),
			logging.String("album", decision.Identity.Album))
	}
	if decision.Reason != "" {
		attrs = append(attrs, logging.String("reason", decision.Reason))
	}
	logger.InfoContext(ctx, "album decision", logging.Args(attrs...)...)
	return result
}

// collectBallots fingerprints and looks up every track, with bounded
// concurrency. Requests are independent; each ballot is keyed by its own
// track and no state is shared across the in-flight lookups.
func (i *Identifier) collectBallots(ctx context.Context, logger *slog.Logger, tracks []album.Track) ([]voting.Ballot, error) {
	parallel := i.cfg.Identification.MaxParallel
	if parallel <= 0 {
		parallel = 1
	}

	ballots := make([]voting.Ballot, len(tracks))
	errs := make([]error, len(tracks))
	sem := make(chan struct{}, parallel)
	var wg sync.WaitGroup

	for idx, track := range tracks {
		wg.Add(1)
		go func(idx int, track album.Track) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			}
			ballots[idx] = voting.Ballot{Track: track}

			fp, err := i.fingerprint.Fingerprint(ctx, track.Path)
			if err != nil {
				errs[idx] = err
				return
			}
			candidates, err := i.lookup.Lookup(ctx, fp)
			if err != nil {
				errs[idx] = err
				return
			}
			ballots[idx].Candidates = album.NormalizeCandidates(candidates)
		}(idx, track)
	}
	wg.Wait()

	for idx, err := range errs {
		if err == nil {
			continue
		}
		// A malformed track still casts an empty ballot; anything else
		// fails the album so a flaky service cannot skew the vote.
		if errors.Is(err, services.ErrMalformedAudio) {
			logger.WarnContext(ctx, "track unreadable, counted as unidentified",
				logging.String("path", tracks[idx].Path),
				logging.Error(err))
			ballots[idx] = voting.Ballot{Track: tracks[idx]}
			continue
		}
		logger.ErrorContext(ctx, "track lookup failed",
			logging.String("path", tracks[idx].Path),
			logging.Error(err))
		return nil, err
	}

	sort.SliceStable(ballots, func(a, b int) bool {
		return ballots[a].Track.Ordinal < ballots[b].Track.Ordinal
	})
	return ballots, nil
}

func (r AlbumResult) withError(err error) AlbumResult {
	r.Err = err
	if err != nil {
		r.ErrMessage = err.Error()
	}
	return r
}

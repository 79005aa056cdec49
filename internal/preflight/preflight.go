package preflight

import (
	"context"

	"stylus/internal/config"
	"stylus/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks tied to optional features only run when the feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Music directory", cfg.Paths.MusicDir))
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	results = append(results, CheckAcoustID(ctx, cfg))
	results = append(results, CheckJobDatabase(ctx, cfg.Paths.JobDB))

	if cfg.Library.RescanEnabled {
		results = append(results, CheckRescanEndpoint(ctx, cfg.Library.RescanURL))
	}

	return results
}

// CheckSystemDeps evaluates the external binaries Stylus shells out to.
// The status command uses this alongside RunAll.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "fpcalc",
			Command:     cfg.Identification.FpcalcBinary,
			Description: "Required for acoustic fingerprinting",
		},
	}
	return deps.CheckBinaries(requirements)
}

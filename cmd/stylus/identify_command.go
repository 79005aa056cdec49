package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stylus/internal/config"
	"stylus/internal/identify"
	"stylus/internal/notifications"
	"stylus/internal/organizer"
	"stylus/internal/services/navidrome"
	"stylus/internal/voting"
)

type identifyOutput struct {
	Results []identifyAlbumOutput `json:"results"`
	Applied bool                  `json:"applied"`
}

type identifyAlbumOutput struct {
	identify.AlbumResult
	Report *organizer.Report `json:"report,omitempty"`
}

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var applyFlag bool
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "identify [album-dir]",
		Short: "Identify unknown albums and preview or apply their reorganization",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var scope string
			if len(args) == 1 {
				scope, err = config.ExpandPath(strings.TrimSpace(args[0]))
				if err != nil {
					return fmt.Errorf("resolve album dir: %w", err)
				}
			}

			identifier, err := identify.New(cfg, logger)
			if err != nil {
				return err
			}

			results, err := identifier.Run(cmd.Context(), scope)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				if jsonFlag {
					return writeJSON(cmd, identifyOutput{Results: []identifyAlbumOutput{}, Applied: applyFlag})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "No unknown albums pending.")
				return nil
			}

			notifier := notifications.NewService(cfg)
			org := organizer.New(cfg, logger, navidrome.NewConfiguredService(cfg))
			mode := organizer.DryRun
			if applyFlag {
				mode = organizer.Apply
			}

			output := identifyOutput{Applied: applyFlag}
			for _, result := range results {
				entry := identifyAlbumOutput{AlbumResult: result}
				if result.Err != nil {
					_ = notifier.NotifyError(cmd.Context(), result.Err, "identify")
					output.Results = append(output.Results, entry)
					continue
				}

				switch result.Decision.Outcome {
				case voting.Accept:
					report, orgErr := org.Run(cmd.Context(), result.Folder, result.Decision, mode)
					entry.Report = report
					if orgErr != nil {
						entry.Err = orgErr
						entry.ErrMessage = orgErr.Error()
						_ = notifier.NotifyError(cmd.Context(), orgErr, "organize")
					} else if applyFlag {
						_ = notifier.NotifyOrganizationCompleted(cmd.Context(),
							report.Artist, report.Album, report.DestinationDir)
					} else {
						_ = notifier.NotifyAlbumIdentified(cmd.Context(),
							report.Artist, report.Album, len(report.Tracks))
					}
				case voting.InsufficientData:
					_ = notifier.NotifyAlbumUndecided(cmd.Context(), result.Folder, result.Decision.Reason)
				}
				output.Results = append(output.Results, entry)
			}

			if jsonFlag {
				return writeJSON(cmd, output)
			}
			renderIdentifyResults(cmd, output)
			return nil
		},
	}

	cmd.Flags().BoolVar(&applyFlag, "apply", false, "Apply accepted identities (default is a dry run)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit machine-readable JSON")
	return cmd
}

func renderIdentifyResults(cmd *cobra.Command, output identifyOutput) {
	columns := []column{
		{title: "Folder"},
		{title: "Outcome"},
		{title: "Identity"},
		{title: "Coverage", numeric: true},
		{title: "Agreement", numeric: true},
		{title: "Notes"},
	}
	rows := make([][]string, 0, len(output.Results))
	for _, entry := range output.Results {
		rows = append(rows, identifyRow(entry))
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(columns, rows))

	if !output.Applied {
		fmt.Fprintln(cmd.OutOrStdout(), "Dry run only; re-run with --apply to commit accepted albums.")
	}
}

func identifyRow(entry identifyAlbumOutput) []string {
	folder := entry.Folder
	if entry.Err != nil {
		return []string{folder, "error", "", "", "", entry.ErrMessage}
	}

	decision := entry.Decision
	coverage := fmt.Sprintf("%.2f", decision.Coverage)
	agreement := fmt.Sprintf("%.2f", decision.Agreement)

	switch decision.Outcome {
	case voting.Accept:
		identity := ""
		if decision.Identity != nil {
			identity = decision.Identity.Artist + " - " + decision.Identity.Album
		}
		note := "planned"
		if entry.Report != nil {
			note = string(entry.Report.Status)
			if entry.Report.RescanError != "" {
				note += " (rescan failed)"
			}
		}
		return []string{folder, string(decision.Outcome), identity, coverage, agreement, note}
	default:
		return []string{folder, string(decision.Outcome), "", coverage, agreement, decision.Reason}
	}
}

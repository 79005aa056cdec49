package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stylus/internal/cleanup"
	"stylus/internal/notifications"
	"stylus/internal/scanner"
)

type reconcileOutput struct {
	Scan    *scanner.StateReport `json:"scan"`
	Cleanup *cleanup.Report      `json:"cleanup,omitempty"`
}

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var cleanFlag bool
	var yesFlag bool
	var forceFlag bool
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Scan shared rip state and optionally clean stale artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			scan := scanner.New(cfg, logger)
			report, err := scan.Scan(cmd.Context())
			if err != nil {
				return err
			}

			output := reconcileOutput{Scan: report}
			if !cleanFlag {
				if jsonFlag {
					return writeJSON(cmd, output)
				}
				renderScanReport(cmd, report)
				return nil
			}

			stale := report.Stale()
			if len(stale) == 0 && !forceFlag {
				if jsonFlag {
					return writeJSON(cmd, output)
				}
				renderScanReport(cmd, report)
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing stale to clean.")
				return nil
			}

			if !yesFlag {
				if !jsonFlag {
					renderScanReport(cmd, report)
				}
				confirmed, err := confirmCleanup(cmd, len(stale), forceFlag, len(report.Items)-len(stale))
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Cleanup aborted.")
					return nil
				}
			}

			executor := cleanup.New(cfg, logger)
			result, err := executor.Clean(cmd.Context(), report, forceFlag)
			if err != nil {
				return err
			}
			output.Cleanup = result

			notifier := notifications.NewService(cfg)
			_ = notifier.NotifyCleanupCompleted(cmd.Context(), result.Removed(), result.Refused()+result.Failed())

			if jsonFlag {
				return writeJSON(cmd, output)
			}
			renderCleanupReport(cmd, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cleanFlag, "clean", false, "Remove stale artifacts after scanning")
	cmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Skip the interactive confirmation")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "Also clean items owned by a live rip process")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit machine-readable JSON")
	return cmd
}

func confirmCleanup(cmd *cobra.Command, staleCount int, force bool, liveCount int) (bool, error) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "About to delete %d stale item(s).", staleCount)
	if force && liveCount > 0 {
		fmt.Fprintf(out, " --force will ALSO remove %d item(s) that may belong to a live rip.", liveCount)
	}
	fmt.Fprint(out, " Continue? [y/N]: ")

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func renderScanReport(cmd *cobra.Command, report *scanner.StateReport) {
	out := cmd.OutOrStdout()

	if report.ActiveRip() {
		fmt.Fprintf(out, "Live rip process detected (%d matching process(es)); in-progress items will not be cleaned.\n", len(report.Processes))
	}
	if report.JobStoreDegraded {
		fmt.Fprintf(out, "Warning: job database unreadable, classification is filesystem-only (%s).\n", report.DegradedReason)
	}
	if report.Clean() {
		fmt.Fprintln(out, "Work area is clean.")
		return
	}

	columns := []column{
		{title: "Kind"},
		{title: "State"},
		{title: "Target"},
		{title: "Age", numeric: true},
		{title: "Detail"},
	}
	rows := make([][]string, 0, len(report.Items))
	for _, item := range report.Items {
		target := item.Path
		if item.Kind == scanner.KindStuckJob {
			target = fmt.Sprintf("job %d (%s)", item.JobID, item.Title)
		}
		age := ""
		if item.Age > 0 {
			age = item.Age.Round(time.Second).String()
		}
		rows = append(rows, []string{string(item.Kind), string(item.State), target, age, item.Detail})
	}
	fmt.Fprintln(out, renderTable(columns, rows))
}

func renderCleanupReport(cmd *cobra.Command, report *cleanup.Report) {
	out := cmd.OutOrStdout()

	columns := []column{{title: "Kind"}, {title: "Target"}, {title: "Outcome"}, {title: "Error"}}
	rows := make([][]string, 0, len(report.Results))
	for _, result := range report.Results {
		target := result.Item.Path
		if result.Item.Kind == scanner.KindStuckJob {
			target = fmt.Sprintf("job %d (%s)", result.Item.JobID, result.Item.Title)
		}
		rows = append(rows, []string{string(result.Item.Kind), target, string(result.Outcome), result.Error})
	}
	fmt.Fprintln(out, renderTable(columns, rows))
	fmt.Fprintf(out, "Removed %d, refused %d, failed %d.\n", report.Removed(), report.Refused(), report.Failed())
}

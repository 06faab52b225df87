package cmd

import (
	"fmt"
	"os"

	"github.com/HartreeWorks/slackpull/internal/core"
	"github.com/HartreeWorks/slackpull/internal/export"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var statusWorkspace string

var (
	statusPhaseStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)

	statusLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	statusValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42"))
)

var exportStatusCmd = &cobra.Command{
	Use:   "export-status",
	Short: "Show the progress of an unfinished export",
	Long: `Report the current phase and progress counters of the persisted export
checkpoint without mutating any state.`,
	RunE: runExportStatus,
}

func init() {
	rootCmd.AddCommand(exportStatusCmd)

	exportStatusCmd.Flags().StringVar(&statusWorkspace, "workspace", "", "Workspace name")
}

func runExportStatus(_ *cobra.Command, _ []string) error {
	// Status is read-only: resolve without recording activity
	config, err := core.LoadWorkspaces("")
	if err != nil {
		return err
	}

	name := statusWorkspace
	if name == "" {
		if ws := config.Default(); ws != nil {
			name = ws.Name
		} else if len(config.Workspaces) > 0 {
			name = config.Workspaces[0].Name
		} else {
			return fmt.Errorf("no workspaces configured")
		}
	}

	cp, err := export.LoadCheckpoint(export.CheckpointPath(name))
	if err != nil {
		return err
	}

	if cp == nil {
		_, _ = fmt.Fprintf(os.Stdout, "No export in progress for workspace %s\n", name)

		return nil
	}

	line := func(label, value string) {
		_, _ = fmt.Fprintf(os.Stdout, "%s %s\n",
			statusLabelStyle.Render(label+":"), statusValueStyle.Render(value))
	}

	_, _ = fmt.Fprintf(os.Stdout, "%s\n", statusPhaseStyle.Render(fmt.Sprintf("Export %s (phase %s)", cp.RunID, cp.Phase)))
	line("workspace", cp.Workspace)
	line("date range", fmt.Sprintf("%s .. %s", cp.DateFrom, cp.DateTo))
	line("search pages done", fmt.Sprintf("%d", cp.Search.NextPage-1))
	line("messages collected", fmt.Sprintf("%d", len(cp.Messages)))
	line("threads pending", fmt.Sprintf("%d", len(cp.PendingThreadKeys())))
	line("threads fetched", fmt.Sprintf("%d", len(cp.Threads)))
	line("output", cp.OutputPath)
	line("last update", cp.UpdatedAt.Format("2006-01-02 15:04:05"))

	return nil
}

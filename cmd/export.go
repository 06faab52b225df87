package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/HartreeWorks/slackpull/internal/core"
	"github.com/HartreeWorks/slackpull/internal/export"
	"github.com/HartreeWorks/slackpull/internal/model"
	"github.com/spf13/cobra"
)

var (
	exportFrom      string
	exportTo        string
	exportOutput    string
	exportWorkspace string
	exportForce     bool
	exportResume    bool
	exportPageSize  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export your message history for a date range",
	Long: `Export every message you sent in a date range, together with the complete
thread around each one, into a single archive file.

The export is checkpointed: progress is persisted after every search page and
every fetched thread. An interrupted run continues with --resume and produces
the same archive an uninterrupted run would have.

Examples:
  slackpull export --from 2025-07-01 --to 2025-07-31 --output july.json
  slackpull export --from 2025-07-01 --to 2025-07-31 --output july.json --workspace work
  slackpull export --resume
  slackpull export --resume --workspace work`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start date (inclusive, YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End date (inclusive, YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "Archive output path")
	exportCmd.Flags().StringVar(&exportWorkspace, "workspace", "", "Workspace name")
	exportCmd.Flags().BoolVar(&exportForce, "force", false, "Discard an unfinished checkpoint and start over")
	exportCmd.Flags().BoolVar(&exportResume, "resume", false, "Continue from the persisted checkpoint")
	exportCmd.Flags().IntVar(&exportPageSize, "page-size", 100, "Search results per page")
}

func runExport(cmd *cobra.Command, _ []string) error {
	if exportResume {
		if exportFrom != "" || exportTo != "" || exportOutput != "" {
			return fmt.Errorf("--resume continues the saved run; it takes no --from/--to/--output")
		}
	} else {
		if exportFrom == "" || exportTo == "" || exportOutput == "" {
			return fmt.Errorf("--from, --to, and --output are required (or use --resume)")
		}
	}

	s, err := openSession(core.ResolveOptions{Workspace: exportWorkspace})
	if err != nil {
		return err
	}
	defer s.close()

	// Interrupts cancel between units of work; the checkpoint always holds
	// the last fully completed unit
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checkpointPath := export.CheckpointPath(s.workspace.Name)

	cp, err := export.LoadCheckpoint(checkpointPath)
	if err != nil {
		return err
	}

	switch {
	case exportResume:
		if cp == nil {
			return &core.NoCheckpointError{Workspace: s.workspace.Name}
		}

		_, _ = fmt.Fprintf(os.Stdout, "Resuming export for %s (phase %s, %d messages, %d threads so far)\n",
			s.workspace.Name, cp.Phase, len(cp.Messages), len(cp.Threads))

	case cp != nil && cp.Phase != model.PhaseDone && !exportForce:
		return &core.CheckpointExistsError{Workspace: s.workspace.Name, Phase: string(cp.Phase)}

	default:
		if cp != nil {
			if err := export.RetireCheckpoint(checkpointPath); err != nil {
				return err
			}
		}

		identity, err := s.identity(ctx)
		if err != nil {
			return err
		}

		cp, err = export.NewCheckpoint(export.NewCheckpointOptions{
			Workspace:   s.workspace.Name,
			Subject:     identity.UserID,
			SubjectName: identity.UserName,
			DateFrom:    exportFrom,
			DateTo:      exportTo,
			OutputPath:  exportOutput,
			PageSize:    exportPageSize,
		})
		if err != nil {
			return err
		}

		if err := export.SaveCheckpoint(cp, checkpointPath); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(os.Stdout, "Exporting messages from %s for %s to %s\n",
			s.workspace.Name, cp.DateFrom, cp.DateTo)
	}

	pipeline := export.NewPipeline(s.client, s.workspace.Name, export.PipelineOptions{
		CheckpointPath: checkpointPath,
		Logger:         logger,
	})

	if err := pipeline.Run(ctx, cp); err != nil {
		if ctx.Err() != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Interrupted; continue with: slackpull export --resume --workspace %s\n", s.workspace.Name)
		}

		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Archive written to %s\n", cp.OutputPath)

	return nil
}

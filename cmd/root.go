package cmd

import (
	"log/slog"
	"os"

	"github.com/HartreeWorks/slackpull/internal/application"
	"github.com/spf13/cobra"
)

var (
	verboseFlag bool

	logger = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:   application.AppName,
	Short: "Slack message-history exporter",
	Long: `Slackpull pulls your own message history out of Slack workspaces using
browser session tokens, and assembles it into a complete, resumable archive.

The export runs in three checkpointed phases (search, threads, write) and can
be interrupted and resumed at any point without losing or duplicating work.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verboseFlag {
			level = slog.LevelDebug
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCmd returns the root command for introspection purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}

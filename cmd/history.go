package cmd

import (
	"github.com/HartreeWorks/slackpull/internal/slack"
	"github.com/spf13/cobra"
)

var (
	historyWorkspace string
	historyLimit     int
)

var historyCmd = &cobra.Command{
	Use:   "history CHANNEL",
	Short: "Fetch one page of channel or DM history",
	Long: `Fetch recent messages from a channel or DM. CHANNEL may be a platform ID
(C..., D...) or a human channel name.

Examples:
  slackpull history C04AFNMCNFP
  slackpull history "#general" --limit 50`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyWorkspace, "workspace", "", "Workspace name")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 100, "Maximum messages to fetch")
}

func runHistory(cmd *cobra.Command, args []string) error {
	s, err := openSession(channelResolveOptions(historyWorkspace, args[0]))
	if err != nil {
		return err
	}
	defer s.close()

	var result *slack.GetChannelHistoryResult

	err = s.withChannelID(cmd.Context(), args[0], func(id string) error {
		var err error
		result, err = s.client.GetChannelHistory(cmd.Context(), slack.GetChannelHistoryOptions{
			Channel: id,
			Limit:   historyLimit,
		})

		return err
	})
	if err != nil {
		return err
	}

	return printJSON(result.Messages)
}

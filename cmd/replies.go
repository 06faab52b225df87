package cmd

import (
	"github.com/HartreeWorks/slackpull/internal/slack"
	"github.com/spf13/cobra"
)

var repliesWorkspace string

var repliesCmd = &cobra.Command{
	Use:   "replies CHANNEL THREAD_TS",
	Short: "Fetch the replies in a thread",
	Args:  cobra.ExactArgs(2),
	RunE:  runReplies,
}

func init() {
	rootCmd.AddCommand(repliesCmd)

	repliesCmd.Flags().StringVar(&repliesWorkspace, "workspace", "", "Workspace name")
}

func runReplies(cmd *cobra.Command, args []string) error {
	s, err := openSession(channelResolveOptions(repliesWorkspace, args[0]))
	if err != nil {
		return err
	}
	defer s.close()

	var messages []slack.Message

	err = s.withChannelID(cmd.Context(), args[0], func(id string) error {
		messages = messages[:0]
		cursor := ""

		for {
			page, err := s.client.GetThreadReplies(cmd.Context(), slack.GetThreadRepliesOptions{
				Channel:  id,
				ThreadTS: args[1],
				Cursor:   cursor,
			})
			if err != nil {
				return err
			}

			messages = append(messages, page.Messages...)

			if !page.HasMore || page.NextCursor == "" {
				return nil
			}

			cursor = page.NextCursor
		}
	})
	if err != nil {
		return err
	}

	return printJSON(messages)
}

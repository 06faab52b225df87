package cmd

import (
	"github.com/HartreeWorks/slackpull/internal/slack"
	"github.com/spf13/cobra"
)

var (
	sendWorkspace string
	sendThread    string
)

var sendCmd = &cobra.Command{
	Use:   "send CHANNEL TEXT",
	Short: "Send a message to a channel or thread",
	Args:  cobra.ExactArgs(2),
	RunE:  runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&sendWorkspace, "workspace", "", "Workspace name")
	sendCmd.Flags().StringVar(&sendThread, "thread", "", "Thread timestamp to reply into")
}

func runSend(cmd *cobra.Command, args []string) error {
	s, err := openSession(channelResolveOptions(sendWorkspace, args[0]))
	if err != nil {
		return err
	}
	defer s.close()

	var result *slack.PostMessageResult

	err = s.withChannelID(cmd.Context(), args[0], func(id string) error {
		var err error
		result, err = s.client.PostMessage(cmd.Context(), slack.PostMessageOptions{
			Channel:  id,
			Text:     args[1],
			ThreadTS: sendThread,
		})
		return err
	})
	if err != nil {
		return err
	}

	return printJSON(result)
}

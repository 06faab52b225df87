package cmd

import (
	"fmt"

	"github.com/HartreeWorks/slackpull/internal/slack"
	"github.com/spf13/cobra"
)

var (
	permalinkWorkspace string
	permalinkStyle     string
)

var permalinkCmd = &cobra.Command{
	Use:   "permalink CHANNEL TS",
	Short: "Derive a permalink for a message",
	Args:  cobra.ExactArgs(2),
	RunE:  runPermalink,
}

func init() {
	rootCmd.AddCommand(permalinkCmd)

	permalinkCmd.Flags().StringVar(&permalinkWorkspace, "workspace", "", "Workspace name")
	permalinkCmd.Flags().StringVar(&permalinkStyle, "style", "app", "Link style (app or browser)")
}

func runPermalink(cmd *cobra.Command, args []string) error {
	s, err := openSession(channelResolveOptions(permalinkWorkspace, args[0]))
	if err != nil {
		return err
	}
	defer s.close()

	identity, err := s.identity(cmd.Context())
	if err != nil {
		return err
	}
	team := slack.TeamFromURL(identity.URL)

	style := slack.PermalinkApp
	if permalinkStyle == "browser" {
		style = slack.PermalinkBrowser
	}

	return s.withChannelID(cmd.Context(), args[0], func(id string) error {
		fmt.Println(slack.Permalink(team, id, args[1], style))
		return nil
	})
}

package cmd

import (
	"github.com/HartreeWorks/slackpull/internal/core"
	"github.com/HartreeWorks/slackpull/internal/model"
	"github.com/HartreeWorks/slackpull/internal/slack"
	"github.com/spf13/cobra"
)

var (
	channelsWorkspace string
	channelsTypes     string
	channelsArchived  bool
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List channels, DMs, and group DMs",
	RunE:  runChannels,
}

func init() {
	rootCmd.AddCommand(channelsCmd)

	channelsCmd.Flags().StringVar(&channelsWorkspace, "workspace", "", "Workspace name")
	channelsCmd.Flags().StringVar(&channelsTypes, "types", "public_channel,private_channel,im,mpim", "Conversation types to include")
	channelsCmd.Flags().BoolVar(&channelsArchived, "archived", false, "Include archived conversations")
}

func runChannels(cmd *cobra.Command, _ []string) error {
	s, err := openSession(core.ResolveOptions{Workspace: channelsWorkspace})
	if err != nil {
		return err
	}
	defer s.close()

	var (
		channels []slack.Channel
		cursor   string
	)

	for {
		page, err := s.client.ListChannels(cmd.Context(), slack.ListChannelsOptions{
			ExcludeArchived: !channelsArchived,
			Types:           channelsTypes,
			Cursor:          cursor,
		})
		if err != nil {
			return err
		}

		for _, ch := range page.Channels {
			if ch.Name != "" {
				if err := s.cache.Put(s.workspace.Name, model.CacheKindChannel, ch.Name, ch.ID); err != nil {
					return err
				}
			}
		}

		channels = append(channels, page.Channels...)

		if page.NextCursor == "" {
			break
		}

		cursor = page.NextCursor
	}

	// The DM with yourself is worth remembering once the identity is cached
	if identity, err := s.cache.Identity(s.workspace.Name); err == nil && identity != nil {
		for _, ch := range channels {
			if ch.IsIM && ch.User == identity.UserID {
				if err := s.cache.SaveSelfDM(s.workspace.Name, ch.ID); err != nil {
					return err
				}

				break
			}
		}
	}

	return printJSON(channels)
}

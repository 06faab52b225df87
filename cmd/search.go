package cmd

import (
	"github.com/HartreeWorks/slackpull/internal/core"
	"github.com/HartreeWorks/slackpull/internal/slack"
	"github.com/spf13/cobra"
)

var (
	searchWorkspace string
	searchCount     int
	searchPage      int
	searchSort      string
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search messages with Slack query syntax",
	Long: `Search messages with Slack query syntax, for example:

  slackpull search "from:@alice in:#general after:2026-01-01"`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchWorkspace, "workspace", "", "Workspace name")
	searchCmd.Flags().IntVar(&searchCount, "count", 20, "Results per page")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "Result page")
	searchCmd.Flags().StringVar(&searchSort, "sort", "timestamp", "Sort order (timestamp or score)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	s, err := openSession(core.ResolveOptions{Workspace: searchWorkspace})
	if err != nil {
		return err
	}
	defer s.close()

	result, err := s.client.SearchMessages(cmd.Context(), slack.SearchMessagesOptions{
		Query: args[0],
		Sort:  searchSort,
		Dir:   "asc",
		Count: searchCount,
		Page:  searchPage,
	})
	if err != nil {
		return err
	}

	return printJSON(result)
}

package cmd

import (
	"github.com/spf13/cobra"
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage workspace credentials",
	Long: `Manage the Slack workspaces slackpull can talk to.

Each workspace is a named pair of browser session tokens: the xoxc API token
and the xoxd cookie, copied from a signed-in Slack session in your browser.`,
}

func init() {
	rootCmd.AddCommand(workspaceCmd)
}

package cmd

import (
	"fmt"
	"os"

	"github.com/HartreeWorks/slackpull/internal/core"
	"github.com/spf13/cobra"
)

var workspaceUseCmd = &cobra.Command{
	Use:   "use NAME",
	Short: "Mark a workspace as active",
	Long: `Mark a workspace as the most recently active one, so operations in the
next few minutes resolve to it without an explicit --workspace flag.`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkspaceUse,
}

func init() {
	workspaceCmd.AddCommand(workspaceUseCmd)
}

func runWorkspaceUse(_ *cobra.Command, args []string) error {
	s, err := openSession(core.ResolveOptions{Workspace: args[0]})
	if err != nil {
		return err
	}
	defer s.close()

	_, _ = fmt.Fprintf(os.Stdout, "Active workspace: %s\n", s.workspace.Name)

	return nil
}

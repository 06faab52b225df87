package cmd

import (
	"fmt"
	"os"

	"github.com/HartreeWorks/slackpull/internal/core"
	"github.com/HartreeWorks/slackpull/internal/store"
	"github.com/spf13/cobra"
)

var workspaceRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a workspace and its cached state",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspaceRemove,
}

func init() {
	workspaceCmd.AddCommand(workspaceRemoveCmd)
}

func runWorkspaceRemove(_ *cobra.Command, args []string) error {
	name := args[0]

	config, err := core.LoadWorkspaces("")
	if err != nil {
		return err
	}

	if _, ok := config.Get(name); !ok {
		return fmt.Errorf("unknown workspace: %s", name)
	}

	kept := config.Workspaces[:0]
	for _, ws := range config.Workspaces {
		if ws.Name != name {
			kept = append(kept, ws)
		}
	}
	config.Workspaces = kept

	if err := core.SaveWorkspaces("", config); err != nil {
		return err
	}

	db, err := store.Open("")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.DeleteCache(name); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Workspace %q removed.\n", name)

	return nil
}

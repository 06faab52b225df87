package cmd

import (
	"fmt"
	"os"

	"github.com/HartreeWorks/slackpull/internal/core"
	"github.com/HartreeWorks/slackpull/internal/store"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	workspaceNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)

	workspaceActiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42"))

	workspaceDimStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))
)

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured workspaces",
	RunE:  runWorkspaceList,
}

func init() {
	workspaceCmd.AddCommand(workspaceListCmd)
}

func runWorkspaceList(_ *cobra.Command, _ []string) error {
	config, err := core.LoadWorkspaces("")
	if err != nil {
		return err
	}

	if len(config.Workspaces) == 0 {
		_, _ = fmt.Fprintln(os.Stdout, "No workspaces configured. Add one with: slackpull workspace add NAME")

		return nil
	}

	db, err := store.Open("")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	session, err := db.GetSession()
	if err != nil {
		return err
	}

	for _, ws := range config.Workspaces {
		marks := ""

		if ws.Default {
			marks += workspaceDimStyle.Render(" (default)")
		}

		if ws.Name == session.ActiveWorkspace {
			marks += workspaceActiveStyle.Render(" (active)")
		}

		_, _ = fmt.Fprintf(os.Stdout, "%s%s\n", workspaceNameStyle.Render(ws.Name), marks)

		if at, ok := session.LastActive[ws.Name]; ok {
			_, _ = fmt.Fprintf(os.Stdout, "  %s\n",
				workspaceDimStyle.Render("last used "+at.Format("2006-01-02 15:04:05")))
		}
	}

	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/HartreeWorks/slackpull/internal/core"
	"github.com/HartreeWorks/slackpull/internal/model"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	workspaceAddUserAgent string
	workspaceAddDefault   bool
)

var workspaceAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a workspace credential pair",
	Long: `Add a named workspace. The xoxc token and xoxd cookie are prompted for
without echo; they are never accepted as command-line arguments because those
end up in shell history.

Find the values in a signed-in browser session:
  - xoxc token: any Slack API request payload ("token" field, starts with xoxc-)
  - xoxd cookie: the "d" cookie on slack.com (starts with xoxd-)

Examples:
  slackpull workspace add work
  slackpull workspace add personal --default`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkspaceAdd,
}

func init() {
	workspaceCmd.AddCommand(workspaceAddCmd)

	workspaceAddCmd.Flags().StringVar(&workspaceAddUserAgent, "user-agent", "", "Override the client signature string")
	workspaceAddCmd.Flags().BoolVar(&workspaceAddDefault, "default", false, "Make this the default workspace")
}

func runWorkspaceAdd(_ *cobra.Command, args []string) error {
	name := args[0]

	config, err := core.LoadWorkspaces("")
	if err != nil {
		return err
	}

	if _, exists := config.Get(name); exists {
		return fmt.Errorf("workspace %q already exists: remove it first", name)
	}

	xoxcToken, err := promptSecret("xoxc token: ")
	if err != nil {
		return err
	}

	xoxdCookie, err := promptSecret("xoxd cookie: ")
	if err != nil {
		return err
	}

	if xoxcToken == "" || xoxdCookie == "" {
		return fmt.Errorf("both tokens are required")
	}

	if workspaceAddDefault {
		for i := range config.Workspaces {
			config.Workspaces[i].Default = false
		}
	}

	config.Workspaces = append(config.Workspaces, model.Workspace{
		Name:       name,
		XOXCToken:  xoxcToken,
		XOXDCookie: xoxdCookie,
		UserAgent:  workspaceAddUserAgent,
		Default:    workspaceAddDefault || len(config.Workspaces) == 0,
	})

	if err := core.SaveWorkspaces("", config); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Workspace %q added.\n\nVerify with: slackpull auth --workspace %s\n", name, name)

	return nil
}

// promptSecret reads a value from the terminal without echoing it.
func promptSecret(prompt string) (string, error) {
	_, _ = fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())

	value, err := term.ReadPassword(fd)

	_, _ = fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", err
	}

	return string(value), nil
}

package cmd

import (
	"github.com/HartreeWorks/slackpull/internal/core"
	"github.com/HartreeWorks/slackpull/internal/model"
	"github.com/spf13/cobra"
)

var authWorkspace string

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Test authentication and show the signed-in identity",
	RunE:  runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)

	authCmd.Flags().StringVar(&authWorkspace, "workspace", "", "Workspace name")
}

func runAuth(cmd *cobra.Command, _ []string) error {
	s, err := openSession(core.ResolveOptions{Workspace: authWorkspace})
	if err != nil {
		return err
	}
	defer s.close()

	auth, err := s.client.AuthTest(cmd.Context())
	if err != nil {
		return err
	}

	if err := s.cache.SaveIdentity(s.workspace.Name, &model.Identity{
		UserID:   auth.UserID,
		UserName: auth.User,
		TeamID:   auth.TeamID,
		TeamName: auth.Team,
		URL:      auth.URL,
	}); err != nil {
		return err
	}

	return printJSON(auth)
}

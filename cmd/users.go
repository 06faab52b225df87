package cmd

import (
	"fmt"
	"os"

	"github.com/HartreeWorks/slackpull/internal/core"
	"github.com/HartreeWorks/slackpull/internal/slack"
	"github.com/spf13/cobra"
)

var (
	usersWorkspace string
	usersRefresh   bool
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List workspace users",
	Long: `List all users in the workspace. The username→ID directory is cached;
a cache older than a week is refreshed rather than trusted. --refresh forces
a fresh fetch.`,
	RunE: runUsers,
}

func init() {
	rootCmd.AddCommand(usersCmd)

	usersCmd.Flags().StringVar(&usersWorkspace, "workspace", "", "Workspace name")
	usersCmd.Flags().BoolVar(&usersRefresh, "refresh", false, "Force a directory refresh")
}

func runUsers(cmd *cobra.Command, _ []string) error {
	s, err := openSession(core.ResolveOptions{Workspace: usersWorkspace})
	if err != nil {
		return err
	}
	defer s.close()

	if !usersRefresh {
		fresh, err := s.cache.DirectoryFresh(s.workspace.Name)
		if err != nil {
			return err
		}

		if fresh {
			_, _ = fmt.Fprintln(os.Stderr, "user directory cache is fresh; use --refresh to force a fetch")
		}
	}

	var (
		users  []slack.User
		cursor string
	)

	for {
		page, err := s.client.ListUsers(cmd.Context(), slack.ListUsersOptions{Cursor: cursor})
		if err != nil {
			return err
		}

		users = append(users, page.Users...)

		if page.NextCursor == "" {
			break
		}

		cursor = page.NextCursor
	}

	directory := make(map[string]string, len(users))
	for _, u := range users {
		if !u.Deleted && u.Name != "" {
			directory[u.Name] = u.ID
		}
	}

	if err := s.cache.RefreshDirectory(s.workspace.Name, directory); err != nil {
		return err
	}

	return printJSON(users)
}

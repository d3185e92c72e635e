package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/adanyl0v/go-todo-planner/internal/app"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a user",
	Long: `Issue a bearer token signed with the configured JWT key.

Intended for local use and testing; production tokens come from the identity provider.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().String("user", "", "User id (required)")
	tokenCmd.Flags().String("email", "", "User email")
}

func runToken(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	email, _ := cmd.Flags().GetString("email")
	if userID == "" {
		return errors.New("--user is required")
	}

	token, expiresAt, err := app.NewIssuer().Issue(userID, email)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
	return nil
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// SessionIssuer issues API bearer tokens.
type SessionIssuer interface {
	IssueSession(userID string, ttl time.Duration) (string, error)
}

var (
	tokenTTL  time.Duration
	tokenSave bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token",
	Long: `Issues a bearer token for the user selected by --user. Tokens are signed
with auth.jwt_secret, so the server must share this configuration.`,
	Example: `  briefcast token --user alice --ttl 720h
  curl -H "Authorization: Bearer $(briefcast token -u alice)" localhost:8080/api/briefings/today`,
	PreRunE: requireServices,
	RunE:    runToken,
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default auth.session_ttl_hours)")
	tokenCmd.Flags().BoolVar(&tokenSave, "save", false, "store the token in the profile")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	if sessionIssuer == nil {
		return fmt.Errorf("sessions: %w", errNotConfigured)
	}

	ttl := tokenTTL
	if ttl <= 0 && application != nil {
		ttl = time.Duration(application.Config.Auth.SessionTTLHours) * time.Hour
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	user := currentUser()
	token, err := sessionIssuer.IssueSession(user, ttl)
	if err != nil {
		return err
	}

	if tokenSave {
		p, err := openProfile()
		if err != nil {
			return fmt.Errorf("opening profile: %w", err)
		}
		if err := p.Set(profileTokenKey, token); err != nil {
			return fmt.Errorf("saving profile: %w", err)
		}
	}

	// Scripts capture the bare token; people get a note with it.
	if isTerminal(cmd.OutOrStdout()) {
		cmd.Printf("Token for %s, valid for %s:\n", user, ttl)
	}
	cmd.Println(token)
	return nil
}

package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/briefcast/internal/adapters/driven/config/file"
)

const (
	profileURLKey   = file.KeyServerURL
	profileTokenKey = file.KeyToken
	profileUserKey  = file.KeyUserID
)

// profileDir overrides the profile location. Empty uses ~/.briefcast.
var profileDir string

func openProfile() (*file.ProfileStore, error) {
	return file.NewProfileStore(profileDir)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the saved server profile",
	Long: `The profile remembers which briefcast server to talk to, the bearer token to
send and the user to act as. Commands that accept --remote fall back to it.`,
	RunE: runProfileShow,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved profile",
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a profile value",
	Long: `Set a profile value. An empty value removes the key.

Keys:
  remote.url      base URL of the briefcast server
  remote.token    bearer token issued by "briefcast token"
  remote.user_id  default user for local commands`,
	Args: cobra.ExactArgs(2),
	RunE: runProfileSet,
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileShow(cmd *cobra.Command, _ []string) error {
	p, err := openProfile()
	if err != nil {
		return fmt.Errorf("opening profile: %w", err)
	}

	values := p.Values()
	if len(values) == 0 {
		cmd.Printf("Profile is empty (%s)\n", p.Path())
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cmd.Printf("Profile (%s):\n", p.Path())
	for _, k := range keys {
		v := values[k]
		if k == profileTokenKey {
			v = maskSecret(v)
		}
		cmd.Printf("  %-16s %s\n", k, v)
	}
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], strings.TrimSpace(args[1])
	switch key {
	case profileURLKey, profileTokenKey, profileUserKey:
	default:
		return fmt.Errorf("unknown profile key %q", key)
	}

	p, err := openProfile()
	if err != nil {
		return fmt.Errorf("opening profile: %w", err)
	}
	if key == profileURLKey {
		value = strings.TrimRight(value, "/")
	}
	if err := p.Set(key, value); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	if value == "" {
		cmd.Printf("Removed %s\n", key)
	} else {
		cmd.Printf("Saved %s\n", key)
	}
	return nil
}

// maskSecret shows only the ends of a secret.
func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

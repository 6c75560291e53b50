package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var interestsCmd = &cobra.Command{
	Use:   "interests",
	Short: "Inspect the interest profile used to pick topics",
}

var interestsShowCmd = &cobra.Command{
	Use:     "show",
	Short:   "Show the cached interest profile",
	PreRunE: requireServices,
	RunE:    runInterests(false),
}

var interestsRefreshCmd = &cobra.Command{
	Use:     "refresh",
	Short:   "Rebuild the interest profile from recent activity",
	PreRunE: requireServices,
	RunE:    runInterests(true),
}

func init() {
	interestsCmd.AddCommand(interestsShowCmd)
	interestsCmd.AddCommand(interestsRefreshCmd)
	rootCmd.AddCommand(interestsCmd)
}

func runInterests(refresh bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if interestService == nil {
			return fmt.Errorf("interests: %w", errNotConfigured)
		}

		ctx := commandContext(cmd)
		load := interestService.Profile
		if refresh {
			load = interestService.Refresh
		}
		profile, err := load(ctx, currentUser())
		if err != nil {
			return err
		}

		if profile.IsEmpty() {
			cmd.Printf("No interests found (%s).\n", profile.Status)
			return nil
		}
		cmd.Printf("Interests (%s", profile.Status)
		if !profile.GeneratedAt.IsZero() {
			cmd.Printf(", %s", profile.GeneratedAt.Local().Format("2006-01-02 15:04"))
		}
		cmd.Printf("):\n  %s\n", strings.Join(profile.Keywords, ", "))
		return nil
	}
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage briefing preferences",
	Long: `View and change the providers, language, timezone and trend region used
when generating briefings.`,
	PreRunE: requireServices,
	RunE:    runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:     "show",
	Short:   "Show current settings",
	PreRunE: requireServices,
	RunE:    runSettingsShow,
}

var settingsProvidersCmd = &cobra.Command{
	Use:   "providers [provider...]",
	Short: "Set the providers included in each briefing",
	Long: `Set the providers included in each briefing, in order.

Available providers: ` + providerNames(),
	Example: `  briefcast settings providers gmail calendar trends
  briefcast settings providers gmail,github`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: requireServices,
	RunE:    runSettingsProviders,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a preference",
	Long: `Set a preference. Keys:
  language      narration language, e.g. en
  timezone      IANA timezone used to decide which day a briefing is for
  trend_region  region code of the trend feed, e.g. US`,
	Args:    cobra.ExactArgs(2),
	PreRunE: requireServices,
	RunE:    runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsProvidersCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func providerNames() string {
	names := make([]string, 0, len(domain.AllProviders()))
	for _, p := range domain.AllProviders() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings: %w", errNotConfigured)
	}

	st, err := settingsService.Get(commandContext(cmd), currentUser())
	if err != nil {
		return err
	}

	providers := make([]string, len(st.EnabledProviders))
	for i, p := range st.EnabledProviders {
		providers[i] = string(p)
	}
	orDefault := func(s string) string {
		if s == "" {
			return "(default)"
		}
		return s
	}

	cmd.Printf("User:          %s\n", st.UserID)
	cmd.Printf("Providers:     %s\n", strings.Join(providers, ", "))
	cmd.Printf("Language:      %s\n", orDefault(st.Language))
	cmd.Printf("Timezone:      %s\n", orDefault(st.Timezone))
	cmd.Printf("Trend region:  %s\n", orDefault(st.TrendRegion))
	return nil
}

func runSettingsProviders(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings: %w", errNotConfigured)
	}

	var names []string
	for _, arg := range args {
		for _, name := range strings.Split(arg, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	providers, err := domain.ParseProviders(names)
	if err != nil {
		return err
	}

	st, err := settingsService.SetProviders(commandContext(cmd), currentUser(), providers)
	if err != nil {
		return err
	}
	cmd.Printf("Enabled providers: %d\n", len(st.EnabledProviders))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings: %w", errNotConfigured)
	}
	ctx := commandContext(cmd)

	st, err := settingsService.Get(ctx, currentUser())
	if err != nil {
		return err
	}

	key, value := args[0], strings.TrimSpace(args[1])
	switch key {
	case "language":
		st.Language = value
	case "timezone":
		st.Timezone = value
	case "trend_region":
		st.TrendRegion = strings.ToUpper(value)
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	if err := settingsService.Save(ctx, st); err != nil {
		return err
	}
	cmd.Printf("Saved %s\n", key)
	return nil
}

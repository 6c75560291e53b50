package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
)

var (
	generateProviders []string
	generateTopics    []string
	remoteURL         string
	remoteToken       string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate today's briefing",
	Long: `Generates today's briefing and prints each pipeline stage as it settles.

By default the pipeline runs in this process against the configured storage.
With --remote (or a saved profile URL) the run happens on a briefcast server
and its event stream is followed instead.`,
	Example: `  briefcast generate
  briefcast generate --providers gmail,calendar --topic "rust 1.80"
  briefcast generate --remote https://brief.example.com --token $TOKEN`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringSliceVarP(&generateProviders, "providers", "p", nil, "providers to include (default: enabled providers)")
	generateCmd.Flags().StringArrayVarP(&generateTopics, "topic", "t", nil, "extra topic to cover (repeatable)")
	generateCmd.Flags().StringVar(&remoteURL, "remote", "", "briefcast server URL")
	generateCmd.Flags().StringVar(&remoteToken, "token", "", "bearer token for --remote")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	remote, err := resolveRemote(remoteURL, remoteToken)
	if err != nil {
		return err
	}

	printer := newProgressPrinter(cmd.OutOrStdout())
	if remote != nil {
		cmd.Printf("Generating on %s...\n", remote.baseURL)
		last, err := remote.generate(ctx, generateProviders, generateTopics, printer)
		if err != nil {
			return err
		}
		if last.Stage == domain.StageError {
			return fmt.Errorf("generation failed: %v", last.Payload["message"])
		}
		return nil
	}

	if err := ensureServices(ctx); err != nil {
		return err
	}
	if pipelineService == nil {
		return fmt.Errorf("pipeline: %w", errNotConfigured)
	}

	providers, err := domain.ParseProviders(generateProviders)
	if err != nil {
		return err
	}

	user := currentUser()
	cmd.Printf("Generating briefing for %s...\n", user)
	rec, err := pipelineService.Generate(ctx, driving.GenerateRequest{
		UserID:      user,
		Providers:   providers,
		TrendTopics: generateTopics,
	}, printer)
	if err != nil {
		if errors.Is(err, domain.ErrAuthRequired) {
			cmd.Println("Reconnect providers with: briefcast connectors authorize <provider>")
		}
		return fmt.Errorf("generation failed: %s", domain.UserMessage(err))
	}

	cmd.Println()
	printBriefing(cmd.OutOrStdout(), rec, false)
	return nil
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

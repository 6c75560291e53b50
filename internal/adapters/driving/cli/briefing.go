package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

var (
	briefingFull     bool
	historyLimit     int
	editTitle        string
	editSectionsFile string
)

var briefingCmd = &cobra.Command{
	Use:   "briefing",
	Short: "Read and edit stored briefings",
}

var briefingTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's briefing",
	RunE:  runBriefingToday,
}

var briefingHistoryCmd = &cobra.Command{
	Use:     "history",
	Short:   "List recent briefings, newest first",
	PreRunE: requireServices,
	RunE:    runBriefingHistory,
}

var briefingEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit today's briefing without regenerating it",
	Long: `Replaces the title and/or sections of today's briefing. Sections are read
from a JSON file holding an array of {"label", "title", "text"} objects.
Audio is left untouched.`,
	Example: `  briefcast briefing edit --title "Monday catch-up"
  briefcast briefing edit --sections sections.json`,
	PreRunE: requireServices,
	RunE:    runBriefingEdit,
}

func init() {
	briefingTodayCmd.Flags().BoolVarP(&briefingFull, "full", "f", false, "print the full script")
	briefingTodayCmd.Flags().StringVar(&remoteURL, "remote", "", "briefcast server URL")
	briefingTodayCmd.Flags().StringVar(&remoteToken, "token", "", "bearer token for --remote")
	briefingHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 7, "number of briefings")
	briefingEditCmd.Flags().StringVar(&editTitle, "title", "", "new title")
	briefingEditCmd.Flags().StringVar(&editSectionsFile, "sections", "", "JSON file with replacement sections")

	briefingCmd.AddCommand(briefingTodayCmd)
	briefingCmd.AddCommand(briefingHistoryCmd)
	briefingCmd.AddCommand(briefingEditCmd)
	rootCmd.AddCommand(briefingCmd)
}

func runBriefingToday(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	remote, err := resolveRemote(remoteURL, remoteToken)
	if err != nil {
		return err
	}

	var rec *domain.BriefingRecord
	if remote != nil {
		// The server answers null when there is no briefing yet.
		if _, err := remote.getJSON(ctx, "/api/briefings/today", &rec); err != nil {
			return err
		}
	} else {
		if err := ensureServices(ctx); err != nil {
			return err
		}
		rec, err = briefingService.Today(ctx, currentUser())
		if err != nil {
			return err
		}
	}

	if rec == nil {
		cmd.Println("No briefing for today yet. Run: briefcast generate")
		return nil
	}
	printBriefing(cmd.OutOrStdout(), rec, briefingFull)
	return nil
}

func runBriefingHistory(cmd *cobra.Command, _ []string) error {
	if briefingService == nil {
		return fmt.Errorf("briefings: %w", errNotConfigured)
	}
	if historyLimit < 1 {
		return fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
	}

	records, err := briefingService.History(commandContext(cmd), currentUser(), historyLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		cmd.Println("No briefings yet.")
		return nil
	}

	cmd.Printf("%-12s %-12s %-8s %s\n", "DATE", "STATUS", "AUDIO", "TITLE")
	for _, rec := range records {
		audio := "no"
		if rec.HasAudio() {
			audio = strconv.Itoa(rec.DurationSeconds) + "s"
		}
		cmd.Printf("%-12s %-12s %-8s %s\n", rec.DateKey, rec.Status, audio, rec.Title)
	}
	return nil
}

func runBriefingEdit(cmd *cobra.Command, _ []string) error {
	if briefingService == nil {
		return fmt.Errorf("briefings: %w", errNotConfigured)
	}

	var edit domain.BriefingEdit
	if cmd.Flags().Changed("title") {
		title := editTitle
		edit.Title = &title
	}
	if editSectionsFile != "" {
		data, err := os.ReadFile(editSectionsFile)
		if err != nil {
			return fmt.Errorf("reading sections: %w", err)
		}
		if err := json.Unmarshal(data, &edit.Sections); err != nil {
			return fmt.Errorf("%w: sections file: %v", domain.ErrInvalidInput, err)
		}
		if edit.Sections == nil {
			edit.Sections = []domain.Section{}
		}
	}
	if edit.IsEmpty() {
		return fmt.Errorf("%w: nothing to change; pass --title or --sections", domain.ErrInvalidInput)
	}

	rec, err := briefingService.SaveEdit(commandContext(cmd), currentUser(), edit)
	if err != nil {
		return err
	}
	cmd.Println("Briefing updated.")
	printBriefing(cmd.OutOrStdout(), rec, false)
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-smash-coach/internal/advisor"
	"github.com/pable/go-smash-coach/internal/engine"
	"github.com/pable/go-smash-coach/internal/ingest"
	"github.com/pable/go-smash-coach/internal/report"
	"github.com/pable/go-smash-coach/internal/storage"
	"github.com/pable/go-smash-coach/internal/trend"
)

var (
	analyzeNoSave bool
	analyzeAI     bool
	analyzeAPIKey string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <readings.json>",
	Short: "Analyze one match from a readings file",
	Long: `Runs the full pipeline over a readings JSON file produced by the frame
extractor: normalization, moment classification, stats, skill profile, habit
detection and opponent scouting. The result is rendered, stored, and compared
against the player's history for the same character.

With --ai and an ANTHROPIC_API_KEY, a grounded coaching summary is attached.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "do not store the analysis")
	analyzeCmd.Flags().BoolVar(&analyzeAI, "ai", false, "attach AI coaching advice (requires ANTHROPIC_API_KEY)")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in, err := ingest.ReadFile(args[0])
	if err != nil {
		return err
	}

	bundle, err := engine.Analyze(cmd.Context(), cfg, in)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	if analyzeAI && bundle.Profiles[0] != nil {
		adv, err := advisor.New(cfg.Advisor, analyzeAPIKey)
		if err != nil {
			return err
		}
		advice, err := adv.Advise(cmd.Context(), bundle)
		if err != nil {
			return fmt.Errorf("AI advice: %w", err)
		}
		bundle.Advice = advice
	}

	report.PrintMatchHeader(os.Stdout, bundle)
	report.PrintStatsTable(os.Stdout, bundle)
	report.PrintProfileTable(os.Stdout, bundle)
	report.PrintMoments(os.Stdout, bundle)
	report.PrintHabits(os.Stdout, bundle.Habits)
	report.PrintScouting(os.Stdout, bundle.Scouting)
	report.PrintFocus(os.Stdout, bundle.Focus)
	report.PrintAdvice(os.Stdout, bundle.Advice)

	if analyzeNoSave {
		return nil
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	// Compare against history before this game is added to it.
	history, err := db.ListProfiles(cmd.Context(), bundle.Players[0].Character)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if bundle.Profiles[0] != nil {
		report.PrintTrend(os.Stdout, trend.Against(history, bundle.Players[0].Character, bundle.Profiles[0]))
	}

	if err := db.SaveBundle(bundle); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\nStored as %s\n", bundle.ID)
	return nil
}

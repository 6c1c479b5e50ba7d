package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-smash-coach/internal/report"
	"github.com/pable/go-smash-coach/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show <id-prefix>",
	Short: "Show a stored analysis by id prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	bundle, err := db.GetBundleByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("find analysis: %w", err)
	}

	report.PrintMatchHeader(os.Stdout, bundle)
	report.PrintStatsTable(os.Stdout, bundle)
	report.PrintProfileTable(os.Stdout, bundle)
	report.PrintMoments(os.Stdout, bundle)
	report.PrintHabits(os.Stdout, bundle.Habits)
	report.PrintScouting(os.Stdout, bundle.Scouting)
	report.PrintFocus(os.Stdout, bundle.Focus)
	report.PrintAdvice(os.Stdout, bundle.Advice)
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-smash-coach/internal/report"
	"github.com/pable/go-smash-coach/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	rows, err := db.ListAnalyses()
	if err != nil {
		return fmt.Errorf("list analyses: %w", err)
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "No analyses stored yet. Run 'smashcoach analyze <readings.json>' to add one.")
		return nil
	}
	report.PrintAnalysisList(os.Stdout, rows)
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-smash-coach/internal/storage"
)

var dropForce bool

// dropCmd deletes one stored analysis, or the whole database with no args.
var dropCmd = &cobra.Command{
	Use:   "drop [id-prefix]",
	Short: "Delete a stored analysis, or the whole database",
	Long:  "With an id prefix, deletes that analysis and its profile history rows. Without arguments, permanently deletes the SQLite database.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		db, err := storage.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer db.Close()
		if err := db.DeleteAnalysis(args[0]); err != nil {
			return fmt.Errorf("delete analysis: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Deleted analysis %s\n", args[0])
		return nil
	}

	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}

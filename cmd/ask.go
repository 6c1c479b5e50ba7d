package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-smash-coach/internal/advisor"
	"github.com/pable/go-smash-coach/internal/storage"
)

var askAPIKey string

var askCmd = &cobra.Command{
	Use:   "ask <id-prefix> <question>",
	Short: "Ask the AI a question about a stored analysis",
	Long:  "Streams a grounded answer about a stored match. The model only sees the analysis digest and is instructed not to invent numbers.",
	Args:  cobra.ExactArgs(2),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	bundle, err := db.GetBundleByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("find analysis: %w", err)
	}

	adv, err := advisor.New(cfg.Advisor, askAPIKey)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")
	if err := adv.Ask(cmd.Context(), bundle, args[1], os.Stdout); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")
	return nil
}

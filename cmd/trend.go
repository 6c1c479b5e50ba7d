package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-smash-coach/internal/model"
	"github.com/pable/go-smash-coach/internal/report"
	"github.com/pable/go-smash-coach/internal/storage"
	"github.com/pable/go-smash-coach/internal/trend"
)

var trendCmd = &cobra.Command{
	Use:   "trend <character>",
	Short: "Skill trend across stored games on one character",
	Long:  "Compares the most recent stored game's metric scores against the average of the earlier games. Needs at least 2 earlier games.",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func runTrend(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	history, err := db.ListProfiles(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(history) == 0 {
		fmt.Fprintf(os.Stdout, "No stored games for %q.\n", args[0])
		return nil
	}

	// The latest game is the subject; everything earlier is the baseline.
	latest := history[len(history)-1]
	current := &model.SkillProfile{
		Player:  model.Player1,
		Overall: latest.Overall,
		Metrics: map[model.MetricID]model.SkillMetric{},
	}
	for id, score := range latest.Metrics {
		current.Metrics[id] = model.SkillMetric{ID: id, Score: score}
	}

	report.PrintTrend(os.Stdout, trend.Against(history[:len(history)-1], args[0], current))
	return nil
}

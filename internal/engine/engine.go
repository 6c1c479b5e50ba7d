// Package engine runs the full analysis pipeline over one match input.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pable/go-smash-coach/internal/aggregator"
	"github.com/pable/go-smash-coach/internal/classifier"
	"github.com/pable/go-smash-coach/internal/config"
	"github.com/pable/go-smash-coach/internal/habits"
	"github.com/pable/go-smash-coach/internal/ingest"
	"github.com/pable/go-smash-coach/internal/model"
	"github.com/pable/go-smash-coach/internal/normalizer"
	"github.com/pable/go-smash-coach/internal/scouting"
	"github.com/pable/go-smash-coach/internal/segmenter"
	"github.com/pable/go-smash-coach/internal/trend"
)

// ErrMalformedInput marks input rejected at the boundary.
var ErrMalformedInput = ingest.ErrMalformed

// Analyze runs normalization, segmentation, classification, aggregation,
// habit detection and scouting over one match. A stream with too little
// signal still yields stats with the low-confidence flag set; only the
// derived layers are skipped.
func Analyze(ctx context.Context, cfg config.Config, in *model.MatchInput) (*model.Bundle, error) {
	if err := ingest.Validate(in); err != nil {
		return nil, err
	}

	norm := normalizer.Normalize(cfg.Normalizer, in)
	changes := segmenter.Segment(cfg.Segmenter, norm.Samples)
	moments := classifier.Classify(cfg.Classifier, norm.Samples, changes)

	stats := aggregator.Stats(cfg, norm.Samples, moments)
	stats.LowConfidence = norm.Insufficient

	bundle := &model.Bundle{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Players:   in.Players,
		Stats:     stats,
		Moments:   moments,
	}

	if norm.Insufficient {
		log.Warn().
			Float64("valid_fraction", norm.ValidFraction).
			Float64("duration", norm.Duration).
			Msg("insufficient signal: skipping skill, habits and scouting")
		return bundle, nil
	}

	for p := 0; p < 2; p++ {
		slot := model.PlayerSlot(p + 1)
		bundle.Profiles[p] = aggregator.Profile(cfg, slot, stats, norm.Samples, moments)
		bundle.Habits = append(bundle.Habits, habits.Detect(cfg, slot, stats, moments)...)
	}

	var oppHabits []model.Habit
	for _, h := range bundle.Habits {
		if h.Player == model.Player2 {
			oppHabits = append(oppHabits, h)
		}
	}
	bundle.Scouting = scouting.Scout(cfg, model.Player2, in.Players[1].Character, stats, moments, oppHabits)
	bundle.Focus = scouting.FocusAreas(cfg, bundle.Profiles[0])

	log.Info().
		Str("id", bundle.ID).
		Int("moments", len(moments)).
		Int("habits", len(bundle.Habits)).
		Str("winner", bundle.Stats.Winner.String()).
		Msg("analysis complete")
	return bundle, nil
}

// Trends compares the analyzed player's profile against stored history for
// their character. A nil report means there is not enough history yet.
func Trends(ctx context.Context, store trend.ProfileStore, bundle *model.Bundle) (*model.TrendReport, error) {
	if bundle == nil || bundle.Profiles[0] == nil {
		return nil, nil
	}
	return trend.Compute(ctx, store, bundle.Players[0].Character, bundle.Profiles[0])
}

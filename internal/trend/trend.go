// Package trend compares a player's latest skill profile against their stored
// history for the same character.
package trend

import (
	"context"
	"fmt"
	"time"

	"github.com/pable/go-smash-coach/internal/model"
)

// HistoryMinimum is the number of stored games needed before a trend means
// anything.
const HistoryMinimum = 2

// StoredProfile is one historical game's scores as kept by the store.
type StoredProfile struct {
	CreatedAt time.Time
	Won       bool
	Overall   float64
	Metrics   map[model.MetricID]float64
}

// ProfileStore serves historical profiles for a character, oldest first.
type ProfileStore interface {
	ListProfiles(ctx context.Context, character string) ([]StoredProfile, error)
}

// Compute builds the trend report for the current profile against history.
// Fewer than HistoryMinimum stored games is not an error; the report is nil.
func Compute(ctx context.Context, store ProfileStore, character string, current *model.SkillProfile) (*model.TrendReport, error) {
	history, err := store.ListProfiles(ctx, character)
	if err != nil {
		return nil, fmt.Errorf("loading profile history for %s: %w", character, err)
	}
	return Against(history, character, current), nil
}

// Against is the pure comparison, split out for callers that already hold the
// history.
func Against(history []StoredProfile, character string, current *model.SkillProfile) *model.TrendReport {
	if len(history) < HistoryMinimum || current == nil {
		return nil
	}

	wins := 0
	baseline := make(map[model.MetricID]float64, len(model.MetricOrder))
	for _, h := range history {
		if h.Won {
			wins++
		}
		for id, score := range h.Metrics {
			baseline[id] += score
		}
	}

	rep := &model.TrendReport{
		Character: character,
		Games:     len(history),
		WinRate:   float64(wins) / float64(len(history)),
	}
	for _, id := range model.MetricOrder {
		cur, ok := current.Metrics[id]
		if !ok {
			continue
		}
		base := baseline[id] / float64(len(history))
		rep.Metrics = append(rep.Metrics, model.MetricTrend{
			Metric:   id,
			Current:  cur.Score,
			Baseline: base,
			Delta:    cur.Score - base,
		})
	}
	return rep
}

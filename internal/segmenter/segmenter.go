// Package segmenter walks the normalized sample stream and extracts atomic
// state changes, merging bursts of same-kind changes that land inside the
// coalescing window.
package segmenter

import (
	"github.com/pable/go-smash-coach/internal/config"
	"github.com/pable/go-smash-coach/internal/model"
)

// Segment diffs consecutive samples into AtomicChanges. Percent increases for
// the same player within the coalescing window merge into one change with the
// magnitudes summed and the later timestamp kept. A stock loss resets the
// victim's percent baseline, so the first reading of the new stock never
// registers as a change.
func Segment(cfg config.Segmenter, samples []model.Sample) []model.AtomicChange {
	if len(samples) < 2 {
		return nil
	}

	var changes []model.AtomicChange
	// last index per (player, kind) eligible for merging
	lastIncrease := [2]int{-1, -1}

	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		for p := range cur.Percent {
			slot := model.PlayerSlot(p + 1)

			if cur.Stocks[p] < prev.Stocks[p] {
				changes = append(changes, model.AtomicChange{
					Kind:      model.StockLoss,
					Player:    slot,
					Time:      cur.Timestamp,
					Magnitude: float64(prev.Stocks[p] - cur.Stocks[p]),
				})
				if cur.Percent[p] < prev.Percent[p] {
					changes = append(changes, model.AtomicChange{
						Kind:      model.PercentReset,
						Player:    slot,
						Time:      cur.Timestamp,
						Magnitude: prev.Percent[p],
					})
				}
				lastIncrease[p] = -1
				continue
			}

			if delta := cur.Percent[p] - prev.Percent[p]; delta > 0 {
				if j := lastIncrease[p]; j >= 0 && cur.Timestamp-changes[j].Time < cfg.CoalesceWindow {
					changes[j].Magnitude += delta
					changes[j].Time = cur.Timestamp
					continue
				}
				changes = append(changes, model.AtomicChange{
					Kind:      model.PercentIncrease,
					Player:    slot,
					Time:      cur.Timestamp,
					Magnitude: delta,
				})
				lastIncrease[p] = len(changes) - 1
			}
		}
	}
	return changes
}

// Package habits finds recurring negative patterns in a player's match. A
// pattern only becomes a habit once it repeats; single occurrences stay noise.
package habits

import (
	"fmt"
	"math"

	"github.com/pable/go-smash-coach/internal/config"
	"github.com/pable/go-smash-coach/internal/model"
)

// Detect runs every detector for one player and returns the habits that
// cleared the occurrence floor.
func Detect(cfg config.Config, player model.PlayerSlot, stats model.MatchStats, moments []model.Moment) []model.Habit {
	var out []model.Habit
	detectors := []func(config.Config, model.PlayerSlot, model.MatchStats, []model.Moment) *model.Habit{
		edgeguardDeaths,
		narrowDeathRange,
		postDeathPanic,
		killFishing,
		earlyDeaths,
		neutralTendency,
	}
	for _, d := range detectors {
		if h := d(cfg, player, stats, moments); h != nil && h.Occurrences >= cfg.Habits.MinOccurrences {
			h.Player = player
			h.Severity = severity(h.Occurrences)
			out = append(out, *h)
		}
	}
	return out
}

func severity(occurrences int) model.Severity {
	switch {
	case occurrences >= 4:
		return model.SeverityMajor
	case occurrences >= 3:
		return model.SeverityModerate
	default:
		return model.SeverityMinor
	}
}

// edgeguardDeaths: dying offstage to the same situation means the recovery is
// being read.
func edgeguardDeaths(_ config.Config, player model.PlayerSlot, _ model.MatchStats, moments []model.Moment) *model.Habit {
	var ev []string
	for _, m := range moments {
		if m.Kind == model.MomentEdgeguardKill && m.Victim == player {
			ev = append(ev, fmt.Sprintf("edgeguarded at %.0f%% (t=%.0fs)", m.Magnitude, m.Start))
		}
	}
	if len(ev) == 0 {
		return nil
	}
	return &model.Habit{
		ID:          "predictable_recovery",
		Label:       "Predictable recovery",
		Occurrences: len(ev),
		Evidence:    ev,
		Suggestion:  fmt.Sprintf("You were edgeguarded %d times. Mix up recovery timing and angles; save your double jump.", len(ev)),
	}
}

// narrowDeathRange: dying in the same percent band every stock means the
// opponent's kill setup works every time.
func narrowDeathRange(cfg config.Config, player model.PlayerSlot, stats model.MatchStats, _ []model.Moment) *model.Habit {
	deaths := stats.Players[int(player.Opponent())-1].KillPercents
	if len(deaths) < 2 {
		return nil
	}
	sd := stdev(deaths)
	if sd >= cfg.Habits.DeathRangeStdev {
		return nil
	}
	var ev []string
	for _, d := range deaths {
		ev = append(ev, fmt.Sprintf("died at %.0f%%", d))
	}
	return &model.Habit{
		ID:          "narrow_death_range",
		Label:       "Dying in the same percent range",
		Occurrences: len(deaths),
		Evidence:    ev,
		Suggestion:  fmt.Sprintf("All %d deaths landed within a %.0f%% spread. That kill setup is working every time; change your defensive option at that percent.", len(deaths), sd*2),
	}
}

// postDeathPanic: eating damage immediately after respawning.
func postDeathPanic(cfg config.Config, player model.PlayerSlot, _ model.MatchStats, moments []model.Moment) *model.Habit {
	var ev []string
	for _, m := range moments {
		if (m.Kind != model.MomentStockLoss && m.Kind != model.MomentEdgeguardKill) || m.Victim != player {
			continue
		}
		var taken float64
		for _, d := range moments {
			if d.Victim == player && (d.Kind == model.MomentDamage || d.Kind == model.MomentCombo) &&
				d.Start > m.End && d.Start <= m.End+cfg.Habits.PanicWindow {
				taken += d.Magnitude
			}
		}
		if taken >= cfg.Habits.PanicDamageMin {
			ev = append(ev, fmt.Sprintf("%.0f%% taken within %.0fs of respawn at t=%.0fs", taken, cfg.Habits.PanicWindow, m.End))
		}
	}
	if len(ev) == 0 {
		return nil
	}
	return &model.Habit{
		ID:          "post_death_panic",
		Label:       "Rushing back in after deaths",
		Occurrences: len(ev),
		Evidence:    ev,
		Suggestion:  "Use invincibility frames to reset to a safe position instead of challenging immediately.",
	}
}

// killFishing: kills keep landing in the same narrow high-percent band, a sign
// of waiting on one move instead of taking the stock earlier.
func killFishing(cfg config.Config, player model.PlayerSlot, stats model.MatchStats, _ []model.Moment) *model.Habit {
	var high []float64
	for _, kp := range stats.Players[int(player)-1].KillPercents {
		if kp > cfg.Habits.KillFishPercent {
			high = append(high, kp)
		}
	}
	if len(high) < 2 || stdev(high) >= cfg.Habits.KillFishStdev {
		return nil
	}
	var ev []string
	for _, kp := range high {
		ev = append(ev, fmt.Sprintf("kill at %.0f%%", kp))
	}
	return &model.Habit{
		ID:          "kill_fishing",
		Label:       "Fishing for the same kill move",
		Occurrences: len(high),
		Evidence:    ev,
		Suggestion:  "Kills are coming very late in a tight band. Look for earlier kill confirms instead of waiting on one option.",
	}
}

// earlyDeaths: losing stocks well before the expected percent.
func earlyDeaths(cfg config.Config, player model.PlayerSlot, stats model.MatchStats, _ []model.Moment) *model.Habit {
	var ev []string
	for _, d := range stats.Players[int(player.Opponent())-1].KillPercents {
		if d < cfg.Classifier.EarlyKillPercent {
			ev = append(ev, fmt.Sprintf("died at %.0f%%", d))
		}
	}
	if len(ev) == 0 {
		return nil
	}
	return &model.Habit{
		ID:          "early_deaths",
		Label:       "Losing stocks early",
		Occurrences: len(ev),
		Evidence:    ev,
		Suggestion:  fmt.Sprintf("%d stocks lost below %.0f%%. Respect kill moves at low percent near the ledge.", len(ev), cfg.Classifier.EarlyKillPercent),
	}
}

// neutralTendency: opening-count imbalance across repeated neutral stretches
// marks a passive or overextending style.
func neutralTendency(_ config.Config, player model.PlayerSlot, stats model.MatchStats, moments []model.Moment) *model.Habit {
	neutrals := 0
	for _, m := range moments {
		if m.Kind == model.MomentNeutral {
			neutrals++
		}
	}
	if neutrals < 2 {
		return nil
	}
	own := stats.Players[int(player)-1].Openings
	opp := stats.Players[int(player.Opponent())-1].Openings
	if own == 0 && opp == 0 {
		return nil
	}
	ratio := float64(own+1) / float64(opp+1)
	switch {
	case ratio < 0.5:
		return &model.Habit{
			ID:          "passive_neutral",
			Label:       "Giving up neutral",
			Occurrences: neutrals,
			Evidence:    []string{fmt.Sprintf("%d openings created vs %d conceded across %d neutral stretches", own, opp, neutrals)},
			Suggestion:  "The opponent is starting most exchanges. Claim stage ground and threaten first instead of waiting.",
		}
	case ratio > 2.0:
		return &model.Habit{
			ID:          "overaggressive_neutral",
			Label:       "Overextending in neutral",
			Occurrences: neutrals,
			Evidence:    []string{fmt.Sprintf("%d openings forced vs %d conceded across %d neutral stretches", own, opp, neutrals)},
			Suggestion:  "High opening count with heavy damage taken means overcommitting. Take the first hit and reset instead of chasing.",
		}
	}
	return nil
}

func stdev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var mean float64
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	var ss float64
	for _, v := range vals {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(vals)))
}

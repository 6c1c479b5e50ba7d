// Package scouting builds the opponent report and the ranked focus areas.
package scouting

import (
	"fmt"
	"sort"

	"github.com/pable/go-smash-coach/internal/characters"
	"github.com/pable/go-smash-coach/internal/config"
	"github.com/pable/go-smash-coach/internal/model"
)

// Scout summarizes the opponent: how and where their stocks went, how they
// play neutral, and what in their habits can be attacked next game.
func Scout(cfg config.Config, opponent model.PlayerSlot, character string, stats model.MatchStats, moments []model.Moment, oppHabits []model.Habit) *model.OpponentReport {
	rep := &model.OpponentReport{
		Player:    opponent,
		Character: character,
	}

	for _, m := range moments {
		if (m.Kind != model.MomentStockLoss && m.Kind != model.MomentEdgeguardKill) || m.Victim != opponent {
			continue
		}
		cause := "stray hit"
		if m.Kind == model.MomentEdgeguardKill {
			cause = "edgeguard"
		} else if fedByCombo(moments, m) {
			cause = "combo"
		}
		rep.Deaths = append(rep.Deaths, model.DeathRecord{
			Time:      m.Start,
			Percent:   m.Magnitude,
			Cause:     cause,
			EarlyKill: m.Magnitude < cfg.Classifier.EarlyKillPercent,
		})
	}
	sort.Slice(rep.Deaths, func(i, j int) bool { return rep.Deaths[i].Percent < rep.Deaths[j].Percent })

	if n := len(rep.Deaths); n > 0 {
		var sum float64
		for _, d := range rep.Deaths {
			sum += d.Percent
		}
		rep.AvgKillPercent = sum / float64(n)
	}

	rep.NeutralStyle = neutralStyle(stats, opponent)

	for _, h := range oppHabits {
		rep.Exploitable = append(rep.Exploitable, fmt.Sprintf("%s (%dx): %s", h.Label, h.Occurrences, h.Evidence[0]))
	}
	rep.CharacterTips = characters.TipsAgainst(character)
	return rep
}

func fedByCombo(moments []model.Moment, kill model.Moment) bool {
	for _, m := range moments {
		if m.Kind == model.MomentCombo && m.Victim == kill.Victim && m.End <= kill.Start && kill.Start-m.End <= 3.0 {
			return true
		}
	}
	return false
}

func neutralStyle(stats model.MatchStats, player model.PlayerSlot) string {
	own := stats.Players[int(player)-1].Openings
	opp := stats.Players[int(player.Opponent())-1].Openings
	ratio := float64(own+1) / float64(opp+1)
	switch {
	case ratio > 1.5:
		return "aggressive: starts most exchanges"
	case ratio < 0.67:
		return "passive: waits for your commitment"
	default:
		return "balanced"
	}
}

// FocusAreas ranks the player's weakest metrics, each with the literal match
// evidence and a concrete drill.
func FocusAreas(cfg config.Config, profile *model.SkillProfile) []model.FocusArea {
	if profile == nil {
		return nil
	}
	n := cfg.Skill.TopN
	if n > len(profile.Weaknesses) {
		n = len(profile.Weaknesses)
	}
	out := make([]model.FocusArea, 0, n)
	for i := 0; i < n; i++ {
		id := profile.Weaknesses[i]
		out = append(out, model.FocusArea{
			Rank:     i + 1,
			Metric:   id,
			Evidence: profile.Metrics[id].Evidence,
			Drill:    drills[id],
		})
	}
	return out
}

var drills = map[model.MetricID]string{
	model.MetricDamagePerOpening:       "After every opening hit in training, commit to a full follow-up string before resetting.",
	model.MetricKillEfficiency:         "Pick two kill confirms for your character and drill them until they come out on reaction.",
	model.MetricEdgeguardRate:          "Chase every offstage opponent in friendlies for a week, even when it feels risky.",
	model.MetricDeathPercent:           "Practice surviving disadvantage: DI away, mix recovery timing, burn resources late.",
	model.MetricPostDeathVulnerability: "After each death in friendlies, force yourself to land and shield once before engaging.",
	model.MetricComboQuality:           "Lab your bread-and-butter strings at 0%, 60% and 100% so conversions never drop.",
	model.MetricNeutralDuration:        "Play one game using only safe pokes; learn which buttons win neutral without commitment.",
	model.MetricLeadConversion:         "When ahead, practice holding center stage and letting the opponent approach into traps.",
}

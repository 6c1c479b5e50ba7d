// Package aggregator reduces the Moment timeline into match stats and the
// per-player skill profile.
package aggregator

import (
	"fmt"
	"math"
	"sort"

	"github.com/pable/go-smash-coach/internal/config"
	"github.com/pable/go-smash-coach/internal/model"
)

// Stats builds MatchStats from the normalized samples and classified moments.
func Stats(cfg config.Config, samples []model.Sample, moments []model.Moment) model.MatchStats {
	var stats model.MatchStats
	if len(samples) == 0 {
		stats.WinnerMethod = model.WinUndetermined
		return stats
	}
	stats.Duration = samples[len(samples)-1].Timestamp - samples[0].Timestamp

	for _, s := range samples {
		for p := 0; p < 2; p++ {
			if s.Percent[p] > stats.Players[p].MaxPercent {
				stats.Players[p].MaxPercent = s.Percent[p]
			}
		}
	}

	// ---- Pass 1: damage, combos, kills ----
	for _, m := range moments {
		a, v := int(m.Actor)-1, int(m.Victim)-1
		switch m.Kind {
		case model.MomentDamage:
			stats.Players[a].DamageDealt += m.Magnitude
			stats.Players[v].DamageTaken += m.Magnitude
		case model.MomentCombo:
			stats.Players[a].DamageDealt += m.Magnitude
			stats.Players[v].DamageTaken += m.Magnitude
			stats.Players[a].Combos++
			stats.Players[a].ComboDamage += m.Magnitude
		case model.MomentStockLoss, model.MomentEdgeguardKill:
			stats.Players[v].StocksLost++
			stats.Players[a].KillPercents = append(stats.Players[a].KillPercents, m.Magnitude)
		}
	}

	// ---- Pass 2: openings, one per distinct damage run ----
	for p := 0; p < 2; p++ {
		stats.Players[p].Openings = countOpenings(cfg.Classifier, moments, model.PlayerSlot(p+1))
	}

	// ---- Pass 3: neutral wins, first hit after each neutral stretch ----
	for i, m := range moments {
		if m.Kind != model.MomentNeutral {
			continue
		}
		for _, next := range moments[i+1:] {
			if next.Actor == model.PlayerNone || next.Start < m.End {
				continue
			}
			stats.Players[int(next.Actor)-1].NeutralWins++
			break
		}
	}

	// ---- Pass 4: winner ----
	last := samples[len(samples)-1]
	switch {
	case last.Stocks[0] == 0 && last.Stocks[1] > 0:
		stats.Winner, stats.WinnerMethod = model.Player2, model.WinByStocks
	case last.Stocks[1] == 0 && last.Stocks[0] > 0:
		stats.Winner, stats.WinnerMethod = model.Player1, model.WinByStocks
	case last.Stocks[0] != last.Stocks[1]:
		stats.Truncated = true
		if last.Stocks[0] > last.Stocks[1] {
			stats.Winner = model.Player1
		} else {
			stats.Winner = model.Player2
		}
		stats.WinnerMethod = model.WinByStocks
	case stats.Players[0].DamageTaken != stats.Players[1].DamageTaken:
		stats.Truncated = true
		if stats.Players[0].DamageTaken < stats.Players[1].DamageTaken {
			stats.Winner = model.Player1
		} else {
			stats.Winner = model.Player2
		}
		stats.WinnerMethod = model.WinByDamage
	default:
		stats.Truncated = true
		stats.WinnerMethod = model.WinUndetermined
	}
	return stats
}

// countOpenings groups an attacker's damage and combo moments into runs
// separated by more than the combo window. Each run is one opening.
func countOpenings(cfg config.Classifier, moments []model.Moment, attacker model.PlayerSlot) int {
	openings := 0
	lastEnd := math.Inf(-1)
	for _, m := range moments {
		if m.Actor != attacker || (m.Kind != model.MomentDamage && m.Kind != model.MomentCombo) {
			continue
		}
		if m.Start-lastEnd > cfg.ComboWindow {
			openings++
		}
		if m.End > lastEnd {
			lastEnd = m.End
		}
	}
	return openings
}

// Profile scores a player's eight skill metrics from the match evidence.
func Profile(cfg config.Config, player model.PlayerSlot, stats model.MatchStats, samples []model.Sample, moments []model.Moment) *model.SkillProfile {
	p := int(player) - 1
	o := 1 - p
	own := stats.Players[p]
	opp := stats.Players[o]

	metrics := make(map[model.MetricID]model.SkillMetric, len(model.MetricOrder))
	add := func(id model.MetricID, raw, score float64, evidence string) {
		metrics[id] = model.SkillMetric{ID: id, Raw: raw, Score: clamp(score, 0, 100), Evidence: evidence}
	}
	// addNoData fills a metric with a neutral default when the match produced
	// no evidence for it. Ungraded metrics never rank as strengths or
	// weaknesses.
	ungraded := make(map[model.MetricID]bool)
	addNoData := func(id model.MetricID, score float64, evidence string) {
		ungraded[id] = true
		metrics[id] = model.SkillMetric{ID: id, Score: score, Evidence: evidence}
	}

	// damage per opening
	if own.Openings > 0 {
		dpo := own.DamageDealt / float64(own.Openings)
		add(model.MetricDamagePerOpening, dpo,
			rescale(dpo, anchors{{0, 0}, {5, 20}, {12, 60}, {18, 85}, {25, 100}}),
			fmt.Sprintf("%.1f%% per opening over %d openings", dpo, own.Openings))
	} else {
		addNoData(model.MetricDamagePerOpening, 0, "no openings recorded")
	}

	// kill efficiency: killing at lower percents is better
	if kp := own.AvgKillPercent(); len(own.KillPercents) > 0 {
		add(model.MetricKillEfficiency, kp,
			rescale(kp, anchors{{90, 100}, {120, 70}, {150, 40}, {180, 10}}),
			fmt.Sprintf("kills at %.0f%% on average (%d kills)", kp, len(own.KillPercents)))
	} else {
		addNoData(model.MetricKillEfficiency, 30, "no kills secured")
	}

	// edgeguard rate
	eg := 0
	for _, m := range moments {
		if m.Kind == model.MomentEdgeguardKill && m.Actor == player {
			eg++
		}
	}
	if kills := len(own.KillPercents); kills > 0 {
		rate := float64(eg) / float64(kills)
		add(model.MetricEdgeguardRate, rate,
			rescale(rate, anchors{{0, 30}, {0.25, 60}, {0.5, 85}, {0.75, 100}}),
			fmt.Sprintf("%d of %d kills offstage", eg, kills))
	} else {
		addNoData(model.MetricEdgeguardRate, 50, "no kills to evaluate")
	}

	// death percent: surviving to higher percents is better
	if deaths := opp.KillPercents; len(deaths) > 0 {
		var sum float64
		for _, d := range deaths {
			sum += d
		}
		avg := sum / float64(len(deaths))
		add(model.MetricDeathPercent, avg,
			rescale(avg, anchors{{40, 10}, {60, 20}, {100, 60}, {130, 85}, {160, 100}}),
			fmt.Sprintf("died at %.0f%% on average (%d deaths)", avg, len(deaths)))
	} else {
		addNoData(model.MetricDeathPercent, 100, "no stocks lost")
	}

	// post-death vulnerability: damage eaten right after respawning
	pdv, respawns := respawnDamage(cfg.Habits.PanicWindow, player, moments)
	if respawns > 0 {
		add(model.MetricPostDeathVulnerability, pdv,
			rescale(pdv, anchors{{0, 100}, {15, 70}, {30, 40}, {50, 10}}),
			fmt.Sprintf("%.0f%% taken within %.0fs of respawn", pdv, cfg.Habits.PanicWindow))
	} else {
		addNoData(model.MetricPostDeathVulnerability, 100, "no respawns")
	}

	// combo quality
	if own.Combos > 0 {
		avg := own.AvgComboDamage()
		add(model.MetricComboQuality, avg,
			rescale(avg, anchors{{10, 35}, {15, 50}, {30, 75}, {45, 95}, {60, 100}}),
			fmt.Sprintf("%.0f%% per combo over %d combos", avg, own.Combos))
	} else {
		addNoData(model.MetricComboQuality, 30, "no combos landed")
	}

	// neutral duration: long stalemates read as indecision
	if avg, n := avgNeutral(moments); n > 0 {
		add(model.MetricNeutralDuration, avg,
			rescale(avg, anchors{{6, 85}, {12, 65}, {20, 45}, {30, 25}}),
			fmt.Sprintf("%.1fs average neutral over %d stretches", avg, n))
	} else {
		addNoData(model.MetricNeutralDuration, 70, "no extended neutral")
	}

	// lead conversion: share of damage dealt while holding a stock lead
	if ratio, ok := leadDamageShare(player, samples, moments); ok {
		add(model.MetricLeadConversion, ratio,
			rescale(ratio, anchors{{0, 30}, {0.5, 65}, {0.8, 90}, {1, 100}}),
			fmt.Sprintf("%.0f%% of damage dealt while ahead", ratio*100))
	} else {
		addNoData(model.MetricLeadConversion, 50, "never held a stock lead")
	}

	overall := Overall(cfg.Skill.Weights, metrics)
	strengths, weaknesses := rank(cfg.Skill, metrics, ungraded)

	return &model.SkillProfile{
		Player:     player,
		Metrics:    metrics,
		Overall:    overall,
		Tier:       cfg.Skill.Tier(overall),
		Confidence: confidence(cfg, stats, moments),
		Strengths:  strengths,
		Weaknesses: weaknesses,
	}
}

// Overall is the fixed-weight mean of the metric scores.
func Overall(weights map[model.MetricID]float64, metrics map[model.MetricID]model.SkillMetric) float64 {
	var sum float64
	for id, w := range weights {
		sum += w * metrics[id].Score
	}
	return sum
}

// confidence grows with event density and match length, capped for short or
// low-confidence streams.
func confidence(cfg config.Config, stats model.MatchStats, moments []model.Moment) float64 {
	events := 0
	for _, m := range moments {
		if m.Kind != model.MomentNeutral {
			events++
		}
	}
	conf := clamp(0.35+0.25*math.Min(1, float64(events)/40)+0.4*math.Min(1, stats.Duration/180), 0, 1)
	if stats.Duration < cfg.Normalizer.MinDuration || stats.LowConfidence {
		conf = math.Min(conf, cfg.Skill.ShortMatchConfidence)
	}
	return conf
}

// rank picks strengths and weaknesses from the metrics the match actually
// produced evidence for. A strength must clear the strength floor and a
// weakness must sit under the weakness ceiling; metrics without evidence
// never rank.
func rank(cfg config.Skill, metrics map[model.MetricID]model.SkillMetric, ungraded map[model.MetricID]bool) (strengths, weaknesses []model.MetricID) {
	ids := make([]model.MetricID, 0, len(metrics))
	for _, id := range model.MetricOrder {
		if _, ok := metrics[id]; ok && !ungraded[id] {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool { return metrics[ids[i]].Score > metrics[ids[j]].Score })
	for _, id := range ids {
		if len(strengths) == cfg.TopN || metrics[id].Score < cfg.StrengthFloor {
			break
		}
		strengths = append(strengths, id)
	}
	taken := make(map[model.MetricID]bool, len(strengths))
	for _, id := range strengths {
		taken[id] = true
	}
	for i := len(ids) - 1; i >= 0 && len(weaknesses) < cfg.TopN; i-- {
		id := ids[i]
		if metrics[id].Score >= cfg.WeaknessCeiling {
			break
		}
		if !taken[id] {
			weaknesses = append(weaknesses, id)
		}
	}
	return strengths, weaknesses
}

// respawnDamage averages the damage a player takes inside the window after
// each of their stock losses.
func respawnDamage(window float64, player model.PlayerSlot, moments []model.Moment) (avg float64, respawns int) {
	var total float64
	for _, m := range moments {
		if (m.Kind != model.MomentStockLoss && m.Kind != model.MomentEdgeguardKill) || m.Victim != player {
			continue
		}
		respawns++
		for _, d := range moments {
			if d.Victim != player || (d.Kind != model.MomentDamage && d.Kind != model.MomentCombo) {
				continue
			}
			if d.Start > m.End && d.Start <= m.End+window {
				total += d.Magnitude
			}
		}
	}
	if respawns == 0 {
		return 0, 0
	}
	return total / float64(respawns), respawns
}

func avgNeutral(moments []model.Moment) (avg float64, n int) {
	var total float64
	for _, m := range moments {
		if m.Kind == model.MomentNeutral {
			total += m.Duration()
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return total / float64(n), n
}

// leadDamageShare computes how much of a player's damage landed while they
// held a stock lead. ok is false when they never led.
func leadDamageShare(player model.PlayerSlot, samples []model.Sample, moments []model.Moment) (ratio float64, ok bool) {
	p := int(player) - 1
	led := false
	var while, total float64
	for _, m := range moments {
		if m.Actor != player || (m.Kind != model.MomentDamage && m.Kind != model.MomentCombo) {
			continue
		}
		total += m.Magnitude
		s := sampleBefore(samples, m.Start)
		if s.Stocks[p] > s.Stocks[1-p] {
			led = true
			while += m.Magnitude
		}
	}
	if !led {
		for _, s := range samples {
			if s.Stocks[p] > s.Stocks[1-p] {
				led = true
				break
			}
		}
	}
	if !led {
		return 0, false
	}
	if total == 0 {
		return 0, true
	}
	return while / total, true
}

func sampleBefore(samples []model.Sample, t float64) model.Sample {
	idx := sort.Search(len(samples), func(i int) bool { return samples[i].Timestamp > t })
	if idx > 0 {
		idx--
	}
	return samples[idx]
}

type anchors [][2]float64

// rescale maps raw onto the score axis by linear interpolation between the
// anchor points, clamping outside the range.
func rescale(raw float64, a anchors) float64 {
	if raw <= a[0][0] {
		return a[0][1]
	}
	for i := 1; i < len(a); i++ {
		if raw <= a[i][0] {
			span := a[i][0] - a[i-1][0]
			frac := (raw - a[i-1][0]) / span
			return a[i-1][1] + frac*(a[i][1]-a[i-1][1])
		}
	}
	return a[len(a)-1][1]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

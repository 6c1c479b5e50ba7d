// Package classifier turns atomic changes into classified Moments: combos,
// stock losses, edgeguard kills, neutral stretches and momentum shifts.
package classifier

import (
	"fmt"
	"sort"

	"github.com/pable/go-smash-coach/internal/config"
	"github.com/pable/go-smash-coach/internal/model"
)

// Classify produces the Moment timeline for a match. Samples are the
// normalized stream the changes were segmented from; evidence indices refer
// into it. The returned moments are sorted by start time.
func Classify(cfg config.Classifier, samples []model.Sample, changes []model.AtomicChange) []model.Moment {
	if len(samples) == 0 {
		return nil
	}

	var moments []model.Moment

	// ---- Pass 1: damage and combos, per victim ----
	for p := 0; p < 2; p++ {
		victim := model.PlayerSlot(p + 1)
		moments = append(moments, damageMoments(cfg, samples, changes, victim)...)
	}

	// ---- Pass 2: stock losses, upgraded to edgeguards when the kill
	// sequence fits the pattern ----
	for _, ch := range changes {
		if ch.Kind != model.StockLoss {
			continue
		}
		moments = append(moments, killMoment(cfg, samples, changes, ch))
	}

	// ---- Pass 3: neutral stretches between changes ----
	moments = append(moments, neutralMoments(cfg, samples, changes)...)

	// ---- Pass 4: momentum shifts from windowed damage differential ----
	moments = append(moments, momentumShifts(cfg, samples, changes)...)

	sort.SliceStable(moments, func(i, j int) bool { return moments[i].Start < moments[j].Start })
	return moments
}

// damageMoments groups a victim's percent increases into runs separated by
// more than the combo window. Runs at or above the minimum hit count become a
// single combo moment; shorter runs stay individual damage moments.
func damageMoments(cfg config.Classifier, samples []model.Sample, changes []model.AtomicChange, victim model.PlayerSlot) []model.Moment {
	var hits []model.AtomicChange
	for _, ch := range changes {
		if ch.Kind == model.PercentIncrease && ch.Player == victim {
			hits = append(hits, ch)
		}
	}
	if len(hits) == 0 {
		return nil
	}

	var out []model.Moment
	flush := func(run []model.AtomicChange) {
		var total float64
		for _, h := range run {
			total += h.Magnitude
		}
		start, end := run[0].Time, run[len(run)-1].Time
		ev := model.Evidence{
			SampleStart: sampleAt(samples, start),
			SampleEnd:   sampleAt(samples, end),
			Stats:       []string{fmt.Sprintf("%d hits, %.0f%% total", len(run), total)},
		}
		if len(run) >= cfg.ComboMinHits {
			out = append(out, model.Moment{
				Kind:        model.MomentCombo,
				Actor:       victim.Opponent(),
				Victim:      victim,
				Start:       start,
				End:         end,
				Magnitude:   total,
				Severity:    model.MomentNotable,
				Description: fmt.Sprintf("%s combo on %s for %.0f%% (%d hits)", victim.Opponent(), victim, total, len(run)),
				Evidence:    ev,
			})
			return
		}
		for _, h := range run {
			out = append(out, model.Moment{
				Kind:        model.MomentDamage,
				Actor:       victim.Opponent(),
				Victim:      victim,
				Start:       h.Time,
				End:         h.Time,
				Magnitude:   h.Magnitude,
				Severity:    model.MomentInfo,
				Description: fmt.Sprintf("%s hits %s for %.0f%%", victim.Opponent(), victim, h.Magnitude),
				Evidence: model.Evidence{
					SampleStart: sampleAt(samples, h.Time),
					SampleEnd:   sampleAt(samples, h.Time),
				},
			})
		}
	}

	run := []model.AtomicChange{hits[0]}
	for _, h := range hits[1:] {
		if h.Time-run[len(run)-1].Time <= cfg.ComboWindow {
			run = append(run, h)
			continue
		}
		flush(run)
		run = []model.AtomicChange{h}
	}
	flush(run)
	return out
}

// killMoment records a stock loss with the victim's percent at death and
// checks the edgeguard pattern: kill percent inside the band, little damage
// dealt in the lookback, the attacker barely touched, and no combo feeding
// into the kill. Three of the four criteria make it an edgeguard.
func killMoment(cfg config.Classifier, samples []model.Sample, changes []model.AtomicChange, kill model.AtomicChange) model.Moment {
	victim := kill.Player
	attacker := victim.Opponent()
	killPct := percentBefore(samples, victim, kill.Time)

	winStart := kill.Time - cfg.EdgeguardWindow
	preDmg := damageIn(changes, victim, winStart, kill.Time)
	selfDmg := damageIn(changes, attacker, winStart, kill.Time)

	score := 0
	if killPct >= cfg.EdgeguardMinKill && killPct <= cfg.EdgeguardMaxKill {
		score++
	}
	if preDmg < cfg.EdgeguardPreDmg {
		score++
	}
	if selfDmg <= cfg.EdgeguardSelfDmg {
		score++
	}
	if !comboEndedIn(changes, cfg, victim, winStart, kill.Time) {
		score++
	}

	m := model.Moment{
		Kind:      model.MomentStockLoss,
		Actor:     attacker,
		Victim:    victim,
		Start:     kill.Time,
		End:       kill.Time,
		Magnitude: killPct,
		Severity:  model.MomentHigh,
		Evidence: model.Evidence{
			SampleStart: sampleAt(samples, kill.Time),
			SampleEnd:   sampleAt(samples, kill.Time),
			Stats:       []string{fmt.Sprintf("died at %.0f%%", killPct)},
		},
	}
	if score >= 3 {
		m.Kind = model.MomentEdgeguardKill
		m.Description = fmt.Sprintf("%s edgeguards %s at %.0f%%", attacker, victim, killPct)
		m.Evidence.Stats = append(m.Evidence.Stats,
			fmt.Sprintf("%.0f%% dealt in prior %.0fs, %.0f%% taken", preDmg, cfg.EdgeguardWindow, selfDmg))
	} else {
		m.Description = fmt.Sprintf("%s takes %s's stock at %.0f%%", attacker, victim, killPct)
	}
	if killPct < cfg.EarlyKillPercent {
		m.Priority = true
		m.Evidence.Stats = append(m.Evidence.Stats, "early kill")
	}
	return m
}

// neutralMoments emits a moment for every stretch with no changes at all,
// including the spans before the first change and after the last one.
func neutralMoments(cfg config.Classifier, samples []model.Sample, changes []model.AtomicChange) []model.Moment {
	start := samples[0].Timestamp
	end := samples[len(samples)-1].Timestamp

	bounds := []float64{start}
	for _, ch := range changes {
		bounds = append(bounds, ch.Time)
	}
	bounds = append(bounds, end)

	var out []model.Moment
	for i := 1; i < len(bounds); i++ {
		lo, hi := bounds[i-1], bounds[i]
		if hi-lo < cfg.NeutralMin {
			continue
		}
		out = append(out, model.Moment{
			Kind:        model.MomentNeutral,
			Victim:      model.PlayerNone,
			Severity:    model.MomentInfo,
			Start:       lo,
			End:         hi,
			Magnitude:   hi - lo,
			Description: fmt.Sprintf("neutral for %.0fs", hi-lo),
			Evidence: model.Evidence{
				SampleStart: sampleAt(samples, lo),
				SampleEnd:   sampleAt(samples, hi),
			},
		})
	}
	return out
}

// momentumShifts scans change times and emits a shift whenever the windowed
// damage lead flips to the other player, keeping at least the configured
// spacing between emissions.
func momentumShifts(cfg config.Classifier, samples []model.Sample, changes []model.AtomicChange) []model.Moment {
	var out []model.Moment
	leader := model.PlayerNone
	lastEmit := -cfg.MomentumSpacing

	for _, ch := range changes {
		if ch.Kind != model.PercentIncrease {
			continue
		}
		t := ch.Time
		p1Dealt := damageIn(changes, model.Player2, t-cfg.MomentumWindow, t)
		p2Dealt := damageIn(changes, model.Player1, t-cfg.MomentumWindow, t)

		var now model.PlayerSlot
		switch {
		case p1Dealt > p2Dealt:
			now = model.Player1
		case p2Dealt > p1Dealt:
			now = model.Player2
		default:
			continue
		}
		if leader == model.PlayerNone {
			leader = now
			continue
		}
		if now != leader && t-lastEmit >= cfg.MomentumSpacing {
			out = append(out, model.Moment{
				Kind:        model.MomentMomentumShift,
				Actor:       now,
				Victim:      leader,
				Start:       t,
				End:         t,
				Magnitude:   damageDiff(p1Dealt, p2Dealt, now),
				Severity:    model.MomentNotable,
				Description: fmt.Sprintf("momentum shifts to %s", now),
				Evidence: model.Evidence{
					SampleStart: sampleAt(samples, t),
					SampleEnd:   sampleAt(samples, t),
					Stats:       []string{fmt.Sprintf("%.0f%% vs %.0f%% over last %.0fs", p1Dealt, p2Dealt, cfg.MomentumWindow)},
				},
			})
			lastEmit = t
		}
		if now != leader {
			leader = now
		}
	}
	return out
}

func damageDiff(p1, p2 float64, leader model.PlayerSlot) float64 {
	if leader == model.Player1 {
		return p1 - p2
	}
	return p2 - p1
}

// damageIn sums the percent a victim took inside (lo, hi].
func damageIn(changes []model.AtomicChange, victim model.PlayerSlot, lo, hi float64) float64 {
	var sum float64
	for _, ch := range changes {
		if ch.Kind == model.PercentIncrease && ch.Player == victim && ch.Time > lo && ch.Time <= hi {
			sum += ch.Magnitude
		}
	}
	return sum
}

// comboEndedIn reports whether the victim ate a combo-length run finishing
// inside the window.
func comboEndedIn(changes []model.AtomicChange, cfg config.Classifier, victim model.PlayerSlot, lo, hi float64) bool {
	hits := 0
	var last float64
	for _, ch := range changes {
		if ch.Kind != model.PercentIncrease || ch.Player != victim {
			continue
		}
		if hits > 0 && ch.Time-last > cfg.ComboWindow {
			hits = 0
		}
		hits++
		last = ch.Time
		if hits >= cfg.ComboMinHits && last > lo && last <= hi {
			return true
		}
	}
	return false
}

// percentBefore returns the victim's percent just before t, skipping the
// sample where the reset already landed.
func percentBefore(samples []model.Sample, victim model.PlayerSlot, t float64) float64 {
	p := int(victim) - 1
	best := 0.0
	for _, s := range samples {
		if s.Timestamp >= t {
			break
		}
		best = s.Percent[p]
	}
	return best
}

// sampleAt returns the index of the last sample at or before t.
func sampleAt(samples []model.Sample, t float64) int {
	idx := sort.Search(len(samples), func(i int) bool { return samples[i].Timestamp > t })
	if idx > 0 {
		idx--
	}
	return idx
}

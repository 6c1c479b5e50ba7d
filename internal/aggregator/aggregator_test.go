package aggregator

import (
	"testing"

	"github.com/pable/go-smash-coach/internal/config"
	"github.com/pable/go-smash-coach/internal/model"
)

func sample(ts, p1pct float64, p1stk int, p2pct float64, p2stk int) model.Sample {
	return model.Sample{
		Timestamp: ts,
		Percent:   [2]float64{p1pct, p2pct},
		Stocks:    [2]int{p1stk, p2stk},
	}
}

func combo(actor model.PlayerSlot, start, end, mag float64) model.Moment {
	return model.Moment{Kind: model.MomentCombo, Actor: actor, Victim: actor.Opponent(), Start: start, End: end, Magnitude: mag}
}

func kill(actor model.PlayerSlot, at, pct float64) model.Moment {
	return model.Moment{Kind: model.MomentStockLoss, Actor: actor, Victim: actor.Opponent(), Start: at, End: at, Magnitude: pct}
}

func TestStatsCounting(t *testing.T) {
	cfg := config.Default()
	samples := []model.Sample{
		sample(0, 0, 3, 0, 3),
		sample(100, 20, 2, 0, 1),
	}
	moments := []model.Moment{
		combo(model.Player1, 5, 6, 40),
		{Kind: model.MomentDamage, Actor: model.Player2, Victim: model.Player1, Start: 20, End: 20, Magnitude: 20},
		kill(model.Player1, 30, 95),
		kill(model.Player1, 60, 120),
		kill(model.Player2, 80, 110),
	}

	stats := Stats(cfg, samples, moments)
	p1, p2 := stats.Players[0], stats.Players[1]

	if p1.DamageDealt != 40 || p1.DamageTaken != 20 {
		t.Errorf("p1 damage: dealt=%g taken=%g", p1.DamageDealt, p1.DamageTaken)
	}
	if p1.MaxPercent != 20 || p2.MaxPercent != 0 {
		t.Errorf("max percent: p1=%g p2=%g", p1.MaxPercent, p2.MaxPercent)
	}
	if p1.Combos != 1 || p1.AvgComboDamage() != 40 {
		t.Errorf("p1 combos: %d avg %g", p1.Combos, p1.AvgComboDamage())
	}
	if len(p1.KillPercents) != 2 || p1.AvgKillPercent() != 107.5 {
		t.Errorf("p1 kills: %v", p1.KillPercents)
	}
	if p2.StocksLost != 2 || p1.StocksLost != 1 {
		t.Errorf("stocks lost: p1=%d p2=%d", p1.StocksLost, p2.StocksLost)
	}
	if stats.Duration != 100 {
		t.Errorf("duration: %g", stats.Duration)
	}
}

func TestWinnerByStocks(t *testing.T) {
	cfg := config.Default()
	samples := []model.Sample{
		sample(0, 0, 3, 0, 3),
		sample(120, 40, 1, 0, 0),
	}
	stats := Stats(cfg, samples, nil)
	if stats.Winner != model.Player1 || stats.WinnerMethod != model.WinByStocks {
		t.Errorf("winner: %v via %v", stats.Winner, stats.WinnerMethod)
	}
	if stats.Truncated {
		t.Error("finished match should not be truncated")
	}
}

func TestWinnerDamageTiebreak(t *testing.T) {
	cfg := config.Default()
	samples := []model.Sample{
		sample(0, 0, 3, 0, 3),
		sample(120, 40, 2, 80, 2), // stream ends with both alive
	}
	moments := []model.Moment{
		combo(model.Player1, 10, 12, 80),
		combo(model.Player2, 30, 31, 40),
	}
	stats := Stats(cfg, samples, moments)
	if stats.Winner != model.Player1 {
		t.Errorf("lower damage taken should win the tiebreak: %v", stats.Winner)
	}
	if stats.WinnerMethod != model.WinByDamage {
		t.Errorf("method: %v", stats.WinnerMethod)
	}
	if !stats.Truncated {
		t.Error("tiebreak implies a truncated stream")
	}
}

func TestOverallScoreExtremes(t *testing.T) {
	weights := config.Default().Skill.Weights

	all := func(score float64) map[model.MetricID]model.SkillMetric {
		out := map[model.MetricID]model.SkillMetric{}
		for _, id := range model.MetricOrder {
			out[id] = model.SkillMetric{ID: id, Score: score}
		}
		return out
	}

	if got := Overall(weights, all(100)); got < 99.999 || got > 100.001 {
		t.Errorf("all-100 metrics should give overall 100, got %g", got)
	}
	if got := Overall(weights, all(0)); got != 0 {
		t.Errorf("all-0 metrics should give overall 0, got %g", got)
	}
}

func TestShortMatchConfidenceCapped(t *testing.T) {
	cfg := config.Default()
	samples := []model.Sample{
		sample(0, 0, 3, 0, 3),
		sample(10, 0, 3, 60, 2), // only 10 seconds of match
	}
	moments := []model.Moment{
		combo(model.Player1, 2, 3, 60),
		kill(model.Player1, 10, 60),
	}
	stats := Stats(cfg, samples, moments)

	prof := Profile(cfg, model.Player1, stats, samples, moments)
	if prof.Confidence >= 0.6 {
		t.Errorf("confidence for a %gs match must stay below 0.6, got %g", stats.Duration, prof.Confidence)
	}
}

func TestProfileStrengthsAndWeaknesses(t *testing.T) {
	cfg := config.Default()
	samples := []model.Sample{
		sample(0, 0, 3, 0, 3),
		sample(180, 30, 3, 0, 0),
	}
	moments := []model.Moment{
		combo(model.Player1, 10, 13, 45),
		combo(model.Player1, 60, 63, 50),
		combo(model.Player1, 120, 123, 40),
		kill(model.Player1, 20, 95),
		kill(model.Player1, 80, 100),
		kill(model.Player1, 150, 90),
	}

	stats := Stats(cfg, samples, moments)
	prof := Profile(cfg, model.Player1, stats, samples, moments)

	if len(prof.Strengths) != 3 || len(prof.Weaknesses) != 2 {
		t.Fatalf("want 3 strengths and 2 weaknesses, got %d/%d", len(prof.Strengths), len(prof.Weaknesses))
	}
	if prof.Metrics[model.MetricDeathPercent].Score != 100 {
		t.Errorf("no deaths should score 100 on death percent, got %g", prof.Metrics[model.MetricDeathPercent].Score)
	}
	// Losing no stocks is absence of evidence, not a ranked strength.
	for _, s := range prof.Strengths {
		if s == model.MetricDeathPercent {
			t.Error("death percent ranked as a strength without any deaths")
		}
	}
	if prof.Overall <= 0 || prof.Overall > 100 {
		t.Errorf("overall out of range: %g", prof.Overall)
	}
	if prof.Tier == "" {
		t.Error("tier missing")
	}
	for _, s := range prof.Strengths {
		for _, w := range prof.Weaknesses {
			if s == w {
				t.Errorf("metric %s is both strength and weakness", s)
			}
		}
	}
}

func TestEventlessMatchRanksNothing(t *testing.T) {
	cfg := config.Default()
	samples := []model.Sample{
		sample(0, 0, 3, 0, 3),
		sample(100, 0, 3, 0, 3),
	}
	stats := Stats(cfg, samples, nil)
	prof := Profile(cfg, model.Player1, stats, samples, nil)

	if len(prof.Strengths) != 0 || len(prof.Weaknesses) != 0 {
		t.Errorf("nothing happened, yet got strengths %v and weaknesses %v", prof.Strengths, prof.Weaknesses)
	}
	if len(prof.Metrics) != len(model.MetricOrder) {
		t.Errorf("all metrics should still be reported, got %d", len(prof.Metrics))
	}
}

func TestRescaleInterpolates(t *testing.T) {
	a := anchors{{0, 0}, {10, 50}, {20, 100}}
	cases := []struct{ raw, want float64 }{
		{-5, 0},
		{0, 0},
		{5, 25},
		{10, 50},
		{15, 75},
		{20, 100},
		{99, 100},
	}
	for _, c := range cases {
		if got := rescale(c.raw, a); got != c.want {
			t.Errorf("rescale(%g): want %g, got %g", c.raw, c.want, got)
		}
	}
}

func TestCountOpenings(t *testing.T) {
	cfg := config.Default().Classifier
	moments := []model.Moment{
		combo(model.Player1, 10, 12, 30),
		{Kind: model.MomentDamage, Actor: model.Player1, Victim: model.Player2, Start: 13, End: 13, Magnitude: 5}, // same opening
		combo(model.Player1, 40, 42, 30), // new opening
	}
	if got := countOpenings(cfg, moments, model.Player1); got != 2 {
		t.Errorf("openings: want 2, got %d", got)
	}
}

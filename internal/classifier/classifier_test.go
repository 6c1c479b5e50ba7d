package classifier

import (
	"testing"

	"github.com/pable/go-smash-coach/internal/config"
	"github.com/pable/go-smash-coach/internal/model"
	"github.com/pable/go-smash-coach/internal/segmenter"
)

func sample(ts, p1pct float64, p1stk int, p2pct float64, p2stk int) model.Sample {
	return model.Sample{
		Timestamp: ts,
		Percent:   [2]float64{p1pct, p2pct},
		Stocks:    [2]int{p1stk, p2stk},
	}
}

func classify(t *testing.T, samples []model.Sample) []model.Moment {
	t.Helper()
	cfg := config.Default()
	changes := segmenter.Segment(cfg.Segmenter, samples)
	return Classify(cfg.Classifier, samples, changes)
}

func momentsOfKind(moments []model.Moment, kind model.MomentKind) []model.Moment {
	var out []model.Moment
	for _, m := range moments {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// Two quick hits on the same victim followed by a kill: one merged combo
// moment plus one stock loss, with the new stock starting at a 0 baseline.
func TestComboThenStockLoss(t *testing.T) {
	samples := []model.Sample{
		sample(0, 0, 3, 0, 3),
		sample(1, 0, 3, 45, 3),
		sample(1.3, 0, 3, 60, 3),
		sample(4, 0, 3, 0, 2),
	}

	moments := classify(t, samples)

	combos := momentsOfKind(moments, model.MomentCombo)
	if len(combos) != 1 {
		t.Fatalf("expected 1 combo moment, got %d: %+v", len(combos), moments)
	}
	c := combos[0]
	if c.Magnitude != 60 {
		t.Errorf("combo magnitude: want 60, got %g", c.Magnitude)
	}
	if c.Actor != model.Player1 || c.Victim != model.Player2 {
		t.Errorf("combo attribution wrong: actor=%v victim=%v", c.Actor, c.Victim)
	}

	var kills []model.Moment
	kills = append(kills, momentsOfKind(moments, model.MomentStockLoss)...)
	kills = append(kills, momentsOfKind(moments, model.MomentEdgeguardKill)...)
	if len(kills) != 1 {
		t.Fatalf("expected 1 kill moment, got %d", len(kills))
	}
	k := kills[0]
	if k.Start != 4 {
		t.Errorf("kill time: want 4, got %g", k.Start)
	}
	if k.Victim != model.Player2 || k.Actor != model.Player1 {
		t.Errorf("kill attribution wrong: %+v", k)
	}
	if k.Magnitude != 60 {
		t.Errorf("kill percent: want 60, got %g", k.Magnitude)
	}

	if damage := momentsOfKind(moments, model.MomentDamage); len(damage) != 0 {
		t.Errorf("combo hits should not also appear as damage moments: %+v", damage)
	}
}

// Ninety seconds with no changes at all is one long neutral moment.
func TestQuietStreamIsOneNeutral(t *testing.T) {
	var samples []model.Sample
	for ts := 0.0; ts <= 90; ts += 0.5 {
		samples = append(samples, sample(ts, 40, 2, 55, 2))
	}

	moments := classify(t, samples)
	if len(moments) != 1 {
		t.Fatalf("expected exactly 1 moment, got %d: %+v", len(moments), moments)
	}
	n := moments[0]
	if n.Kind != model.MomentNeutral {
		t.Fatalf("expected a neutral moment, got %v", n.Kind)
	}
	if n.Duration() != 90 {
		t.Errorf("neutral should span the stream: got %gs", n.Duration())
	}
}

func TestHitsOutsideComboWindowStaySeparate(t *testing.T) {
	samples := []model.Sample{
		sample(0, 0, 3, 0, 3),
		sample(1, 0, 3, 20, 3),
		sample(5, 0, 3, 35, 3), // 4s later: past the combo window
	}

	moments := classify(t, samples)
	if combos := momentsOfKind(moments, model.MomentCombo); len(combos) != 0 {
		t.Errorf("hits 4s apart should not form a combo: %+v", combos)
	}
	if damage := momentsOfKind(moments, model.MomentDamage); len(damage) != 2 {
		t.Errorf("expected 2 separate damage moments, got %d", len(damage))
	}
}

func TestHitsAtComboWindowBoundaryMerge(t *testing.T) {
	samples := []model.Sample{
		sample(0, 0, 3, 0, 3),
		sample(1, 0, 3, 20, 3),
		sample(4, 0, 3, 35, 3), // exactly the window: still a combo
	}

	moments := classify(t, samples)
	if combos := momentsOfKind(moments, model.MomentCombo); len(combos) != 1 {
		t.Errorf("hits exactly a combo window apart should merge, got %d combos", len(combos))
	}
}

// A kill in the band with almost no damage traded beforehand scores as an
// edgeguard; a kill fed by a long combo does not.
func TestEdgeguardClassification(t *testing.T) {
	clean := []model.Sample{
		sample(0, 0, 3, 70, 3),
		sample(20, 0, 3, 70, 3),
		sample(21, 0, 3, 0, 2), // dies at 70% with no recent damage
	}
	moments := classify(t, clean)
	if eg := momentsOfKind(moments, model.MomentEdgeguardKill); len(eg) != 1 {
		t.Errorf("clean offstage kill should be an edgeguard: %+v", moments)
	}

	fed := []model.Sample{
		sample(0, 0, 3, 0, 3),
		sample(20, 0, 3, 0, 3),
		sample(21, 0, 3, 40, 3),
		sample(22, 0, 3, 75, 3),
		sample(23, 0, 3, 110, 3),
		sample(24, 0, 3, 0, 2), // dies off a heavy combo at 110%
	}
	moments = classify(t, fed)
	if eg := momentsOfKind(moments, model.MomentEdgeguardKill); len(eg) != 0 {
		t.Errorf("combo-fed kill should not be an edgeguard: %+v", eg)
	}
	if kills := momentsOfKind(moments, model.MomentStockLoss); len(kills) != 1 {
		t.Errorf("expected a plain stock loss, got %+v", moments)
	}
}

func TestMomentumShiftEmitted(t *testing.T) {
	samples := []model.Sample{
		sample(0, 0, 3, 0, 3),
		// P1 dominates early.
		sample(1, 0, 3, 20, 3),
		sample(2, 0, 3, 40, 3),
		// Long gap, then P2 takes over.
		sample(20, 0, 3, 40, 3),
		sample(21, 25, 3, 40, 3),
		sample(22, 50, 3, 40, 3),
	}

	moments := classify(t, samples)
	shifts := momentsOfKind(moments, model.MomentMomentumShift)
	if len(shifts) != 1 {
		t.Fatalf("expected 1 momentum shift, got %d: %+v", len(shifts), moments)
	}
	if shifts[0].Actor != model.Player2 {
		t.Errorf("momentum should shift to P2, got %v", shifts[0].Actor)
	}
}

func TestSeverityAndPriority(t *testing.T) {
	samples := []model.Sample{
		sample(0, 0, 3, 0, 3),
		sample(1, 0, 3, 25, 3),
		sample(2, 0, 3, 45, 3),
		sample(10, 0, 3, 0, 2), // dies at 45%, well before kill percent
	}
	moments := classify(t, samples)

	combos := momentsOfKind(moments, model.MomentCombo)
	if len(combos) != 1 || combos[0].Severity != model.MomentNotable {
		t.Errorf("combo severity: %+v", combos)
	}

	var kills []model.Moment
	kills = append(kills, momentsOfKind(moments, model.MomentStockLoss)...)
	kills = append(kills, momentsOfKind(moments, model.MomentEdgeguardKill)...)
	if len(kills) != 1 {
		t.Fatalf("expected 1 kill, got %+v", moments)
	}
	if kills[0].Severity != model.MomentHigh {
		t.Errorf("kill severity: %s", kills[0].Severity)
	}
	if !kills[0].Priority {
		t.Error("a death at 45% should be flagged priority")
	}
}

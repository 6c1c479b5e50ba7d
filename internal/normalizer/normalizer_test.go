package normalizer

import (
	"testing"

	"github.com/pable/go-smash-coach/internal/config"
	"github.com/pable/go-smash-coach/internal/model"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func reading(ts, p1pct float64, p1stk int, p2pct float64, p2stk int, conf float64) model.Reading {
	return model.Reading{
		Timestamp: ts,
		Players: [2]model.PlayerRead{
			{Percent: fp(p1pct), Stocks: ip(p1stk), Confidence: conf},
			{Percent: fp(p2pct), Stocks: ip(p2stk), Confidence: conf},
		},
	}
}

func input(readings ...model.Reading) *model.MatchInput {
	return &model.MatchInput{
		Players: [2]model.PlayerMeta{
			{Name: "Alice", Character: "Fox"},
			{Name: "Bob", Character: "Marth"},
		},
		Readings: readings,
	}
}

// steadyTail pads the stream past the minimum duration so signal checks pass.
func steadyTail(from, to, step float64, p1pct float64, p1stk int, p2pct float64, p2stk int) []model.Reading {
	var out []model.Reading
	for t := from; t <= to; t += step {
		out = append(out, reading(t, p1pct, p1stk, p2pct, p2stk, 1.0))
	}
	return out
}

func TestStockIncreaseSuppressed(t *testing.T) {
	cfg := config.Default().Normalizer
	rs := []model.Reading{
		reading(0, 0, 3, 0, 3, 1.0),
		reading(1, 10, 3, 0, 3, 1.0),
		reading(2, 10, 3, 0, 4, 1.0), // read error: stocks never increase
	}
	rs = append(rs, steadyTail(3, 30, 1, 10, 3, 0, 3)...)

	res := Normalize(cfg, input(rs...))
	for _, s := range res.Samples {
		if s.Stocks[1] > 3 {
			t.Fatalf("stock increase leaked through at t=%g: %d", s.Timestamp, s.Stocks[1])
		}
	}
}

func TestPercentDecreaseWithoutStockLossSuppressed(t *testing.T) {
	cfg := config.Default().Normalizer
	rs := []model.Reading{
		reading(0, 0, 3, 0, 3, 1.0),
		reading(1, 45, 3, 0, 3, 1.0),
		reading(2, 12, 3, 0, 3, 1.0), // OCR misread, no stock change
		reading(3, 45, 3, 0, 3, 1.0),
	}
	rs = append(rs, steadyTail(4, 30, 1, 45, 3, 0, 3)...)

	res := Normalize(cfg, input(rs...))
	if got := res.Samples[2].Percent[0]; got != 45 {
		t.Errorf("expected held percent 45 at t=2, got %g", got)
	}
}

func TestPercentResetAfterStockLoss(t *testing.T) {
	cfg := config.Default().Normalizer
	rs := []model.Reading{
		reading(0, 95, 3, 0, 3, 1.0),
		reading(1, 0, 2, 0, 3, 1.0), // died, new stock at 0%
	}
	rs = append(rs, steadyTail(2, 30, 1, 0, 2, 0, 3)...)

	res := Normalize(cfg, input(rs...))
	if got := res.Samples[1].Percent[0]; got != 0 {
		t.Errorf("expected baseline 0 after stock loss, got %g", got)
	}
	if got := res.Samples[1].Stocks[0]; got != 2 {
		t.Errorf("expected 2 stocks, got %d", got)
	}
}

func TestMultiStockDropCapped(t *testing.T) {
	cfg := config.Default().Normalizer
	rs := []model.Reading{
		reading(0, 0, 3, 0, 3, 1.0),
		reading(1, 0, 1, 0, 3, 1.0), // reads 2 stocks gone at once
	}
	rs = append(rs, steadyTail(2, 30, 1, 0, 1, 0, 3)...)

	res := Normalize(cfg, input(rs...))
	if got := res.Samples[1].Stocks[0]; got != 2 {
		t.Errorf("multi-stock drop should cap at one: got %d stocks", got)
	}
}

func TestNullsCarriedForward(t *testing.T) {
	cfg := config.Default().Normalizer
	rs := []model.Reading{
		reading(0, 30, 3, 10, 3, 1.0),
		{Timestamp: 0.5, Players: [2]model.PlayerRead{
			{Percent: nil, Stocks: nil, Confidence: 0.9},
			{Percent: fp(10), Stocks: ip(3), Confidence: 0.9},
		}},
	}
	rs = append(rs, steadyTail(1, 30, 1, 30, 3, 10, 3)...)

	res := Normalize(cfg, input(rs...))
	s := res.Samples[1]
	if s.Percent[0] != 30 || s.Stocks[0] != 3 {
		t.Errorf("carry forward failed: %+v", s)
	}
	if !s.Carried[0] {
		t.Error("carried flag not set")
	}
	if s.Carried[1] {
		t.Error("carried flag set for player with a direct read")
	}
}

func TestShortMatchIsInsufficient(t *testing.T) {
	cfg := config.Default().Normalizer
	rs := steadyTail(0, 10, 1, 0, 3, 0, 3)

	res := Normalize(cfg, input(rs...))
	if !res.Insufficient {
		t.Errorf("10s match should be insufficient (min %gs)", cfg.MinDuration)
	}
}

func TestLowValidFractionIsInsufficient(t *testing.T) {
	cfg := config.Default().Normalizer
	var rs []model.Reading
	rs = append(rs, reading(0, 0, 3, 0, 3, 1.0))
	for t2 := 1.0; t2 <= 60; t2++ {
		rs = append(rs, reading(t2, 0, 3, 0, 3, 0.1)) // below confidence floor
	}

	res := Normalize(cfg, input(rs...))
	if !res.Insufficient {
		t.Errorf("valid fraction %.2f should be insufficient", res.ValidFraction)
	}
}

func TestTrimToGameStart(t *testing.T) {
	cfg := config.Default().Normalizer
	rs := []model.Reading{
		reading(0, 0, 1, 0, 1, 1.0), // menu noise before the game
		reading(1, 0, 3, 0, 3, 1.0),
	}
	rs = append(rs, steadyTail(2, 30, 1, 0, 3, 0, 3)...)

	res := Normalize(cfg, input(rs...))
	if res.Samples[0].Timestamp != 1 {
		t.Errorf("pre-game frames should be trimmed, first sample at t=%g", res.Samples[0].Timestamp)
	}
}

func TestImplausibleJumpRetained(t *testing.T) {
	cfg := config.Default().Normalizer
	rs := steadyTail(0, 30, 1, 0, 3, 0, 3)
	rs = append(rs, reading(30.3, 60, 3, 0, 3, 1.0)) // huge hit landing between frames

	res := Normalize(cfg, input(rs...))
	last := res.Samples[len(res.Samples)-1]
	if last.Percent[0] != 60 {
		t.Errorf("fast percent jump must be kept, got %g", last.Percent[0])
	}
	if !last.LowConf[0] {
		t.Error("fast percent jump must be flagged low confidence")
	}
}

func TestPercentClampedAtDisplayCap(t *testing.T) {
	cfg := config.Default().Normalizer
	rs := steadyTail(0, 30, 1, 0, 3, 0, 3)
	rs = append(rs, reading(31, 1200, 3, 0, 3, 1.0)) // garbage digits from the HUD

	res := Normalize(cfg, input(rs...))
	last := res.Samples[len(res.Samples)-1]
	if last.Percent[0] != cfg.PercentCap {
		t.Errorf("percent must clamp at %g, got %g", cfg.PercentCap, last.Percent[0])
	}
	if !last.LowConf[0] {
		t.Error("clamped percent must be flagged low confidence")
	}
}

func TestTrimSkipsFullStockNonzeroPercentFrames(t *testing.T) {
	cfg := config.Default().Normalizer
	rs := []model.Reading{
		reading(0, 80, 3, 40, 3, 1.0), // stocks settled but percents still mid-game noise
		reading(1, 0, 3, 0, 3, 1.0),
	}
	rs = append(rs, steadyTail(2, 30, 1, 0, 3, 0, 3)...)

	res := Normalize(cfg, input(rs...))
	if got := res.Samples[0].Timestamp; got != 1 {
		t.Errorf("stream should start at the zero-percent full-stock frame, got t=%g", got)
	}
	if got := res.Samples[0].Percent[0]; got != 0 {
		t.Errorf("pre-game percent leaked: %g", got)
	}
}

// Package normalizer turns noisy OCR readings into a clean sample stream.
// It carries values across unreadable frames, suppresses transitions the game
// rules forbid, and decides whether the stream holds enough signal to analyze.
package normalizer

import (
	"github.com/rs/zerolog/log"

	"github.com/pable/go-smash-coach/internal/config"
	"github.com/pable/go-smash-coach/internal/model"
)

// Result is the normalized stream plus the signal-quality verdict.
type Result struct {
	Samples       []model.Sample
	ValidFraction float64
	Duration      float64
	Insufficient  bool
}

type playerState struct {
	percent     float64
	stocks      int
	lastPercent float64 // timestamp of last direct percent read
	lastStocks  float64
}

// Normalize applies the reading rules in order: confidence floor, carry
// forward, stock monotonicity, percent plausibility. The returned samples are
// one per surviving reading, trimmed to the detected game start.
func Normalize(cfg config.Normalizer, in *model.MatchInput) Result {
	readings := trimToGameStart(cfg, in.Readings)
	if len(readings) == 0 {
		return Result{Insufficient: true}
	}

	start := readings[0].Timestamp
	states := [2]playerState{}
	for p := range states {
		states[p] = playerState{stocks: cfg.StockCap, lastPercent: start, lastStocks: start}
	}

	samples := make([]model.Sample, 0, len(readings))
	valid := 0
	for _, r := range readings {
		s := model.Sample{Timestamp: r.Timestamp}
		readingValid := true
		for p := range r.Players {
			pr := r.Players[p]
			st := &states[p]

			pct := pr.Percent
			stk := pr.Stocks
			if pr.Confidence < cfg.ConfidenceFloor {
				pct, stk = nil, nil
			}

			prevStk := st.stocks
			if stk == nil {
				s.Carried[p] = true
				if r.Timestamp-st.lastStocks > cfg.MaxCarryGap {
					s.LowConf[p] = true
				}
			} else {
				switch {
				case *stk > st.stocks:
					// Stocks never increase mid game. Read error.
					log.Debug().
						Float64("t", r.Timestamp).
						Int("player", p+1).
						Int("read", *stk).
						Int("held", st.stocks).
						Msg("suppressed stock increase")
				case st.stocks-*stk > 1:
					log.Warn().
						Float64("t", r.Timestamp).
						Int("player", p+1).
						Int("read", *stk).
						Int("held", st.stocks).
						Msg("multi-stock drop capped to one")
					st.stocks--
					st.lastStocks = r.Timestamp
				default:
					st.stocks = *stk
					st.lastStocks = r.Timestamp
				}
			}

			stockFell := st.stocks < prevStk
			if pct == nil {
				s.Carried[p] = true
				if r.Timestamp-st.lastPercent > cfg.MaxCarryGap {
					s.LowConf[p] = true
				}
			} else {
				dt := r.Timestamp - st.lastPercent
				switch {
				case stockFell:
					// New stock: whatever the screen shows is the baseline.
					st.percent = *pct
					st.lastPercent = r.Timestamp
				case *pct < st.percent:
					// A percent drop without a stock loss cannot happen.
					log.Debug().
						Float64("t", r.Timestamp).
						Int("player", p+1).
						Float64("read", *pct).
						Float64("held", st.percent).
						Msg("suppressed percent decrease")
				case dt > 0 && *pct-st.percent > cfg.MaxPercentPerSec*dt:
					// Real huge hits exist. Keep the read, flag the sample.
					s.LowConf[p] = true
					st.percent = *pct
					st.lastPercent = r.Timestamp
					log.Debug().
						Float64("t", r.Timestamp).
						Int("player", p+1).
						Float64("read", *pct).
						Msg("implausible percent jump retained, flagged low confidence")
				default:
					st.percent = *pct
					st.lastPercent = r.Timestamp
				}
				if st.percent > cfg.PercentCap {
					s.LowConf[p] = true
					log.Warn().
						Float64("t", r.Timestamp).
						Int("player", p+1).
						Float64("read", st.percent).
						Msg("percent capped at display maximum")
					st.percent = cfg.PercentCap
				}
			}

			if pct == nil || stk == nil {
				readingValid = false
			}
			s.Percent[p] = st.percent
			s.Stocks[p] = st.stocks
		}
		if readingValid {
			valid++
		}
		samples = append(samples, s)
	}

	duration := samples[len(samples)-1].Timestamp - samples[0].Timestamp
	frac := float64(valid) / float64(len(readings))
	return Result{
		Samples:       samples,
		ValidFraction: frac,
		Duration:      duration,
		Insufficient:  frac < cfg.MinValidFraction || duration < cfg.MinDuration,
	}
}

// trimToGameStart drops pre-game noise: frames captured before both players
// show full stocks at zero percent. Falls back to the whole stream when no
// such frame exists.
func trimToGameStart(cfg config.Normalizer, readings []model.Reading) []model.Reading {
	for i, r := range readings {
		ok := true
		for p := range r.Players {
			stk := r.Players[p].Stocks
			pct := r.Players[p].Percent
			if stk == nil || *stk != cfg.StockCap ||
				pct == nil || *pct != 0 ||
				r.Players[p].Confidence < cfg.ConfidenceFloor {
				ok = false
				break
			}
		}
		if ok {
			return readings[i:]
		}
	}
	return readings
}

// Package config holds the tuning thresholds of the analysis pipeline.
// Defaults are layered under an optional YAML file and SMASHCOACH_ env vars.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/pable/go-smash-coach/internal/model"
)

const envPrefix = "SMASHCOACH_"

// Config carries every threshold the pipeline consults. All durations are in
// seconds of match time, all percents in display percent units.
type Config struct {
	Normalizer Normalizer `koanf:"normalizer"`
	Segmenter  Segmenter  `koanf:"segmenter"`
	Classifier Classifier `koanf:"classifier"`
	Skill      Skill      `koanf:"skill"`
	Habits     Habits     `koanf:"habits"`
	Advisor    Advisor    `koanf:"advisor"`
}

type Normalizer struct {
	StockCap         int     `koanf:"stock_cap"`           // stocks per player at game start
	ConfidenceFloor  float64 `koanf:"confidence_floor"`    // readings below are dropped
	MaxCarryGap      float64 `koanf:"max_carry_gap"`       // seconds a null may be carried forward
	MaxPercentPerSec float64 `koanf:"max_percent_per_sec"` // faster jumps flagged low confidence
	PercentCap       float64 `koanf:"percent_cap"`         // percents above are clamped and flagged
	MinValidFraction float64 `koanf:"min_valid_fraction"`  // below this the match is insufficient signal
	MinDuration      float64 `koanf:"min_duration"`        // shorter matches are insufficient signal
}

type Segmenter struct {
	CoalesceWindow float64 `koanf:"coalesce_window"` // merge window for same-kind changes
}

type Classifier struct {
	ComboWindow      float64 `koanf:"combo_window"` // max gap between combo hits
	ComboMinHits     int     `koanf:"combo_min_hits"`
	NeutralMin       float64 `koanf:"neutral_min"`        // min quiet span for a neutral moment
	EdgeguardMinKill float64 `koanf:"edgeguard_min_kill"` // kill percent band for edgeguards
	EdgeguardMaxKill float64 `koanf:"edgeguard_max_kill"`
	EdgeguardPreDmg  float64 `koanf:"edgeguard_pre_dmg"`  // max damage dealt in the window before the kill
	EdgeguardSelfDmg float64 `koanf:"edgeguard_self_dmg"` // max damage the attacker took during the sequence
	EdgeguardWindow  float64 `koanf:"edgeguard_window"`   // lookback before the kill
	EarlyKillPercent float64 `koanf:"early_kill_percent"` // deaths below this count as early
	MomentumWindow   float64 `koanf:"momentum_window"`    // window for damage differential
	MomentumSpacing  float64 `koanf:"momentum_spacing"`   // min gap between emitted shifts
}

type Skill struct {
	Weights              map[model.MetricID]float64 `koanf:"weights"`
	TierCuts             [3]float64                 `koanf:"tier_cuts"`              // below [0] low, [1] mid, [2] high, else top
	TopN                 int                        `koanf:"top_n"`                  // strengths/weaknesses count
	StrengthFloor        float64                    `koanf:"strength_floor"`         // min score to count as a strength
	WeaknessCeiling      float64                    `koanf:"weakness_ceiling"`       // max score to count as a weakness
	ShortMatchConfidence float64                    `koanf:"short_match_confidence"` // confidence cap for matches under MinDuration
}

type Habits struct {
	MinOccurrences  int     `koanf:"min_occurrences"`
	DeathRangeStdev float64 `koanf:"death_range_stdev"` // below: narrow death range habit
	KillFishStdev   float64 `koanf:"kill_fish_stdev"`
	KillFishPercent float64 `koanf:"kill_fish_percent"` // kills above suggest fishing for one move
	PanicWindow     float64 `koanf:"panic_window"`      // seconds after respawn
	PanicDamageMin  float64 `koanf:"panic_damage_min"`  // min damage taken in the window to flag panic
}

type Advisor struct {
	Model     string `koanf:"model"`
	MaxTokens int    `koanf:"max_tokens"`
}

// Default returns the built-in thresholds.
func Default() Config {
	return Config{
		Normalizer: Normalizer{
			StockCap:         3,
			ConfidenceFloor:  0.35,
			MaxCarryGap:      2.0,
			MaxPercentPerSec: 80,
			PercentCap:       999,
			MinValidFraction: 0.30,
			MinDuration:      20,
		},
		Segmenter: Segmenter{
			CoalesceWindow: 0.3,
		},
		Classifier: Classifier{
			ComboWindow:      3.0,
			ComboMinHits:     2,
			NeutralMin:       6.0,
			EdgeguardMinKill: 50,
			EdgeguardMaxKill: 145,
			EdgeguardPreDmg:  30,
			EdgeguardSelfDmg: 15,
			EdgeguardWindow:  5.0,
			EarlyKillPercent: 60,
			MomentumWindow:   6.0,
			MomentumSpacing:  5.0,
		},
		Skill: Skill{
			Weights: map[model.MetricID]float64{
				model.MetricDamagePerOpening:       0.18,
				model.MetricKillEfficiency:         0.15,
				model.MetricEdgeguardRate:          0.10,
				model.MetricDeathPercent:           0.15,
				model.MetricPostDeathVulnerability: 0.10,
				model.MetricComboQuality:           0.12,
				model.MetricNeutralDuration:        0.08,
				model.MetricLeadConversion:         0.12,
			},
			TierCuts:             [3]float64{40, 65, 85},
			TopN:                 3,
			StrengthFloor:        45,
			WeaknessCeiling:      55,
			ShortMatchConfidence: 0.55,
		},
		Habits: Habits{
			MinOccurrences:  2,
			DeathRangeStdev: 20,
			KillFishStdev:   15,
			KillFishPercent: 130,
			PanicWindow:     5.0,
			PanicDamageMin:  10,
		},
		Advisor: Advisor{
			Model:     "claude-haiku-4-5-20251001",
			MaxTokens: 1024,
		},
	}
}

// Load layers an optional YAML file and SMASHCOACH_ env vars over the defaults.
// Pass an empty path to skip the file.
func Load(path string) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return cfg, fmt.Errorf("loading env config: %w", err)
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return cfg, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configs the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Normalizer.StockCap < 1 {
		return fmt.Errorf("normalizer.stock_cap must be >= 1, got %d", c.Normalizer.StockCap)
	}
	if c.Normalizer.MinValidFraction <= 0 || c.Normalizer.MinValidFraction > 1 {
		return fmt.Errorf("normalizer.min_valid_fraction must be in (0,1], got %g", c.Normalizer.MinValidFraction)
	}
	if c.Segmenter.CoalesceWindow < 0 {
		return fmt.Errorf("segmenter.coalesce_window must be >= 0, got %g", c.Segmenter.CoalesceWindow)
	}
	if c.Classifier.ComboMinHits < 2 {
		return fmt.Errorf("classifier.combo_min_hits must be >= 2, got %d", c.Classifier.ComboMinHits)
	}
	if c.Classifier.EdgeguardMinKill >= c.Classifier.EdgeguardMaxKill {
		return fmt.Errorf("classifier edgeguard band is empty: [%g, %g]",
			c.Classifier.EdgeguardMinKill, c.Classifier.EdgeguardMaxKill)
	}
	var sum float64
	for _, id := range model.MetricOrder {
		w, ok := c.Skill.Weights[id]
		if !ok {
			return fmt.Errorf("skill.weights missing %s", id)
		}
		if w < 0 {
			return fmt.Errorf("skill.weights[%s] must be >= 0, got %g", id, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("skill.weights must sum to 1.0, got %g", sum)
	}
	if !(c.Skill.TierCuts[0] < c.Skill.TierCuts[1] && c.Skill.TierCuts[1] < c.Skill.TierCuts[2]) {
		return fmt.Errorf("skill.tier_cuts must be strictly increasing, got %v", c.Skill.TierCuts)
	}
	if c.Habits.MinOccurrences < 2 {
		return fmt.Errorf("habits.min_occurrences must be >= 2, got %d", c.Habits.MinOccurrences)
	}
	return nil
}

// Tier maps an overall score to its named tier.
func (s Skill) Tier(overall float64) string {
	switch {
	case overall < s.TierCuts[0]:
		return "low"
	case overall < s.TierCuts[1]:
		return "mid"
	case overall < s.TierCuts[2]:
		return "high"
	default:
		return "top"
	}
}

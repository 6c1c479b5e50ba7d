package model

import "time"

// PlayerSlot identifies one of the two players in a match.
type PlayerSlot int

const (
	PlayerNone PlayerSlot = 0
	Player1    PlayerSlot = 1
	Player2    PlayerSlot = 2
)

func (p PlayerSlot) String() string {
	switch p {
	case Player1:
		return "P1"
	case Player2:
		return "P2"
	default:
		return "?"
	}
}

// Opponent returns the other slot.
func (p PlayerSlot) Opponent() PlayerSlot {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	default:
		return PlayerNone
	}
}

// ---- Raw readings from the frame extractor ----

// Reading is one OCR sample of the on-screen HUD. Percent and Stocks are nil
// when the extractor could not read the region for that frame.
type Reading struct {
	Timestamp float64       `json:"timestamp"`
	Players   [2]PlayerRead `json:"players"`
}

type PlayerRead struct {
	Percent    *float64 `json:"percent"`
	Stocks     *int     `json:"stocks"`
	Confidence float64  `json:"confidence"`
}

// MatchInput is the full payload handed over by the extraction side.
type MatchInput struct {
	Players  [2]PlayerMeta `json:"players"`
	Readings []Reading     `json:"readings"`
}

type PlayerMeta struct {
	Name      string `json:"name"`
	Character string `json:"character"`
}

// ---- Normalized samples ----

// Sample is a Reading after normalization: nulls resolved, implausible values
// suppressed. Carried marks values held over from an earlier reading.
type Sample struct {
	Timestamp float64
	Percent   [2]float64
	Stocks    [2]int
	Carried   [2]bool
	LowConf   [2]bool
}

// ---- Atomic changes ----

type ChangeKind int

const (
	PercentIncrease ChangeKind = iota
	PercentReset
	StockLoss
)

func (k ChangeKind) String() string {
	switch k {
	case PercentIncrease:
		return "PERCENT_INCREASE"
	case PercentReset:
		return "PERCENT_RESET"
	case StockLoss:
		return "STOCK_LOSS"
	default:
		return "?"
	}
}

// AtomicChange is one observed state transition for one player.
type AtomicChange struct {
	Kind      ChangeKind
	Player    PlayerSlot
	Time      float64
	Magnitude float64 // percent delta for PercentIncrease, stocks for StockLoss
}

// ---- Moments ----

type MomentKind int

const (
	MomentDamage MomentKind = iota
	MomentCombo
	MomentStockLoss
	MomentNeutral
	MomentEdgeguardKill
	MomentMomentumShift
)

func (k MomentKind) String() string {
	switch k {
	case MomentDamage:
		return "DAMAGE"
	case MomentCombo:
		return "COMBO"
	case MomentStockLoss:
		return "STOCK_LOSS"
	case MomentNeutral:
		return "NEUTRAL"
	case MomentEdgeguardKill:
		return "EDGEGUARD_KILL"
	case MomentMomentumShift:
		return "MOMENTUM_SHIFT"
	default:
		return "?"
	}
}

// MomentSeverity weights a moment for consumer ranking.
type MomentSeverity string

const (
	MomentInfo     MomentSeverity = "info"
	MomentNotable  MomentSeverity = "notable"
	MomentHigh     MomentSeverity = "high"
	MomentPositive MomentSeverity = "positive"
)

// Moment is a classified span of match activity. Actor is the player who drove
// the moment (the attacker for damage/combo/kill kinds); Victim is the player
// it happened to. Neutral moments have no actor. Priority moments (deaths that
// should not have happened) surface first in any ranking.
type Moment struct {
	Kind        MomentKind     `json:"kind"`
	Actor       PlayerSlot     `json:"actor"`
	Victim      PlayerSlot     `json:"victim"`
	Start       float64        `json:"start"`
	End         float64        `json:"end"`
	Magnitude   float64        `json:"magnitude"`
	Severity    MomentSeverity `json:"severity"`
	Priority    bool           `json:"priority,omitempty"`
	Description string         `json:"description"`
	Evidence    Evidence       `json:"evidence"`
}

func (m Moment) Duration() float64 { return m.End - m.Start }

// Evidence ties a derived value back to the samples that produced it.
type Evidence struct {
	SampleStart int      `json:"sample_start"`
	SampleEnd   int      `json:"sample_end"`
	Stats       []string `json:"stats,omitempty"`
}

// ---- Match stats ----

// WinnerMethod records how the winner was decided.
type WinnerMethod string

const (
	WinByStocks     WinnerMethod = "stocks"
	WinByDamage     WinnerMethod = "damage_tiebreak"
	WinUndetermined WinnerMethod = "undetermined"
)

type PlayerStats struct {
	MaxPercent   float64   `json:"max_percent"`
	DamageDealt  float64   `json:"damage_dealt"`
	DamageTaken  float64   `json:"damage_taken"`
	StocksLost   int       `json:"stocks_lost"`
	KillPercents []float64 `json:"kill_percents"` // opponent percent at each stock this player took
	Combos       int       `json:"combos"`
	ComboDamage  float64   `json:"combo_damage"`
	Openings     int       `json:"openings"`
	NeutralWins  int       `json:"neutral_wins"`
}

// AvgComboDamage guards the zero-combo case.
func (p PlayerStats) AvgComboDamage() float64 {
	if p.Combos == 0 {
		return 0
	}
	return p.ComboDamage / float64(p.Combos)
}

// AvgKillPercent is the mean opponent percent at kill, 0 with no kills.
func (p PlayerStats) AvgKillPercent() float64 {
	if len(p.KillPercents) == 0 {
		return 0
	}
	var sum float64
	for _, v := range p.KillPercents {
		sum += v
	}
	return sum / float64(len(p.KillPercents))
}

type MatchStats struct {
	Duration      float64        `json:"duration"`
	Players       [2]PlayerStats `json:"players"`
	Winner        PlayerSlot     `json:"winner"`
	WinnerMethod  WinnerMethod   `json:"winner_method"`
	Truncated     bool           `json:"truncated"`
	LowConfidence bool           `json:"low_confidence"`
}

// ---- Skill profile ----

type MetricID string

const (
	MetricDamagePerOpening       MetricID = "damage_per_opening"
	MetricKillEfficiency         MetricID = "kill_efficiency"
	MetricEdgeguardRate          MetricID = "edgeguard_rate"
	MetricDeathPercent           MetricID = "death_percent"
	MetricPostDeathVulnerability MetricID = "post_death_vulnerability"
	MetricComboQuality           MetricID = "combo_quality"
	MetricNeutralDuration        MetricID = "neutral_duration"
	MetricLeadConversion         MetricID = "lead_conversion"
)

// MetricOrder fixes the presentation and weighting order of the profile.
var MetricOrder = []MetricID{
	MetricDamagePerOpening,
	MetricKillEfficiency,
	MetricEdgeguardRate,
	MetricDeathPercent,
	MetricPostDeathVulnerability,
	MetricComboQuality,
	MetricNeutralDuration,
	MetricLeadConversion,
}

type SkillMetric struct {
	ID       MetricID `json:"id"`
	Score    float64  `json:"score"` // 0..100
	Raw      float64  `json:"raw"`
	Evidence string   `json:"evidence"`
}

type SkillProfile struct {
	Player     PlayerSlot               `json:"player"`
	Metrics    map[MetricID]SkillMetric `json:"metrics"`
	Overall    float64                  `json:"overall"`
	Tier       string                   `json:"tier"`
	Confidence float64                  `json:"confidence"`
	Strengths  []MetricID               `json:"strengths"`
	Weaknesses []MetricID               `json:"weaknesses"`
}

// ---- Habits ----

type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
)

type Habit struct {
	ID          string     `json:"id"`
	Player      PlayerSlot `json:"player"`
	Label       string     `json:"label"`
	Occurrences int        `json:"occurrences"`
	Severity    Severity   `json:"severity"`
	Evidence    []string   `json:"evidence"`
	Suggestion  string     `json:"suggestion"`
}

// ---- Scouting ----

type DeathRecord struct {
	Time      float64 `json:"time"`
	Percent   float64 `json:"percent"`
	Cause     string  `json:"cause"`
	EarlyKill bool    `json:"early_kill"`
}

type OpponentReport struct {
	Player         PlayerSlot    `json:"player"`
	Character      string        `json:"character"`
	Deaths         []DeathRecord `json:"deaths"`
	AvgKillPercent float64       `json:"avg_kill_percent"`
	NeutralStyle   string        `json:"neutral_style"`
	Exploitable    []string      `json:"exploitable"`
	CharacterTips  []string      `json:"character_tips"`
}

type FocusArea struct {
	Rank     int      `json:"rank"`
	Metric   MetricID `json:"metric"`
	Evidence string   `json:"evidence"`
	Drill    string   `json:"drill"`
}

// ---- Trends ----

type MetricTrend struct {
	Metric   MetricID `json:"metric"`
	Current  float64  `json:"current"`
	Baseline float64  `json:"baseline"` // mean of historical scores
	Delta    float64  `json:"delta"`
}

type TrendReport struct {
	Character string        `json:"character"`
	Games     int           `json:"games"`
	WinRate   float64       `json:"win_rate"`
	Metrics   []MetricTrend `json:"metrics"`
}

// ---- Bundle ----

// Bundle is the complete analysis of one match, as stored and exported.
type Bundle struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Players   [2]PlayerMeta    `json:"players"`
	Stats     MatchStats       `json:"stats"`
	Moments   []Moment         `json:"moments"`
	Profiles  [2]*SkillProfile `json:"profiles,omitempty"`
	Habits    []Habit          `json:"habits,omitempty"`
	Scouting  *OpponentReport  `json:"scouting,omitempty"`
	Focus     []FocusArea      `json:"focus,omitempty"`
	Advice    *Advice          `json:"advice,omitempty"`
}

// Advice is optional model-generated coaching text attached to a bundle.
type Advice struct {
	Summary string   `json:"summary"`
	Points  []string `json:"points"`
	Model   string   `json:"model"`
}

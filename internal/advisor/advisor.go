// Package advisor sends a compact digest of one analyzed match to the
// Anthropic API and returns grounded coaching advice. The rest of the engine
// never depends on it; no key means no advice, not a failure.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pable/go-smash-coach/internal/config"
	"github.com/pable/go-smash-coach/internal/model"
)

const systemPrompt = `You are a competitive Super Smash Bros. coach. You are given structured data
derived from screen telemetry of one match and a question from the player.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise and actionable. Focus on what the player can change next game.
- When asked for advice, answer as a numbered list, one concrete point per line.

Data glossary:
- kill_percents: opponent's percent each time a stock was taken. Lower = earlier kills.
- openings: distinct times a player started dealing damage. Damage per opening >15% is strong.
- edgeguard kills: stocks taken offstage during the opponent's recovery.
- neutral stretches: spans with no damage on either side. Long averages = passive play.
- habits: patterns that repeated at least twice, with the literal evidence.
- skill scores: 0-100 per metric; the overall is a fixed weighted mean.`

// Advisor holds the API configuration for one session.
type Advisor struct {
	client anthropic.Client
	cfg    config.Advisor
}

// New builds an advisor, or an error when no API key is available.
func New(cfg config.Advisor, apiKey string) (*Advisor, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}
	return &Advisor{client: anthropic.NewClient(option.WithAPIKey(apiKey)), cfg: cfg}, nil
}

// Ask streams the answer to a free-form question about the bundle to w.
func (a *Advisor) Ask(ctx context.Context, bundle *model.Bundle, question string, w io.Writer) error {
	digest, err := Digest(bundle)
	if err != nil {
		return err
	}
	_, err = a.stream(ctx, digest, question, w)
	return err
}

// Advise asks for the post-match summary and focus advice and parses the
// numbered list back out for storage on the bundle.
func (a *Advisor) Advise(ctx context.Context, bundle *model.Bundle) (*model.Advice, error) {
	digest, err := Digest(bundle)
	if err != nil {
		return nil, err
	}
	question := "Summarize how this match was won or lost in two sentences, then give the player a numbered list of the three highest-impact things to change, each grounded in the data."
	text, err := a.stream(ctx, digest, question, io.Discard)
	if err != nil {
		return nil, err
	}
	summary, points := splitNumbered(text)
	return &model.Advice{Summary: summary, Points: points, Model: a.cfg.Model}, nil
}

func (a *Advisor) stream(ctx context.Context, digest, question string, w io.Writer) (string, error) {
	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", digest, question)

	stream := a.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.cfg.Model),
		MaxTokens: int64(a.cfg.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	var out strings.Builder
	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				text := delta.Delta.AsTextDelta().Text
				out.WriteString(text)
				fmt.Fprint(w, text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return "", fmt.Errorf("API authentication failed, check your API key")
		}
		return "", fmt.Errorf("streaming error: %w", err)
	}
	return out.String(), nil
}

// Digest serializes the bundle into the compact JSON the model sees.
func Digest(bundle *model.Bundle) (string, error) {
	type momentEntry struct {
		Kind string  `json:"kind"`
		At   float64 `json:"at"`
		Who  string  `json:"who"`
		Mag  float64 `json:"mag"`
		Desc string  `json:"desc"`
	}
	moments := make([]momentEntry, 0, len(bundle.Moments))
	for _, m := range bundle.Moments {
		moments = append(moments, momentEntry{
			Kind: m.Kind.String(),
			At:   round1(m.Start),
			Who:  m.Actor.String(),
			Mag:  round1(m.Magnitude),
			Desc: m.Description,
		})
	}

	players := make([]map[string]interface{}, 0, 2)
	for p := 0; p < 2; p++ {
		ps := bundle.Stats.Players[p]
		entry := map[string]interface{}{
			"name":             bundle.Players[p].Name,
			"character":        bundle.Players[p].Character,
			"damage_dealt":     round1(ps.DamageDealt),
			"damage_taken":     round1(ps.DamageTaken),
			"stocks_lost":      ps.StocksLost,
			"kill_percents":    ps.KillPercents,
			"combos":           ps.Combos,
			"avg_combo_damage": round1(ps.AvgComboDamage()),
			"openings":         ps.Openings,
			"neutral_wins":     ps.NeutralWins,
		}
		if prof := bundle.Profiles[p]; prof != nil {
			scores := map[model.MetricID]float64{}
			for id, m := range prof.Metrics {
				scores[id] = round1(m.Score)
			}
			entry["skill"] = map[string]interface{}{
				"scores":     scores,
				"overall":    round1(prof.Overall),
				"tier":       prof.Tier,
				"confidence": round1(prof.Confidence),
			}
		}
		players = append(players, entry)
	}

	habits := make([]map[string]interface{}, 0, len(bundle.Habits))
	for _, h := range bundle.Habits {
		habits = append(habits, map[string]interface{}{
			"player":      h.Player.String(),
			"label":       h.Label,
			"occurrences": h.Occurrences,
			"severity":    h.Severity,
			"evidence":    h.Evidence,
		})
	}

	doc := map[string]interface{}{
		"subject":        "match",
		"duration_s":     round1(bundle.Stats.Duration),
		"winner":         bundle.Stats.Winner.String(),
		"winner_method":  bundle.Stats.WinnerMethod,
		"low_confidence": bundle.Stats.LowConfidence,
		"players":        players,
		"moments":        moments,
		"habits":         habits,
	}
	b, err := json.Marshal(doc)
	return string(b), err
}

// splitNumbered separates leading prose from a trailing "1. ..." list.
func splitNumbered(text string) (summary string, points []string) {
	var prose []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if len(trimmed) > 2 && trimmed[0] >= '1' && trimmed[0] <= '9' && (trimmed[1] == '.' || trimmed[1] == ')') {
			points = append(points, strings.TrimSpace(trimmed[2:]))
			continue
		}
		if len(points) == 0 {
			prose = append(prose, trimmed)
		}
	}
	return strings.Join(prose, " "), points
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

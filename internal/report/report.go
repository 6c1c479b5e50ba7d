package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-smash-coach/internal/model"
	"github.com/pable/go-smash-coach/internal/storage"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintMatchHeader prints the one-line match summary.
func PrintMatchHeader(w io.Writer, b *model.Bundle) {
	winner := "undetermined"
	if b.Stats.Winner != model.PlayerNone {
		winner = fmt.Sprintf("%s (%s)", b.Players[int(b.Stats.Winner)-1].Name, b.Stats.WinnerMethod)
	}
	flags := ""
	if b.Stats.Truncated {
		flags += "  [truncated]"
	}
	if b.Stats.LowConfidence {
		flags += "  [low confidence]"
	}
	fmt.Fprintf(w, "\n%s (%s) vs %s (%s)  |  %.0fs  |  Winner: %s  |  ID: %s%s\n\n",
		b.Players[0].Name, b.Players[0].Character,
		b.Players[1].Name, b.Players[1].Character,
		b.Stats.Duration, winner, shortID(b.ID), flags)
}

// PrintStatsTable prints the per-player match stats.
func PrintStatsTable(w io.Writer, b *model.Bundle) {
	table := newTable(w)
	table.Header("PLAYER", "CHAR", "DMG_OUT", "DMG_IN", "MAX%", "STOCKS_LOST", "AVG_KILL%", "COMBOS", "COMBO_DMG", "OPENINGS", "NEUTRAL_W")

	for p := 0; p < 2; p++ {
		s := b.Stats.Players[p]
		killPct := "—"
		if len(s.KillPercents) > 0 {
			killPct = fmt.Sprintf("%.0f%%", s.AvgKillPercent())
		}
		comboDmg := "—"
		if s.Combos > 0 {
			comboDmg = fmt.Sprintf("%.0f%%", s.AvgComboDamage())
		}
		table.Append(
			b.Players[p].Name,
			b.Players[p].Character,
			fmt.Sprintf("%.0f%%", s.DamageDealt),
			fmt.Sprintf("%.0f%%", s.DamageTaken),
			fmt.Sprintf("%.0f%%", s.MaxPercent),
			strconv.Itoa(s.StocksLost),
			killPct,
			strconv.Itoa(s.Combos),
			comboDmg,
			strconv.Itoa(s.Openings),
			strconv.Itoa(s.NeutralWins),
		)
	}
	table.Render()
}

// PrintProfileTable prints both skill profiles side by side.
func PrintProfileTable(w io.Writer, b *model.Bundle) {
	if b.Profiles[0] == nil && b.Profiles[1] == nil {
		fmt.Fprintln(w, "no skill profile (insufficient signal)")
		return
	}
	table := newTable(w)
	table.Header("METRIC", "P1", "P2")

	score := func(prof *model.SkillProfile, id model.MetricID) string {
		if prof == nil {
			return "—"
		}
		m := prof.Metrics[id]
		marker := ""
		for _, s := range prof.Strengths {
			if s == id {
				marker = " +"
			}
		}
		for _, wk := range prof.Weaknesses {
			if wk == id {
				marker = " -"
			}
		}
		return fmt.Sprintf("%.0f%s", m.Score, marker)
	}
	for _, id := range model.MetricOrder {
		table.Append(string(id), score(b.Profiles[0], id), score(b.Profiles[1], id))
	}
	table.Render()

	for p := 0; p < 2; p++ {
		if prof := b.Profiles[p]; prof != nil {
			fmt.Fprintf(w, "%s overall: %.1f (%s, confidence %.2f)\n",
				b.Players[p].Name, prof.Overall, prof.Tier, prof.Confidence)
		}
	}
}

// PrintMoments prints the classified timeline, skipping bare damage ticks.
func PrintMoments(w io.Writer, b *model.Bundle) {
	table := newTable(w)
	table.Header("TIME", "KIND", "WHO", "MAG", "SEV", "DETAIL")
	for _, m := range b.Moments {
		if m.Kind == model.MomentDamage {
			continue
		}
		sev := string(m.Severity)
		if m.Priority {
			sev += " !"
		}
		table.Append(
			fmt.Sprintf("%.1fs", m.Start),
			m.Kind.String(),
			m.Actor.String(),
			fmt.Sprintf("%.0f", m.Magnitude),
			sev,
			m.Description,
		)
	}
	table.Render()
}

// PrintHabits prints detected habits with evidence.
func PrintHabits(w io.Writer, habits []model.Habit) {
	if len(habits) == 0 {
		fmt.Fprintln(w, "no repeated habits detected")
		return
	}
	for _, h := range habits {
		fmt.Fprintf(w, "[%s] %s: %s (%dx)\n", h.Severity, h.Player, h.Label, h.Occurrences)
		fmt.Fprintf(w, "    %s\n", strings.Join(h.Evidence, "; "))
		fmt.Fprintf(w, "    → %s\n", h.Suggestion)
	}
}

// PrintScouting prints the opponent report.
func PrintScouting(w io.Writer, rep *model.OpponentReport) {
	if rep == nil {
		return
	}
	fmt.Fprintf(w, "\nOpponent scouting (%s):\n", rep.Character)
	if len(rep.Deaths) > 0 {
		table := newTable(w)
		table.Header("DIED_AT%", "TIME", "CAUSE", "EARLY")
		for _, d := range rep.Deaths {
			early := ""
			if d.EarlyKill {
				early = "yes"
			}
			table.Append(fmt.Sprintf("%.0f%%", d.Percent), fmt.Sprintf("%.0fs", d.Time), d.Cause, early)
		}
		table.Render()
		fmt.Fprintf(w, "average kill percent: %.0f%%  |  neutral: %s\n", rep.AvgKillPercent, rep.NeutralStyle)
	}
	for _, e := range rep.Exploitable {
		fmt.Fprintf(w, "  exploit: %s\n", e)
	}
	for _, t := range rep.CharacterTips {
		fmt.Fprintf(w, "  matchup: %s\n", t)
	}
}

// PrintFocus prints the ranked focus areas.
func PrintFocus(w io.Writer, focus []model.FocusArea) {
	if len(focus) == 0 {
		return
	}
	fmt.Fprintln(w, "\nFocus areas:")
	for _, f := range focus {
		fmt.Fprintf(w, "  %d. %s — %s\n", f.Rank, f.Metric, f.Evidence)
		fmt.Fprintf(w, "     drill: %s\n", f.Drill)
	}
}

// PrintAdvice prints stored model advice.
func PrintAdvice(w io.Writer, adv *model.Advice) {
	if adv == nil {
		return
	}
	fmt.Fprintf(w, "\nCoach's notes (%s):\n%s\n", adv.Model, adv.Summary)
	for i, p := range adv.Points {
		fmt.Fprintf(w, "  %d. %s\n", i+1, p)
	}
}

// PrintAnalysisList prints stored analyses, newest first.
func PrintAnalysisList(w io.Writer, rows []storage.AnalysisRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "no stored analyses")
		return
	}
	table := newTable(w)
	table.Header("ID", "DATE", "P1", "P2", "WINNER", "DUR", "OVERALL")
	for _, r := range rows {
		winner := "—"
		switch r.Winner {
		case model.Player1:
			winner = r.P1Name
		case model.Player2:
			winner = r.P2Name
		}
		overall := "—"
		if r.Overall.Valid {
			overall = fmt.Sprintf("%.1f", r.Overall.Float64)
		}
		table.Append(
			shortID(r.ID),
			r.CreatedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%s (%s)", r.P1Name, r.P1Character),
			fmt.Sprintf("%s (%s)", r.P2Name, r.P2Character),
			winner,
			fmt.Sprintf("%.0fs", r.Duration),
			overall,
		)
	}
	table.Render()
}

// PrintTrend prints the trend comparison, or the not-enough-history note.
func PrintTrend(w io.Writer, rep *model.TrendReport) {
	if rep == nil {
		fmt.Fprintln(w, "not enough history for a trend (need at least 2 stored games)")
		return
	}
	fmt.Fprintf(w, "\nTrend for %s over %d games (win rate %.0f%%):\n", rep.Character, rep.Games, rep.WinRate*100)
	table := newTable(w)
	table.Header("METRIC", "NOW", "BASELINE", "DELTA")
	for _, m := range rep.Metrics {
		table.Append(
			string(m.Metric),
			fmt.Sprintf("%.0f", m.Current),
			fmt.Sprintf("%.0f", m.Baseline),
			fmt.Sprintf("%+.1f", m.Delta),
		)
	}
	table.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

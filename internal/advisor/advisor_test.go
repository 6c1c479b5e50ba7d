package advisor

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pable/go-smash-coach/internal/config"
	"github.com/pable/go-smash-coach/internal/model"
)

func testBundle() *model.Bundle {
	b := &model.Bundle{
		ID: "abc123",
		Players: [2]model.PlayerMeta{
			{Name: "Ken", Character: "marth"},
			{Name: "Isai", Character: "captain falcon"},
		},
		Moments: []model.Moment{
			{Kind: model.MomentCombo, Actor: model.Player1, Victim: model.Player2, Start: 10, End: 12, Magnitude: 45.27, Description: "3-hit combo for 45%"},
			{Kind: model.MomentEdgeguardKill, Actor: model.Player1, Victim: model.Player2, Start: 30, End: 30, Magnitude: 75},
		},
		Habits: []model.Habit{
			{Player: model.Player2, ID: "early_deaths", Label: "Losing stocks early", Occurrences: 2, Severity: model.SeverityMinor, Evidence: []string{"died at 45%"}},
		},
	}
	b.Stats.Duration = 100
	b.Stats.Winner = model.Player1
	b.Stats.WinnerMethod = model.WinByStocks
	b.Stats.Players[0].DamageDealt = 120.44
	b.Stats.Players[0].KillPercents = []float64{75, 110}
	b.Stats.Players[1].StocksLost = 2
	return b
}

func TestDigestIsCompactJSON(t *testing.T) {
	digest, err := Digest(testBundle())
	if err != nil {
		t.Fatalf("digest: %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(digest), &doc); err != nil {
		t.Fatalf("digest is not valid JSON: %v", err)
	}
	if doc["winner"] != "P1" {
		t.Errorf("winner: %v", doc["winner"])
	}
	if doc["duration_s"] != 100.0 {
		t.Errorf("duration: %v", doc["duration_s"])
	}

	players := doc["players"].([]interface{})
	if len(players) != 2 {
		t.Fatalf("players: %d", len(players))
	}
	p1 := players[0].(map[string]interface{})
	if p1["name"] != "Ken" || p1["damage_dealt"] != 120.4 {
		t.Errorf("p1 entry: %v", p1)
	}
	if _, ok := p1["skill"]; ok {
		t.Error("no profile means no skill block")
	}

	if !strings.Contains(digest, "died at 45%") {
		t.Error("habit evidence missing from digest")
	}
}

func TestDigestIncludesSkillWhenProfiled(t *testing.T) {
	b := testBundle()
	b.Profiles[0] = &model.SkillProfile{
		Player:  model.Player1,
		Overall: 71.35,
		Tier:    "high",
		Metrics: map[model.MetricID]model.SkillMetric{
			model.MetricComboQuality: {ID: model.MetricComboQuality, Score: 80},
		},
	}
	digest, err := Digest(b)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(digest, `"tier":"high"`) {
		t.Errorf("skill block missing: %s", digest)
	}
	if !strings.Contains(digest, "71.4") {
		t.Error("overall should be rounded to one decimal")
	}
}

func TestSplitNumbered(t *testing.T) {
	text := "You lost this one in neutral.\nThe damage gap tells the story.\n\n1. Stop rolling toward the ledge.\n2) Save your double jump.\n3. Take the first hit and reset."
	summary, points := splitNumbered(text)

	if summary != "You lost this one in neutral. The damage gap tells the story." {
		t.Errorf("summary: %q", summary)
	}
	if len(points) != 3 {
		t.Fatalf("points: %v", points)
	}
	if points[0] != "Stop rolling toward the ledge." || points[1] != "Save your double jump." {
		t.Errorf("points: %v", points)
	}
}

func TestSplitNumberedWithoutList(t *testing.T) {
	summary, points := splitNumbered("Just prose, no list here.")
	if summary != "Just prose, no list here." || len(points) != 0 {
		t.Errorf("got %q / %v", summary, points)
	}
}

func TestNewRequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := New(config.Default().Advisor, ""); err == nil {
		t.Error("no key anywhere should be an error")
	}
	if a, err := New(config.Default().Advisor, "sk-test"); err != nil || a == nil {
		t.Errorf("explicit key should work: %v", err)
	}
}

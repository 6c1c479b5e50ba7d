// Package characters carries the static matchup knowledge table. Lookup is by
// lowercase name; unknown characters return generic advice rather than an
// error.
package characters

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed characters.yaml
var tableYAML []byte

// Info describes one character's game plan from both sides.
type Info struct {
	Name        string   `yaml:"name"`
	Archetype   string   `yaml:"archetype"`
	Strengths   []string `yaml:"strengths"`
	Weaknesses  []string `yaml:"weaknesses"`
	KeyMoves    KeyMoves `yaml:"key_moves"`
	TipsAs      []string `yaml:"tips_as"`
	TipsAgainst []string `yaml:"tips_against"`
}

type KeyMoves struct {
	Neutral       []string `yaml:"neutral"`
	Kill          []string `yaml:"kill"`
	ComboStarters []string `yaml:"combo_starters"`
}

var table map[string]Info

func init() {
	if err := yaml.Unmarshal(tableYAML, &table); err != nil {
		panic(fmt.Sprintf("characters: bad embedded table: %v", err))
	}
}

// Lookup finds a character by name, case and whitespace insensitive.
func Lookup(name string) (Info, bool) {
	info, ok := table[strings.ToLower(strings.TrimSpace(name))]
	return info, ok
}

// Known returns whether the table has an entry for the name.
func Known(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// TipsAgainst returns matchup advice for fighting the named character, with a
// generic fallback for characters outside the table.
func TipsAgainst(name string) []string {
	if info, ok := Lookup(name); ok && len(info.TipsAgainst) > 0 {
		return info.TipsAgainst
	}
	return []string{
		"Watch for their most-repeated kill option and stop respecting everything else.",
		"Take note of their recovery path after the first stock; most players repeat it.",
	}
}

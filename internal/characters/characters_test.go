package characters

import "testing"

func TestLookupIsCaseInsensitive(t *testing.T) {
	for _, name := range []string{"fox", "Fox", " FOX "} {
		info, ok := Lookup(name)
		if !ok {
			t.Fatalf("Lookup(%q) missed", name)
		}
		if info.Name == "" || info.Archetype == "" {
			t.Errorf("Lookup(%q) returned sparse entry: %+v", name, info)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := Lookup("definitely not a fighter"); ok {
		t.Error("unknown character should miss")
	}
	if Known("definitely not a fighter") {
		t.Error("Known should agree with Lookup")
	}
}

func TestTableEntriesAreComplete(t *testing.T) {
	for key, info := range table {
		if info.Name == "" {
			t.Errorf("%s: missing name", key)
		}
		if len(info.Strengths) == 0 || len(info.Weaknesses) == 0 {
			t.Errorf("%s: missing strengths or weaknesses", key)
		}
		if len(info.TipsAgainst) == 0 {
			t.Errorf("%s: missing matchup tips", key)
		}
	}
}

func TestTipsAgainstFallback(t *testing.T) {
	known := TipsAgainst("marth")
	if len(known) == 0 {
		t.Fatal("known character should have tips")
	}
	generic := TipsAgainst("some modded fighter")
	if len(generic) == 0 {
		t.Fatal("unknown character should get generic tips")
	}
	if known[0] == generic[0] {
		t.Error("known tips should come from the table, not the fallback")
	}
}

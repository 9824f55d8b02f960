package profile

import (
	"testing"
	"time"
)

func TestGetFallsBackToDefault(t *testing.T) {
	r := Builtin()
	for _, name := range []string{"", "Impossible", "nightmare"} {
		if got := r.Get(name); got.Name != DefaultName {
			t.Fatalf("Get(%q) = %s, expected %s", name, got.Name, DefaultName)
		}
	}
}

func TestGetIsCaseInsensitive(t *testing.T) {
	r := Builtin()
	if got := r.Get("hard"); got.Name != "Hard" {
		t.Fatalf("expected Hard, got %s", got.Name)
	}
	if got := r.Get(" EASY "); got.Name != "Easy" {
		t.Fatalf("expected Easy, got %s", got.Name)
	}
}

func TestBuiltinDifficultyIncreases(t *testing.T) {
	list := Builtin().List()
	if len(list) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		prev, cur := list[i-1], list[i]
		if cur.SpawnInterval >= prev.SpawnInterval {
			t.Fatalf("%s should spawn faster than %s", cur.Name, prev.Name)
		}
		if cur.BadChance <= prev.BadChance {
			t.Fatalf("%s should have a higher bad chance than %s", cur.Name, prev.Name)
		}
		if cur.BadPenalty < prev.BadPenalty {
			t.Fatalf("%s should not have a lower penalty than %s", cur.Name, prev.Name)
		}
	}
}

func TestWithOverrides(t *testing.T) {
	interval := 400
	goal := 25
	r, err := Builtin().WithOverrides(map[string]Override{
		"hard": {SpawnIntervalMs: &interval, ScoreGoal: &goal},
	})
	if err != nil {
		t.Fatalf("overrides: %v", err)
	}
	hard := r.Get("Hard")
	if hard.SpawnInterval != 400*time.Millisecond || hard.ScoreGoal != 25 {
		t.Fatalf("override not applied: %+v", hard)
	}
	if hard.BadPenalty != Hard.BadPenalty {
		t.Fatalf("unset fields should be kept, got penalty %d", hard.BadPenalty)
	}
	if Builtin().Get("Hard").ScoreGoal != Hard.ScoreGoal {
		t.Fatalf("builtin registry must not change")
	}
}

func TestWithOverridesRejectsInvalid(t *testing.T) {
	chance := 1.5
	if _, err := Builtin().WithOverrides(map[string]Override{"Easy": {BadChance: &chance}}); err == nil {
		t.Fatalf("expected error for bad-chance > 1")
	}
	if _, err := Builtin().WithOverrides(map[string]Override{"Insane": {}}); err == nil {
		t.Fatalf("expected error for unknown profile")
	}
}

func TestNewRegistryRequiresDefault(t *testing.T) {
	if _, err := NewRegistry([]Profile{Easy}, "Normal"); err == nil {
		t.Fatalf("expected error when default is missing")
	}
	if _, err := NewRegistry([]Profile{Easy, Easy}, "Easy"); err == nil {
		t.Fatalf("expected error for duplicate names")
	}
}

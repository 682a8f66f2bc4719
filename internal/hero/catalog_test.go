package hero

import (
	"math/rand"
	"testing"
)

func TestCatalogBalanceValues(t *testing.T) {
	cases := []struct {
		id     string
		name   string
		health int
		speed  float64
		damage int
	}{
		{"blaze", "Blaze", 200, 5, 25},
		{"frost", "Frost", 200, 5, 20},
		{"shadow", "Shadow", 150, 7, 35},
		{"titan", "Titan", 400, 3, 15},
		{"healer", "Sage", 175, 4, 10},
		{"sniper", "Hawk", 150, 4, 45},
	}
	if got := len(All()); got != len(cases) {
		t.Fatalf("expected %d heroes, got %d", len(cases), got)
	}
	for _, tc := range cases {
		h, ok := Lookup(tc.id)
		if !ok {
			t.Fatalf("expected hero %q to exist", tc.id)
		}
		if h.Name != tc.name || h.MaxHealth != tc.health || h.Speed != tc.speed || h.AttackDamage != tc.damage {
			t.Fatalf("unexpected balance for %s: %+v", tc.id, h)
		}
	}
}

func TestResolveFallsBackToFirstHero(t *testing.T) {
	if got := Resolve("nope"); got.ID != DefaultID {
		t.Fatalf("expected fallback %q, got %q", DefaultID, got.ID)
	}
	if got := Resolve("titan"); got.ID != "titan" {
		t.Fatalf("expected titan, got %q", got.ID)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	heroes := All()
	heroes[0].Name = "mutated"
	if h, _ := Lookup("blaze"); h.Name != "Blaze" {
		t.Fatalf("catalog mutated through All(): %+v", h)
	}
}

func TestRandomStaysInCatalog(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		h := Random(rng)
		if _, ok := Lookup(h.ID); !ok {
			t.Fatalf("random hero %q not in catalog", h.ID)
		}
	}
}

package hero

import "math/rand"

// DefaultID is used whenever a client omits or misspells a hero id.
const DefaultID = "blaze"

// Hero describes the fixed balance values of a playable character.
type Hero struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	MaxHealth    int     `json:"health"`
	Speed        float64 `json:"speed"`
	AttackDamage int     `json:"attackDamage"`
}

var catalog = []Hero{
	{ID: "blaze", Name: "Blaze", MaxHealth: 200, Speed: 5, AttackDamage: 25},
	{ID: "frost", Name: "Frost", MaxHealth: 200, Speed: 5, AttackDamage: 20},
	{ID: "shadow", Name: "Shadow", MaxHealth: 150, Speed: 7, AttackDamage: 35},
	{ID: "titan", Name: "Titan", MaxHealth: 400, Speed: 3, AttackDamage: 15},
	{ID: "healer", Name: "Sage", MaxHealth: 175, Speed: 4, AttackDamage: 10},
	{ID: "sniper", Name: "Hawk", MaxHealth: 150, Speed: 4, AttackDamage: 45},
}

// All returns a copy of the catalog in its canonical order.
func All() []Hero {
	out := make([]Hero, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a hero by id.
func Lookup(id string) (Hero, bool) {
	for _, h := range catalog {
		if h.ID == id {
			return h, true
		}
	}
	return Hero{}, false
}

// Resolve returns the hero for id, falling back to the first catalog entry.
func Resolve(id string) Hero {
	if h, ok := Lookup(id); ok {
		return h
	}
	return catalog[0]
}

// Random picks a uniformly random hero.
func Random(rng *rand.Rand) Hero {
	if rng == nil {
		return catalog[rand.Intn(len(catalog))]
	}
	return catalog[rng.Intn(len(catalog))]
}

package state

import "hero-arena/server/internal/world"

// Projectile is a straight-flying shot owned by a combatant.
type Projectile struct {
	ID       string
	OwnerID  string
	HeroID   string
	Position world.Vec2
	// Velocity is measured in map units per 1/60 s.
	Velocity  world.Vec2
	Damage    int
	TicksLeft int
}

// Expired reports whether the projectile has used up its lifetime.
func (p *Projectile) Expired() bool {
	return p.TicksLeft <= 0
}

// HealthPack is a fixed pickup that heals and then goes on cooldown.
type HealthPack struct {
	Position world.Vec2
	Active   bool
	// ReadyTick is the first tick on which an inactive pack reactivates.
	ReadyTick uint64
}

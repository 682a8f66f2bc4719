package state

import (
	"testing"

	"hero-arena/server/internal/hero"
	"hero-arena/server/internal/world"
)

func newTitan(kind Kind) *Combatant {
	h, _ := hero.Lookup("titan")
	return NewCombatant("c1", "Tank", h, kind, world.Vec2{X: 10, Y: 20})
}

func TestNewCombatantUsesHeroValues(t *testing.T) {
	c := newTitan(KindHuman)
	if c.Health != 400 || c.MaxHealth != 400 || c.Speed != 3 || c.AttackDamage != 15 {
		t.Fatalf("unexpected stats %+v", c)
	}
	if c.Facing != DefaultFacing {
		t.Fatalf("expected default facing, got %+v", c.Facing)
	}
	if c.Bot != nil || c.IsBot() {
		t.Fatalf("expected human combatant without bot payload")
	}
	if bot := newTitan(KindBot); bot.Bot == nil || !bot.IsBot() {
		t.Fatalf("expected bot payload on bot combatant")
	}
}

func TestApplyDamageClampsAtZero(t *testing.T) {
	c := newTitan(KindHuman)
	c.Health = 10
	if killed := c.ApplyDamage(25); !killed {
		t.Fatalf("expected lethal hit to report kill")
	}
	if c.Health != 0 || c.Alive() {
		t.Fatalf("expected health clamped to 0, got %d", c.Health)
	}
	if killed := c.ApplyDamage(25); killed {
		t.Fatalf("expected damage on a dead combatant to be ignored")
	}
}

func TestHealCapsAtMax(t *testing.T) {
	c := newTitan(KindHuman)
	c.Health = 380
	if applied := c.Heal(50); applied != 20 || c.Health != 400 {
		t.Fatalf("expected heal capped at max, applied=%d health=%d", applied, c.Health)
	}
	if applied := c.Heal(50); applied != 0 {
		t.Fatalf("expected no heal at full health, got %d", applied)
	}
}

func TestRespawnRestoresHealth(t *testing.T) {
	c := newTitan(KindHuman)
	c.ApplyDamage(1000)
	c.Respawn(world.Vec2{X: 99, Y: 77})
	if c.Health != c.MaxHealth || c.Position != (world.Vec2{X: 99, Y: 77}) {
		t.Fatalf("unexpected respawn state %+v", c)
	}
}

func TestSetFacingIgnoresZero(t *testing.T) {
	c := newTitan(KindHuman)
	if c.SetFacing(world.Vec2{}) {
		t.Fatalf("expected zero facing to be rejected")
	}
	if !c.SetFacing(world.Vec2{X: 0, Y: -5}) || c.Facing != (world.Vec2{X: 0, Y: -1}) {
		t.Fatalf("unexpected facing %+v", c.Facing)
	}
}

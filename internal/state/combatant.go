package state

import (
	"time"

	"hero-arena/server/internal/hero"
	"hero-arena/server/internal/world"
)

// Kind tags who drives a combatant.
type Kind string

const (
	KindHuman Kind = "human"
	KindBot   Kind = "bot"
)

// DefaultFacing points along +X.
var DefaultFacing = world.Vec2{X: 1, Y: 0}

// BotState carries the fields only bot-driven combatants need.
type BotState struct {
	SkillLevel  int
	ActionTimer time.Duration
}

// Combatant is a human- or bot-controlled hero inside one match.
type Combatant struct {
	ID           string
	Name         string
	HeroID       string
	Kind         Kind
	Position     world.Vec2
	Health       int
	MaxHealth    int
	Speed        float64
	AttackDamage int
	Facing       world.Vec2
	Kills        int
	Deaths       int
	Bot          *BotState
}

// NewCombatant spawns a combatant at pos with the hero's full health.
func NewCombatant(id, name string, h hero.Hero, kind Kind, pos world.Vec2) *Combatant {
	c := &Combatant{
		ID:           id,
		Name:         name,
		HeroID:       h.ID,
		Kind:         kind,
		Position:     pos,
		Health:       h.MaxHealth,
		MaxHealth:    h.MaxHealth,
		Speed:        h.Speed,
		AttackDamage: h.AttackDamage,
		Facing:       DefaultFacing,
	}
	if kind == KindBot {
		c.Bot = &BotState{}
	}
	return c
}

// Alive reports whether the combatant can move, shoot and be targeted.
func (c *Combatant) Alive() bool {
	return c != nil && c.Health > 0
}

func (c *Combatant) IsBot() bool {
	return c != nil && c.Kind == KindBot
}

// ApplyDamage subtracts amount, clamping at zero, and reports whether this
// hit was the one that killed the combatant.
func (c *Combatant) ApplyDamage(amount int) bool {
	if c == nil || amount <= 0 || c.Health <= 0 {
		return false
	}
	c.Health -= amount
	if c.Health <= 0 {
		c.Health = 0
		return true
	}
	return false
}

// Heal adds amount capped at MaxHealth and returns what was applied.
func (c *Combatant) Heal(amount int) int {
	if c == nil || amount <= 0 || c.Health >= c.MaxHealth {
		return 0
	}
	before := c.Health
	c.Health += amount
	if c.Health > c.MaxHealth {
		c.Health = c.MaxHealth
	}
	return c.Health - before
}

// Respawn moves the combatant to pos with full health.
func (c *Combatant) Respawn(pos world.Vec2) {
	if c == nil {
		return
	}
	c.Position = pos
	c.Health = c.MaxHealth
}

// SetFacing stores the unit vector along dir; zero vectors are ignored.
func (c *Combatant) SetFacing(dir world.Vec2) bool {
	unit, ok := dir.Normalized()
	if !ok {
		return false
	}
	c.Facing = unit
	return true
}

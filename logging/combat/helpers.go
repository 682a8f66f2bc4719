package combat

import (
	"context"

	"hero-arena/server/logging"
)

const (
	// EventDamage is emitted when a projectile hits a combatant.
	EventDamage logging.EventType = "combat.damage"
	// EventKill is emitted when a hit takes a combatant to zero health.
	EventKill logging.EventType = "combat.kill"
	// EventHeal is emitted when a health pack is consumed.
	EventHeal logging.EventType = "combat.heal"
)

// DamagePayload captures the amount dealt to a single target.
type DamagePayload struct {
	HeroID       string `json:"heroId,omitempty"`
	Amount       int    `json:"amount"`
	TargetHealth int    `json:"targetHealth"`
}

// KillPayload describes a fatal hit and the killer's new score.
type KillPayload struct {
	KillerName string `json:"killerName"`
	VictimName string `json:"victimName"`
	Score      int    `json:"score"`
}

// HealPayload records a health pack pickup.
type HealPayload struct {
	Amount int `json:"amount"`
	Health int `json:"health"`
}

// Damage publishes a combat damage event for a single target.
func Damage(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload DamagePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventDamage,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Kill publishes a combat kill event for the eliminated combatant.
func Kill(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload KillPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventKill,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Heal publishes a health pack pickup.
func Heal(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload HealPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventHeal,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

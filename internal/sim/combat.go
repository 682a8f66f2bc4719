package sim

import (
	"context"

	"hero-arena/server/internal/net/proto"
	"hero-arena/server/internal/state"
	"hero-arena/server/internal/world"
	combatlog "hero-arena/server/logging/combat"
)

func (m *Match) spawnProjectile(owner *state.Combatant) {
	m.projectiles = append(m.projectiles, &state.Projectile{
		ID:        m.deps.NewID(),
		OwnerID:   owner.ID,
		HeroID:    owner.HeroID,
		Position:  owner.Position,
		Velocity:  owner.Facing.Scale(m.cfg.ProjectileSpeed),
		Damage:    owner.AttackDamage,
		TicksLeft: int(m.cfg.Ticks(m.cfg.ProjectileLife)),
	})
}

// stepProjectiles integrates every projectile once and resolves hits.
// Velocity is expressed per 1/60 s regardless of the tick rate.
func (m *Match) stepProjectiles() {
	if len(m.projectiles) == 0 {
		return
	}
	scale := 60 / float64(m.cfg.TickRate)
	arena := m.layout.Bounds(0)
	live := m.projectiles
	kept := live[:0]
	for _, p := range live {
		p.Position = p.Position.Add(p.Velocity.Scale(scale))
		p.TicksLeft--
		if p.Expired() || !arena.Contains(p.Position) {
			continue
		}
		if victim := m.firstHit(p); victim != nil {
			m.applyHit(p, victim)
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(live); i++ {
		live[i] = nil
	}
	m.projectiles = kept
}

// firstHit returns the lowest-id living combatant, other than the owner,
// strictly inside the hit radius.
func (m *Match) firstHit(p *state.Projectile) *state.Combatant {
	for _, id := range m.index.near(p.Position, m.cfg.HitRadius) {
		c := m.combatants[id]
		if c == nil || c.ID == p.OwnerID || !c.Alive() {
			continue
		}
		if world.Distance(c.Position, p.Position) < m.cfg.HitRadius {
			return c
		}
	}
	return nil
}

func (m *Match) applyHit(p *state.Projectile, victim *state.Combatant) {
	killed := victim.ApplyDamage(p.Damage)
	combatlog.Damage(context.Background(), m.deps.Publisher, m.tick, combatantRef(m.combatants[p.OwnerID]), combatantRef(victim), combatlog.DamagePayload{
		HeroID:       p.HeroID,
		Amount:       p.Damage,
		TargetHealth: victim.Health,
	}, map[string]any{"session": m.id})
	if killed {
		m.HandleKill(p.OwnerID, victim.ID)
	}
}

// HandleKill credits killerID with one kill and schedules victimID to respawn.
// Either id may belong to a combatant that already left.
func (m *Match) HandleKill(killerID, victimID string) {
	if m.status != StatusPlaying {
		return
	}
	killer := m.combatants[killerID]
	victim := m.combatants[victimID]

	if killer != nil {
		killer.Kills++
		m.scores[killerID]++
		if m.scores[killerID] >= m.cfg.KillsToWin {
			if _, ok := m.crossedAt[killerID]; !ok {
				m.crossingSeq++
				m.crossedAt[killerID] = m.crossingSeq
			}
		}
	}
	if victim != nil {
		victim.Deaths++
		m.respawns = append(m.respawns, pendingRespawn{
			due: m.tick + m.cfg.Ticks(m.cfg.RespawnDelay),
			id:  victimID,
		})
	}

	killerName, victimName := "Unknown", "Unknown"
	if killer != nil {
		killerName = killer.Name
	}
	if victim != nil {
		victimName = victim.Name
	}
	m.broadcast(proto.Kill{Type: proto.TypeKill, KillerName: killerName, VictimName: victimName})

	score := 0
	if killer != nil {
		score = m.scores[killerID]
	}
	combatlog.Kill(context.Background(), m.deps.Publisher, m.tick, combatantRef(killer), combatantRef(victim), combatlog.KillPayload{
		KillerName: killerName,
		VictimName: victimName,
		Score:      score,
	}, map[string]any{"session": m.id})
}

// CheckWinCondition ends the match when a score entry has reached the kill
// target. Simultaneous crossings go to whoever crossed first.
func (m *Match) CheckWinCondition() bool {
	if m.status != StatusPlaying {
		return false
	}
	winner := ""
	var best uint64
	for id, seq := range m.crossedAt {
		if m.scores[id] < m.cfg.KillsToWin {
			continue
		}
		if winner == "" || seq < best {
			winner = id
			best = seq
		}
	}
	if winner == "" {
		return false
	}
	m.EndGame(winner)
	return true
}

// stepHealthPacks reactivates packs whose cooldown elapsed and lets the
// lowest-id injured combatant in range consume each active pack.
func (m *Match) stepHealthPacks() {
	for i := range m.packs {
		pack := &m.packs[i]
		if !pack.Active {
			if m.tick >= pack.ReadyTick {
				pack.Active = true
			}
			continue
		}
		for _, id := range m.index.near(pack.Position, m.cfg.PickupRadius) {
			c := m.combatants[id]
			if c == nil || !c.Alive() || c.Health >= c.MaxHealth {
				continue
			}
			if world.Distance(c.Position, pack.Position) >= m.cfg.PickupRadius {
				continue
			}
			applied := c.Heal(m.cfg.PackHeal)
			pack.Active = false
			pack.ReadyTick = m.tick + m.cfg.Ticks(m.cfg.PackRespawn)
			combatlog.Heal(context.Background(), m.deps.Publisher, m.tick, combatantRef(c), combatlog.HealPayload{
				Amount: applied,
				Health: c.Health,
			}, map[string]any{"session": m.id})
			break
		}
	}
}

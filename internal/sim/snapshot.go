package sim

import (
	"hero-arena/server/internal/net/proto"
	"hero-arena/server/internal/state"
)

// Snapshot builds the gameState message for the current tick.
func (m *Match) Snapshot() proto.GameState {
	out := proto.GameState{
		Type:        proto.TypeGameState,
		Players:     make([]proto.CombatantState, 0, m.humanCount),
		Bots:        make([]proto.CombatantState, 0, m.botCount),
		Projectiles: make([]proto.ProjectileState, 0, len(m.projectiles)),
		HealthPacks: m.packStates(),
		KillScores:  m.copyScores(),
	}
	for _, id := range m.joinOrder {
		c := m.combatants[id]
		if c == nil {
			continue
		}
		if c.IsBot() {
			out.Bots = append(out.Bots, combatantState(c))
		} else {
			out.Players = append(out.Players, combatantState(c))
		}
	}
	for _, p := range m.projectiles {
		out.Projectiles = append(out.Projectiles, proto.ProjectileState{
			ID:     p.ID,
			X:      p.Position.X,
			Y:      p.Position.Y,
			HeroID: p.HeroID,
		})
	}
	return out
}

// MapPayload describes the arena for matchFound.
func (m *Match) MapPayload() proto.MapPayload {
	return proto.MapPayload{
		Width:       m.layout.Width,
		Height:      m.layout.Height,
		Walls:       m.layout.Walls,
		Obstacles:   m.layout.Obstacles,
		SpawnPoints: m.layout.SpawnPoints,
		Theme:       m.layout.Theme,
		HealthPacks: m.packStates(),
	}
}

func combatantState(c *state.Combatant) proto.CombatantState {
	return proto.CombatantState{
		ID:        c.ID,
		Username:  c.Name,
		HeroID:    c.HeroID,
		X:         c.Position.X,
		Y:         c.Position.Y,
		Health:    c.Health,
		MaxHealth: c.MaxHealth,
		Direction: c.Facing,
		Kills:     c.Kills,
		Deaths:    c.Deaths,
		IsBot:     c.IsBot(),
	}
}

func (m *Match) packStates() []proto.HealthPackState {
	out := make([]proto.HealthPackState, 0, len(m.packs))
	for _, pack := range m.packs {
		st := proto.HealthPackState{X: pack.Position.X, Y: pack.Position.Y, Active: pack.Active}
		if !pack.Active && pack.ReadyTick > m.tick {
			st.RespawnTime = (m.cfg.Elapsed(pack.ReadyTick) - m.cfg.Elapsed(m.tick)).Milliseconds()
		}
		out = append(out, st)
	}
	return out
}

func (m *Match) copyScores() map[string]int {
	out := make(map[string]int, len(m.scores))
	for id, s := range m.scores {
		out[id] = s
	}
	return out
}

func (m *Match) broadcastState() {
	m.broadcast(m.Snapshot())
}

// broadcast sends msg to every human still in the match.
func (m *Match) broadcast(msg any) {
	recipients := m.Humans()
	if len(recipients) == 0 {
		return
	}
	m.deps.Broadcaster.Broadcast(recipients, msg)
}

package ai

import (
	"fmt"

	"hero-arena/server/internal/hero"
	"hero-arena/server/internal/state"
	"hero-arena/server/internal/world"
)

// DefaultSkill is the skill level assigned to backfill bots.
const DefaultSkill = 1000

var botNames = []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta", "Eta", "Theta"}

// BotName returns the display name for the index-th bot of a match.
func BotName(index int) string {
	if index < 0 {
		index = -index
	}
	return fmt.Sprintf("Bot %s", botNames[index%len(botNames)])
}

// SpeedMultiplier maps a skill level onto [0.8, 1.2].
func SpeedMultiplier(skill int) float64 {
	m := 0.8 + (float64(skill)/2000)*0.4
	return world.Clamp(m, 0.8, 1.2)
}

// SpawnConfig describes a bot about to join a match.
type SpawnConfig struct {
	ID       string
	Index    int
	Skill    int
	Hero     hero.Hero
	Position world.Vec2
}

// SpawnBot builds a bot combatant. Skill only scales movement speed.
func SpawnBot(cfg SpawnConfig) *state.Combatant {
	bot := state.NewCombatant(cfg.ID, BotName(cfg.Index), cfg.Hero, state.KindBot, cfg.Position)
	bot.Speed = cfg.Hero.Speed * SpeedMultiplier(cfg.Skill)
	bot.Bot.SkillLevel = cfg.Skill
	return bot
}

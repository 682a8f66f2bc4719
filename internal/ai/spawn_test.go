package ai

import (
	"testing"

	"hero-arena/server/internal/hero"
	"hero-arena/server/internal/world"
)

func TestSpeedMultiplierBounds(t *testing.T) {
	cases := map[int]float64{
		0:     0.8,
		1000:  1.0,
		2000:  1.2,
		10000: 1.2,
		-500:  0.8,
	}
	for skill, want := range cases {
		if got := SpeedMultiplier(skill); got != want {
			t.Fatalf("SpeedMultiplier(%d) = %v, want %v", skill, got, want)
		}
	}
}

func TestBotNameCycles(t *testing.T) {
	if got := BotName(0); got != "Bot Alpha" {
		t.Fatalf("unexpected first bot name %q", got)
	}
	if got := BotName(9); got != "Bot Beta" {
		t.Fatalf("expected names to cycle, got %q", got)
	}
}

func TestSpawnBotScalesSpeedOnly(t *testing.T) {
	h, _ := hero.Lookup("shadow")
	bot := SpawnBot(SpawnConfig{ID: "bot_1", Index: 2, Skill: DefaultSkill, Hero: h, Position: world.Vec2{X: 5, Y: 5}})
	if bot.Speed != 7 {
		t.Fatalf("expected default skill to keep hero speed, got %v", bot.Speed)
	}
	if bot.AttackDamage != h.AttackDamage || bot.MaxHealth != h.MaxHealth {
		t.Fatalf("skill should not change combat stats: %+v", bot)
	}
	if bot.Name != "Bot Gamma" || bot.Bot.SkillLevel != DefaultSkill {
		t.Fatalf("unexpected bot identity %+v", bot)
	}
}

package ai

import (
	"math/rand"
	"testing"
	"time"

	"hero-arena/server/internal/hero"
	"hero-arena/server/internal/state"
	"hero-arena/server/internal/world"
)

var testBounds = world.Bounds{Width: 2000, Height: 1500, Margin: 20}

func newBot(x, y float64) *state.Combatant {
	h, _ := hero.Lookup("blaze")
	return SpawnBot(SpawnConfig{ID: "bot_a", Skill: DefaultSkill, Hero: h, Position: world.Vec2{X: x, Y: y}})
}

func newTarget(id string, x, y float64) *state.Combatant {
	h, _ := hero.Lookup("blaze")
	return state.NewCombatant(id, id, h, state.KindHuman, world.Vec2{X: x, Y: y})
}

func TestStepWaitsForCooldown(t *testing.T) {
	ctrl := NewController(DefaultConfig(), rand.New(rand.NewSource(1)))
	bot := newBot(100, 100)
	bot.Bot.ActionTimer = time.Second

	d := ctrl.Step(bot, []*state.Combatant{newTarget("p", 1000, 100)}, 100*time.Millisecond, testBounds)
	if d.Acted {
		t.Fatalf("expected no decision while cooldown is pending")
	}
	if bot.Bot.ActionTimer != 900*time.Millisecond {
		t.Fatalf("expected timer to tick down, got %v", bot.Bot.ActionTimer)
	}
}

func TestStepApproachesDistantTarget(t *testing.T) {
	ctrl := NewController(DefaultConfig(), rand.New(rand.NewSource(1)))
	bot := newBot(100, 100)
	d := ctrl.Step(bot, []*state.Combatant{newTarget("p", 1000, 100)}, 0, testBounds)
	if !d.Acted || d.TargetID != "p" {
		t.Fatalf("expected bot to act on target p, got %+v", d)
	}
	if bot.Position.X != 105 || bot.Position.Y != 100 {
		t.Fatalf("expected one speed step toward target, got %+v", bot.Position)
	}
	if d.Fire {
		t.Fatalf("target beyond fire range must not be shot at")
	}
	if bot.Bot.ActionTimer < 500*time.Millisecond || bot.Bot.ActionTimer >= 1500*time.Millisecond {
		t.Fatalf("cooldown out of range: %v", bot.Bot.ActionTimer)
	}
}

func TestStepHoldsPositionInsideEngageRange(t *testing.T) {
	ctrl := NewController(DefaultConfig(), rand.New(rand.NewSource(1)))
	bot := newBot(100, 100)
	ctrl.Step(bot, []*state.Combatant{newTarget("p", 100, 300)}, 0, testBounds)
	if bot.Position != (world.Vec2{X: 100, Y: 100}) {
		t.Fatalf("expected bot to hold position, got %+v", bot.Position)
	}
	if bot.Facing != (world.Vec2{X: 0, Y: 1}) {
		t.Fatalf("expected bot to face target, got %+v", bot.Facing)
	}
}

func TestStepPicksNearestLivingTarget(t *testing.T) {
	ctrl := NewController(DefaultConfig(), rand.New(rand.NewSource(1)))
	bot := newBot(100, 100)
	dead := newTarget("dead", 110, 100)
	dead.Health = 0
	far := newTarget("far", 900, 100)
	near := newTarget("near", 400, 100)

	d := ctrl.Step(bot, []*state.Combatant{bot, dead, far, near}, 0, testBounds)
	if d.TargetID != "near" {
		t.Fatalf("expected nearest living target, got %q", d.TargetID)
	}
}

func TestStepFiresAtConfiguredRate(t *testing.T) {
	cfg := DefaultConfig()
	ctrl := NewController(cfg, rand.New(rand.NewSource(42)))
	fired := 0
	const rounds = 2000
	for i := 0; i < rounds; i++ {
		bot := newBot(100, 100)
		if ctrl.Step(bot, []*state.Combatant{newTarget("p", 200, 100)}, 0, testBounds).Fire {
			fired++
		}
	}
	ratio := float64(fired) / rounds
	if ratio < 0.25 || ratio > 0.35 {
		t.Fatalf("expected fire ratio near 0.3, got %v", ratio)
	}
}

func TestStepClampsToBounds(t *testing.T) {
	ctrl := NewController(DefaultConfig(), rand.New(rand.NewSource(1)))
	bot := newBot(5, 5)
	ctrl.Step(bot, nil, 0, testBounds)
	if bot.Position != (world.Vec2{X: 20, Y: 20}) {
		t.Fatalf("expected clamp to margin, got %+v", bot.Position)
	}
}

func TestDeadBotDoesNothing(t *testing.T) {
	ctrl := NewController(DefaultConfig(), rand.New(rand.NewSource(1)))
	bot := newBot(100, 100)
	bot.Health = 0
	if d := ctrl.Step(bot, []*state.Combatant{newTarget("p", 1000, 100)}, 0, testBounds); d.Acted {
		t.Fatalf("dead bots must not act")
	}
}

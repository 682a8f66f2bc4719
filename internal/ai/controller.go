package ai

import (
	"math"
	"math/rand"
	"time"

	"hero-arena/server/internal/state"
	"hero-arena/server/internal/world"
)

// Config tunes bot decision making.
type Config struct {
	MinCooldown time.Duration
	MaxCooldown time.Duration
	EngageRange float64
	FireRange   float64
	FireChance  float64
}

func DefaultConfig() Config {
	return Config{
		MinCooldown: 500 * time.Millisecond,
		MaxCooldown: 1500 * time.Millisecond,
		EngageRange: 300,
		FireRange:   500,
		FireChance:  0.3,
	}
}

// Decision is what a bot chose to do this tick.
type Decision struct {
	Acted    bool
	TargetID string
	Fire     bool
}

// Controller drives bots toward the nearest living combatant. There is no
// pathfinding; bots walk straight through walls and obstacles.
type Controller struct {
	cfg Config
	rng *rand.Rand
}

func NewController(cfg Config, rng *rand.Rand) *Controller {
	if cfg.MaxCooldown < cfg.MinCooldown {
		cfg.MaxCooldown = cfg.MinCooldown
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Controller{cfg: cfg, rng: rng}
}

// Step advances one bot by dt. candidates must be in a stable order; ties on
// distance go to the earlier candidate.
func (c *Controller) Step(bot *state.Combatant, candidates []*state.Combatant, dt time.Duration, bounds world.Bounds) Decision {
	if bot == nil || bot.Bot == nil || !bot.Alive() {
		return Decision{}
	}
	bot.Bot.ActionTimer -= dt
	if bot.Bot.ActionTimer > 0 {
		return Decision{}
	}
	bot.Bot.ActionTimer = c.nextCooldown()

	decision := Decision{Acted: true}
	target, dist := nearest(bot, candidates)
	if target != nil {
		decision.TargetID = target.ID
		bot.SetFacing(target.Position.Sub(bot.Position))
		if dist > c.cfg.EngageRange {
			bot.Position = bot.Position.Add(bot.Facing.Scale(bot.Speed))
		}
		if dist < c.cfg.FireRange && c.rng.Float64() < c.cfg.FireChance {
			decision.Fire = true
		}
	}
	bot.Position = bounds.ClampInside(bot.Position)
	return decision
}

func (c *Controller) nextCooldown() time.Duration {
	span := c.cfg.MaxCooldown - c.cfg.MinCooldown
	if span <= 0 {
		return c.cfg.MinCooldown
	}
	return c.cfg.MinCooldown + time.Duration(c.rng.Int63n(int64(span)))
}

func nearest(bot *state.Combatant, candidates []*state.Combatant) (*state.Combatant, float64) {
	var best *state.Combatant
	bestDist := math.Inf(1)
	for _, other := range candidates {
		if other == nil || other.ID == bot.ID || !other.Alive() {
			continue
		}
		d := world.Distance(bot.Position, other.Position)
		if d < bestDist {
			best = other
			bestDist = d
		}
	}
	return best, bestDist
}

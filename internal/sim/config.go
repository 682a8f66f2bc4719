package sim

import (
	"time"

	"hero-arena/server/internal/ai"
)

const (
	DefaultTickRate        = 60
	DefaultBroadcastEvery  = 3
	DefaultMatchSize       = 10
	DefaultKillsToWin      = 50
	DefaultRespawnDelay    = 3 * time.Second
	DefaultHitRadius       = 25.0
	DefaultProjectileSpeed = 15.0
	DefaultProjectileLife  = 2 * time.Second
	DefaultPickupRadius    = 40.0
	DefaultPackHeal        = 50
	DefaultPackRespawn     = 30 * time.Second
	DefaultBoundaryMargin  = 20.0
)

// Config tunes a single match. Durations are converted to whole ticks, so
// any delay that is a multiple of the tick duration fires on an exact tick.
type Config struct {
	TickRate        int
	BroadcastEvery  int
	MatchSize       int
	KillsToWin      int
	RespawnDelay    time.Duration
	HitRadius       float64
	ProjectileSpeed float64
	ProjectileLife  time.Duration
	PickupRadius    float64
	PackHeal        int
	PackRespawn     time.Duration
	BoundaryMargin  float64
	BotSkill        int
	AI              ai.Config
}

func DefaultConfig() Config {
	return Config{
		TickRate:        DefaultTickRate,
		BroadcastEvery:  DefaultBroadcastEvery,
		MatchSize:       DefaultMatchSize,
		KillsToWin:      DefaultKillsToWin,
		RespawnDelay:    DefaultRespawnDelay,
		HitRadius:       DefaultHitRadius,
		ProjectileSpeed: DefaultProjectileSpeed,
		ProjectileLife:  DefaultProjectileLife,
		PickupRadius:    DefaultPickupRadius,
		PackHeal:        DefaultPackHeal,
		PackRespawn:     DefaultPackRespawn,
		BoundaryMargin:  DefaultBoundaryMargin,
		BotSkill:        ai.DefaultSkill,
		AI:              ai.DefaultConfig(),
	}
}

// Normalized replaces non-positive values with their defaults.
func (c Config) Normalized() Config {
	def := DefaultConfig()
	if c.TickRate <= 0 {
		c.TickRate = def.TickRate
	}
	if c.BroadcastEvery <= 0 {
		c.BroadcastEvery = def.BroadcastEvery
	}
	if c.MatchSize <= 0 {
		c.MatchSize = def.MatchSize
	}
	if c.KillsToWin <= 0 {
		c.KillsToWin = def.KillsToWin
	}
	if c.RespawnDelay <= 0 {
		c.RespawnDelay = def.RespawnDelay
	}
	if c.HitRadius <= 0 {
		c.HitRadius = def.HitRadius
	}
	if c.ProjectileSpeed <= 0 {
		c.ProjectileSpeed = def.ProjectileSpeed
	}
	if c.ProjectileLife <= 0 {
		c.ProjectileLife = def.ProjectileLife
	}
	if c.PickupRadius <= 0 {
		c.PickupRadius = def.PickupRadius
	}
	if c.PackHeal <= 0 {
		c.PackHeal = def.PackHeal
	}
	if c.PackRespawn <= 0 {
		c.PackRespawn = def.PackRespawn
	}
	if c.BoundaryMargin < 0 {
		c.BoundaryMargin = def.BoundaryMargin
	}
	if c.BotSkill <= 0 {
		c.BotSkill = def.BotSkill
	}
	if c.AI.MinCooldown <= 0 && c.AI.MaxCooldown <= 0 {
		c.AI = def.AI
	}
	return c
}

// TickDuration is the simulated time covered by one Step.
func (c Config) TickDuration() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// Ticks converts d into the smallest whole number of ticks covering it.
func (c Config) Ticks(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	n := (int64(d)*int64(c.TickRate) + int64(time.Second) - 1) / int64(time.Second)
	return uint64(n)
}

// Elapsed is the match time at the given tick.
func (c Config) Elapsed(tick uint64) time.Duration {
	return time.Duration(tick) * time.Second / time.Duration(c.TickRate)
}

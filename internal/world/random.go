package world

import (
	"hash/fnv"
	"math/rand"
	"time"
)

func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	seedValue := DeterministicSeedValue(rootSeed, label)
	return rand.New(rand.NewSource(seedValue))
}

// NewSessionRNG returns the generator a session draws its map, bots and
// respawn points from. Without a configured seed every session differs.
func NewSessionRNG(cfg Config, sessionID string) *rand.Rand {
	if cfg.Seed != "" {
		return NewDeterministicRNG(cfg.Seed, sessionID)
	}
	return rand.New(rand.NewSource(time.Now().UnixNano() ^ DeterministicSeedValue("session", sessionID)))
}

func RandomFloat(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.Float64()
	}
	return rng.Float64()
}

// RandomRange returns a value in [min, min+span).
func RandomRange(rng *rand.Rand, min, span float64) float64 {
	if span <= 0 {
		return min
	}
	return min + RandomFloat(rng)*span
}

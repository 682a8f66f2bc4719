package world

import "math/rand"

// Map is the immutable arena layout of a single session.
type Map struct {
	Width       float64
	Height      float64
	Walls       []Wall
	Obstacles   []Obstacle
	SpawnPoints []Vec2
	Theme       Theme
	// HealthPacks are the fixed pickup positions.
	HealthPacks []Vec2
}

// Generate builds a fresh layout from cfg using rng.
func Generate(cfg Config, rng *rand.Rand) Map {
	cfg = cfg.normalized()
	w, h := cfg.Width, cfg.Height
	return Map{
		Width:       w,
		Height:      h,
		Walls:       GenerateWalls(rng, w, h, cfg.Walls),
		Obstacles:   GenerateObstacles(rng, w, h, cfg.Obstacles),
		SpawnPoints: GenerateSpawnPoints(rng, w, h, cfg.SpawnPoints),
		Theme:       cfg.Theme,
		HealthPacks: []Vec2{
			{X: w * 0.25, Y: h * 0.5},
			{X: w * 0.75, Y: h * 0.5},
		},
	}
}

// Bounds returns the playable rectangle with the given edge margin.
func (m Map) Bounds(margin float64) Bounds {
	return Bounds{Width: m.Width, Height: m.Height, Margin: margin}
}

// SpawnPoint returns the spawn point at index i, wrapping around.
func (m Map) SpawnPoint(i int) Vec2 {
	if len(m.SpawnPoints) == 0 {
		return Vec2{X: m.Width / 2, Y: m.Height / 2}
	}
	if i < 0 {
		i = -i
	}
	return m.SpawnPoints[i%len(m.SpawnPoints)]
}

// RandomSpawnPoint picks a spawn point uniformly.
func (m Map) RandomSpawnPoint(rng *rand.Rand) Vec2 {
	if len(m.SpawnPoints) == 0 {
		return m.SpawnPoint(0)
	}
	if rng == nil {
		return m.SpawnPoints[rand.Intn(len(m.SpawnPoints))]
	}
	return m.SpawnPoints[rng.Intn(len(m.SpawnPoints))]
}

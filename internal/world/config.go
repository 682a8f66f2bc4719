package world

import "strings"

const (
	DefaultWidth           = 2000.0
	DefaultHeight          = 1500.0
	DefaultWallCount       = 8
	DefaultObstacleCount   = 5
	DefaultSpawnPointCount = 12
	// DefaultMargin keeps combatants this far from every map edge.
	DefaultMargin = 20.0
)

// Theme carries the cosmetic palette clients render the arena with.
type Theme struct {
	BgColor     string `json:"bgColor" yaml:"bgColor" toml:"bg_color"`
	WallColor   string `json:"wallColor" yaml:"wallColor" toml:"wall_color"`
	AccentColor string `json:"accentColor" yaml:"accentColor" toml:"accent_color"`
}

// DefaultTheme is the dark arena palette.
func DefaultTheme() Theme {
	return Theme{BgColor: "#1a1a2e", WallColor: "#4a4a6a", AccentColor: "#ff6b35"}
}

type Config struct {
	Width       float64 `json:"width" yaml:"width" toml:"width"`
	Height      float64 `json:"height" yaml:"height" toml:"height"`
	Walls       int     `json:"walls" yaml:"walls" toml:"walls"`
	Obstacles   int     `json:"obstacles" yaml:"obstacles" toml:"obstacles"`
	SpawnPoints int     `json:"spawnPoints" yaml:"spawnPoints" toml:"spawn_points"`
	// Seed makes map generation reproducible. Empty means a fresh layout per session.
	Seed  string `json:"seed,omitempty" yaml:"seed" toml:"seed"`
	Theme Theme  `json:"theme" yaml:"theme" toml:"theme"`
}

func (cfg Config) normalized() Config {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Width <= 0 {
		normalized.Width = DefaultWidth
	}
	if normalized.Height <= 0 {
		normalized.Height = DefaultHeight
	}
	if normalized.Walls < 0 {
		normalized.Walls = 0
	}
	if normalized.Obstacles < 0 {
		normalized.Obstacles = 0
	}
	if normalized.SpawnPoints <= 0 {
		normalized.SpawnPoints = DefaultSpawnPointCount
	}
	defaults := DefaultTheme()
	if normalized.Theme.BgColor == "" {
		normalized.Theme.BgColor = defaults.BgColor
	}
	if normalized.Theme.WallColor == "" {
		normalized.Theme.WallColor = defaults.WallColor
	}
	if normalized.Theme.AccentColor == "" {
		normalized.Theme.AccentColor = defaults.AccentColor
	}
	return normalized
}

func (cfg Config) Normalized() Config {
	return cfg.normalized()
}

func DefaultConfig() Config {
	return Config{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Walls:       DefaultWallCount,
		Obstacles:   DefaultObstacleCount,
		SpawnPoints: DefaultSpawnPointCount,
		Theme:       DefaultTheme(),
	}
}

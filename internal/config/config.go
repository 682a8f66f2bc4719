// Package config loads server settings from YAML or TOML files, .env files
// and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"hero-arena/server/internal/lobby"
	"hero-arena/server/internal/matchmaking"
	"hero-arena/server/internal/observability"
	"hero-arena/server/internal/session"
	"hero-arena/server/internal/sim"
	"hero-arena/server/internal/telemetry"
	"hero-arena/server/internal/world"
	"hero-arena/server/logging"
)

// ErrUnsupportedFormat is returned for config files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

type Config struct {
	Server        ServerConfig         `yaml:"server" toml:"server"`
	Match         MatchConfig          `yaml:"match" toml:"match"`
	Matchmaking   MatchmakingConfig    `yaml:"matchmaking" toml:"matchmaking"`
	Rooms         RoomsConfig          `yaml:"rooms" toml:"rooms"`
	Logging       LoggingConfig        `yaml:"logging" toml:"logging"`
	Observability observability.Config `yaml:"observability" toml:"observability"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" toml:"addr"`
	ClientDir       string        `yaml:"clientDir" toml:"client_dir"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" toml:"shutdown_timeout"`
	SendBuffer      int           `yaml:"sendBuffer" toml:"send_buffer"`
}

type MatchConfig struct {
	TickRate       int           `yaml:"tickRate" toml:"tick_rate"`
	BroadcastEvery int           `yaml:"broadcastEvery" toml:"broadcast_every"`
	MatchSize      int           `yaml:"matchSize" toml:"match_size"`
	KillsToWin     int           `yaml:"killsToWin" toml:"kills_to_win"`
	RespawnDelay   time.Duration `yaml:"respawnDelay" toml:"respawn_delay"`
	BotSkill       int           `yaml:"botSkill" toml:"bot_skill"`
	TeardownDelay  time.Duration `yaml:"teardownDelay" toml:"teardown_delay"`
	World          world.Config  `yaml:"world" toml:"world"`
}

type MatchmakingConfig struct {
	Interval            time.Duration `yaml:"interval" toml:"interval"`
	MinBatch            int           `yaml:"minBatch" toml:"min_batch"`
	StartDelay          time.Duration `yaml:"startDelay" toml:"start_delay"`
	Timeout             time.Duration `yaml:"timeout" toml:"timeout"`
	TimeoutStartDelay   time.Duration `yaml:"timeoutStartDelay" toml:"timeout_start_delay"`
	QuickPlayStartDelay time.Duration `yaml:"quickPlayStartDelay" toml:"quick_play_start_delay"`
}

type RoomsConfig struct {
	MaxMembers int           `yaml:"maxMembers" toml:"max_members"`
	StartDelay time.Duration `yaml:"startDelay" toml:"start_delay"`
}

type LoggingConfig struct {
	// Level is the zap level for operational logs.
	Level string `yaml:"level" toml:"level"`
	// Format is "production" (JSON) or "development" (console).
	Format     string   `yaml:"format" toml:"format"`
	Sinks      []string `yaml:"sinks" toml:"sinks"`
	BufferSize int      `yaml:"bufferSize" toml:"buffer_size"`
	// MinimumSeverity filters gameplay events.
	MinimumSeverity string `yaml:"minimumSeverity" toml:"minimum_severity"`
	Color           bool   `yaml:"color" toml:"color"`
}

func Default() Config {
	matchDefaults := sim.DefaultConfig()
	queueDefaults := matchmaking.DefaultConfig()
	roomDefaults := lobby.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ClientDir:       filepath.Clean(filepath.Join("..", "client")),
			ShutdownTimeout: 5 * time.Second,
			SendBuffer:      64,
		},
		Match: MatchConfig{
			TickRate:       matchDefaults.TickRate,
			BroadcastEvery: matchDefaults.BroadcastEvery,
			MatchSize:      matchDefaults.MatchSize,
			KillsToWin:     matchDefaults.KillsToWin,
			RespawnDelay:   matchDefaults.RespawnDelay,
			BotSkill:       matchDefaults.BotSkill,
			TeardownDelay:  session.DefaultTeardownDelay,
			World:          world.DefaultConfig(),
		},
		Matchmaking: MatchmakingConfig{
			Interval:            queueDefaults.Interval,
			MinBatch:            queueDefaults.MinBatch,
			StartDelay:          queueDefaults.StartDelay,
			Timeout:             queueDefaults.Timeout,
			TimeoutStartDelay:   queueDefaults.TimeoutStartDelay,
			QuickPlayStartDelay: queueDefaults.QuickPlayStartDelay,
		},
		Rooms: RoomsConfig{
			MaxMembers: roomDefaults.MaxMembers,
			StartDelay: roomDefaults.StartDelay,
		},
		Logging: LoggingConfig{
			Level:           "info",
			Format:          "production",
			Sinks:           []string{"console"},
			BufferSize:      logging.DefaultConfig().BufferSize,
			MinimumSeverity: "info",
		},
	}
}

// Load reads path on top of Default and applies environment overrides.
// An empty path skips the file.
func Load(path string, logger telemetry.Logger) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decode(path, data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv, logger)
	return cfg.Normalized(), nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadDotEnv loads each file that exists into the process environment.
// Variables already set win over file values.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables. Unparseable values are logged
// and ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool), logger telemetry.Logger) {
	invalid := func(key, raw string, err error) {
		if logger != nil {
			logger.Printf("[config] ignoring invalid %s=%q: %v", key, raw, err)
		}
	}

	if raw, ok := lookup("PORT"); ok && raw != "" {
		if port, err := strconv.Atoi(raw); err != nil || port <= 0 || port > 65535 {
			if err == nil {
				err = errors.New("out of range")
			}
			invalid("PORT", raw, err)
		} else {
			c.Server.Addr = ":" + raw
		}
	}
	if raw, ok := lookup("ARENA_ADDR"); ok && raw != "" {
		c.Server.Addr = raw
	}
	if raw, ok := lookup("CLIENT_DIR"); ok && raw != "" {
		c.Server.ClientDir = raw
	}
	if raw, ok := lookup("LOG_LEVEL"); ok && raw != "" {
		if sev, known := logging.ParseSeverity(raw); known {
			c.Logging.Level = sev.String()
		} else {
			invalid("LOG_LEVEL", raw, errors.New("unknown level"))
		}
	}
	if raw, ok := lookup("LOG_FORMAT"); ok && raw != "" {
		switch strings.ToLower(raw) {
		case "production", "json":
			c.Logging.Format = "production"
		case "development", "console":
			c.Logging.Format = "development"
		default:
			invalid("LOG_FORMAT", raw, errors.New("expected production or development"))
		}
	}
	if raw, ok := lookup("ENABLE_PPROF"); ok && raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			c.Observability.EnablePprof = value
		} else {
			invalid("ENABLE_PPROF", raw, err)
		}
	}
	if raw, ok := lookup("TICK_RATE"); ok && raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			c.Match.TickRate = value
		} else {
			if err == nil {
				err = errors.New("must be positive")
			}
			invalid("TICK_RATE", raw, err)
		}
	}
}

// Normalized replaces non-positive values with their defaults.
func (c Config) Normalized() Config {
	def := Default()
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if c.Server.SendBuffer <= 0 {
		c.Server.SendBuffer = def.Server.SendBuffer
	}
	if c.Match.TeardownDelay <= 0 {
		c.Match.TeardownDelay = def.Match.TeardownDelay
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if len(c.Logging.Sinks) == 0 {
		c.Logging.Sinks = def.Logging.Sinks
	}
	if c.Logging.BufferSize <= 0 {
		c.Logging.BufferSize = def.Logging.BufferSize
	}
	c.Match = c.Match.normalized(def.Match)
	c.Match.World = c.Match.World.Normalized()
	c.Matchmaking = c.Matchmaking.normalized(def.Matchmaking)
	if c.Rooms.MaxMembers <= 0 {
		c.Rooms.MaxMembers = def.Rooms.MaxMembers
	}
	if c.Rooms.StartDelay <= 0 {
		c.Rooms.StartDelay = def.Rooms.StartDelay
	}
	return c
}

func (m MatchConfig) normalized(def MatchConfig) MatchConfig {
	if m.TickRate <= 0 {
		m.TickRate = def.TickRate
	}
	if m.BroadcastEvery <= 0 {
		m.BroadcastEvery = def.BroadcastEvery
	}
	if m.MatchSize <= 0 {
		m.MatchSize = def.MatchSize
	}
	if m.KillsToWin <= 0 {
		m.KillsToWin = def.KillsToWin
	}
	if m.RespawnDelay <= 0 {
		m.RespawnDelay = def.RespawnDelay
	}
	if m.BotSkill <= 0 {
		m.BotSkill = def.BotSkill
	}
	return m
}

func (m MatchmakingConfig) normalized(def MatchmakingConfig) MatchmakingConfig {
	if m.Interval <= 0 {
		m.Interval = def.Interval
	}
	if m.MinBatch <= 0 {
		m.MinBatch = def.MinBatch
	}
	if m.StartDelay <= 0 {
		m.StartDelay = def.StartDelay
	}
	if m.Timeout <= 0 {
		m.Timeout = def.Timeout
	}
	if m.TimeoutStartDelay <= 0 {
		m.TimeoutStartDelay = def.TimeoutStartDelay
	}
	if m.QuickPlayStartDelay <= 0 {
		m.QuickPlayStartDelay = def.QuickPlayStartDelay
	}
	return m
}

// SessionConfig builds the registry settings for every match.
func (c Config) SessionConfig() session.Config {
	out := session.DefaultConfig()
	out.Match.TickRate = c.Match.TickRate
	out.Match.BroadcastEvery = c.Match.BroadcastEvery
	out.Match.MatchSize = c.Match.MatchSize
	out.Match.KillsToWin = c.Match.KillsToWin
	out.Match.RespawnDelay = c.Match.RespawnDelay
	out.Match.BotSkill = c.Match.BotSkill
	out.World = c.Match.World
	out.TeardownDelay = c.Match.TeardownDelay
	return out
}

func (c Config) QueueConfig() matchmaking.Config {
	return matchmaking.Config{
		Interval:            c.Matchmaking.Interval,
		MinBatch:            c.Matchmaking.MinBatch,
		MatchSize:           c.Match.MatchSize,
		StartDelay:          c.Matchmaking.StartDelay,
		Timeout:             c.Matchmaking.Timeout,
		TimeoutStartDelay:   c.Matchmaking.TimeoutStartDelay,
		QuickPlayStartDelay: c.Matchmaking.QuickPlayStartDelay,
	}
}

func (c Config) RoomConfig() lobby.Config {
	out := lobby.DefaultConfig()
	out.MaxMembers = c.Rooms.MaxMembers
	out.StartDelay = c.Rooms.StartDelay
	return out
}

// RouterConfig maps the logging section onto the gameplay event router.
func (c Config) RouterConfig() logging.Config {
	out := logging.DefaultConfig()
	out.EnabledSinks = append([]string(nil), c.Logging.Sinks...)
	out.BufferSize = c.Logging.BufferSize
	out.MinimumSeverity, _ = logging.ParseSeverity(c.Logging.MinimumSeverity)
	out.Console.UseColor = c.Logging.Color
	return out
}

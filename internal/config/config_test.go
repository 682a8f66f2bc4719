package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hero-arena/server/logging"
)

var envKeys = []string{"PORT", "ARENA_ADDR", "CLIENT_DIR", "LOG_LEVEL", "LOG_FORMAT", "ENABLE_PPROF", "TICK_RATE"}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

type captureLogger struct{ lines []string }

func (c *captureLogger) Printf(format string, args ...any) {
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Match.TickRate != 60 || cfg.Match.MatchSize != 10 || cfg.Match.KillsToWin != 50 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Matchmaking.Interval != 2*time.Second || cfg.Matchmaking.Timeout != 10*time.Second || cfg.Rooms.MaxMembers != 10 {
		t.Fatalf("unexpected admission defaults %+v %+v", cfg.Matchmaking, cfg.Rooms)
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "arena.yaml", `
server:
  addr: ":9000"
match:
  tickRate: 30
  killsToWin: 10
  world:
    seed: fixed
matchmaking:
  interval: 500ms
rooms:
  maxMembers: 4
logging:
  format: development
  sinks: [console, zap]
observability:
  enablePprof: true
`)
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Match.TickRate != 30 || cfg.Match.KillsToWin != 10 {
		t.Fatalf("unexpected server/match %+v %+v", cfg.Server, cfg.Match)
	}
	if cfg.Match.World.Seed != "fixed" || cfg.Match.World.Walls != 8 {
		t.Fatalf("expected world defaults kept around the seed, got %+v", cfg.Match.World)
	}
	if cfg.Matchmaking.Interval != 500*time.Millisecond || cfg.Matchmaking.StartDelay != 3*time.Second {
		t.Fatalf("unexpected matchmaking %+v", cfg.Matchmaking)
	}
	if cfg.Rooms.MaxMembers != 4 || !cfg.Observability.EnablePprof || len(cfg.Logging.Sinks) != 2 {
		t.Fatalf("unexpected rooms/logging %+v %+v", cfg.Rooms, cfg.Logging)
	}
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "arena.toml", `
[server]
addr = "127.0.0.1:7000"
client_dir = "/srv/client"

[match]
match_size = 6
respawn_delay = "5s"

[matchmaking]
min_batch = 3

[logging]
minimum_severity = "warn"
`)
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7000" || cfg.Server.ClientDir != "/srv/client" {
		t.Fatalf("unexpected server %+v", cfg.Server)
	}
	if cfg.Match.MatchSize != 6 || cfg.Match.RespawnDelay != 5*time.Second || cfg.Matchmaking.MinBatch != 3 {
		t.Fatalf("unexpected match %+v %+v", cfg.Match, cfg.Matchmaking)
	}
	if cfg.QueueConfig().MatchSize != 6 {
		t.Fatalf("queue should follow the match size")
	}
	if cfg.RouterConfig().MinimumSeverity != logging.SeverityWarn {
		t.Fatalf("expected warn router severity")
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeFile(t, "arena.ini", "addr=:1")
	if _, err := Load(path, nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestEnvironmentOverridesWin(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "arena.yaml", "server:\n  addr: \":9000\"\nmatch:\n  tickRate: 30\n")
	t.Setenv("PORT", "3000")
	t.Setenv("TICK_RATE", "20")
	t.Setenv("ENABLE_PPROF", "true")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("LOG_LEVEL", "WARNING")

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":3000" || cfg.Match.TickRate != 20 || !cfg.Observability.EnablePprof {
		t.Fatalf("env did not override file %+v", cfg)
	}
	if cfg.Logging.Format != "development" || cfg.Logging.Level != "warn" {
		t.Fatalf("unexpected logging %+v", cfg.Logging)
	}
}

func TestArenaAddrBeatsPort(t *testing.T) {
	cfg := Default()
	env := map[string]string{"PORT": "3000", "ARENA_ADDR": "0.0.0.0:4000"}
	cfg.ApplyEnv(func(key string) (string, bool) { v, ok := env[key]; return v, ok }, nil)
	if cfg.Server.Addr != "0.0.0.0:4000" {
		t.Fatalf("expected ARENA_ADDR, got %s", cfg.Server.Addr)
	}
}

func TestInvalidEnvironmentValuesAreIgnored(t *testing.T) {
	cases := []struct {
		key, value string
		check      func(Config) bool
	}{
		{"PORT", "http", func(c Config) bool { return c.Server.Addr == ":8080" }},
		{"PORT", "70000", func(c Config) bool { return c.Server.Addr == ":8080" }},
		{"TICK_RATE", "-5", func(c Config) bool { return c.Match.TickRate == 60 }},
		{"ENABLE_PPROF", "maybe", func(c Config) bool { return !c.Observability.EnablePprof }},
		{"LOG_LEVEL", "loud", func(c Config) bool { return c.Logging.Level == "info" }},
		{"LOG_FORMAT", "xml", func(c Config) bool { return c.Logging.Format == "production" }},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			cfg := Default()
			logger := &captureLogger{}
			cfg.ApplyEnv(func(key string) (string, bool) {
				if key == tc.key {
					return tc.value, true
				}
				return "", false
			}, logger)
			if !tc.check(cfg) {
				t.Fatalf("invalid value was applied: %+v", cfg)
			}
			if len(logger.lines) != 1 || !strings.Contains(logger.lines[0], tc.key) {
				t.Fatalf("expected one log line naming %s, got %v", tc.key, logger.lines)
			}
		})
	}
}

func TestNormalizedRestoresDefaults(t *testing.T) {
	cfg := Config{Match: MatchConfig{TickRate: -1}, Rooms: RoomsConfig{MaxMembers: 0}}.Normalized()
	def := Default()
	if cfg.Match.TickRate != def.Match.TickRate || cfg.Rooms.MaxMembers != def.Rooms.MaxMembers || cfg.Server.Addr != def.Server.Addr {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.Matchmaking.Interval != def.Matchmaking.Interval || len(cfg.Logging.Sinks) == 0 {
		t.Fatalf("expected admission and logging defaults, got %+v", cfg)
	}
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLIENT_DIR", "/from/shell")
	os.Unsetenv("TICK_RATE")
	path := writeFile(t, ".env", "CLIENT_DIR=/from/file\nTICK_RATE=25\n")
	t.Cleanup(func() { os.Unsetenv("TICK_RATE") })

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.ClientDir != "/from/shell" || cfg.Match.TickRate != 25 {
		t.Fatalf("unexpected dotenv result %+v %+v", cfg.Server, cfg.Match)
	}
}

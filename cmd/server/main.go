package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hero-arena/server/internal/app"
	"hero-arena/server/internal/config"
	"hero-arena/server/internal/telemetry"
)

func main() {
	configPath := flag.String("config", os.Getenv("ARENA_CONFIG"), "path to a YAML or TOML config file")
	flag.Parse()

	bootLogger := telemetry.WrapLogger(log.Default())
	if err := config.LoadDotEnv(); err != nil {
		bootLogger.Printf("%v", err)
	}
	cfg, err := config.Load(*configPath, bootLogger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	zl, err := app.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, zl); err != nil {
		zl.Sugar().Errorf("%v", err)
		os.Exit(1)
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hero-arena/server/internal/accounts"
	"hero-arena/server/internal/config"
	"hero-arena/server/internal/hub"
	"hero-arena/server/internal/lobby"
	"hero-arena/server/internal/matchmaking"
	servernet "hero-arena/server/internal/net"
	"hero-arena/server/internal/net/ws"
	"hero-arena/server/internal/sched"
	"hero-arena/server/internal/session"
	"hero-arena/server/internal/telemetry"
	"hero-arena/server/logging"
	loggingSinks "hero-arena/server/logging/sinks"
)

// NewLogger builds the operational zap logger from the logging section.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "development" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

// Server holds every long-lived component of a running arena.
type Server struct {
	cfg      config.Config
	logger   telemetry.Logger
	router   *logging.Router
	metrics  *logging.Metrics
	counters *telemetry.Counters
	registry *session.Registry
	queue    *matchmaking.Queue
	rooms    *lobby.Manager
	hub      *hub.Hub
	handler  http.Handler
}

// New wires the components together. zl may be nil.
func New(cfg config.Config, zl *zap.Logger) (*Server, error) {
	cfg = cfg.Normalized()
	if zl == nil {
		zl = zap.NewNop()
	}
	logger := telemetry.WrapZap(zl)

	router, err := logging.NewRouter(logging.SystemClock{}, cfg.RouterConfig(), buildSinks(cfg, zl, logger))
	if err != nil {
		return nil, fmt.Errorf("failed to construct logging router: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		router:   router,
		metrics:  &logging.Metrics{},
		counters: telemetry.NewCounters(),
	}

	s.hub = hub.New(hub.Deps{
		Accounts:  accounts.NewStore(accounts.Options{}),
		Publisher: router,
		Logger:    logger,
		Counters:  s.counters,
	})
	s.registry = session.NewRegistry(cfg.SessionConfig(), session.Deps{
		Scheduler:   sched.New(sched.SystemClock{}),
		Broadcaster: s.hub,
		Publisher:   router,
		Logger:      logger,
		Metrics:     telemetry.WrapMetrics(s.metrics),
		Counters:    s.counters,
		OnEnded:     s.hub.RecordResult,
	})
	s.queue = matchmaking.New(cfg.QueueConfig(), matchmaking.Deps{
		Sessions:  s.registry,
		Roster:    s.hub,
		Publisher: router,
		Logger:    logger,
	})
	s.rooms = lobby.NewManager(cfg.RoomConfig(), lobby.Deps{
		Sessions:  s.registry,
		Roster:    s.hub,
		Publisher: router,
		Logger:    logger,
	})
	s.hub.Attach(s.registry, s.queue, s.rooms)

	socket := ws.NewHandler(s.hub, ws.Config{
		SendBuffer: cfg.Server.SendBuffer,
		Logger:     logger,
	})
	s.handler = servernet.NewHTTPHandler(servernet.HTTPHandlerConfig{
		ClientDir:     cfg.Server.ClientDir,
		Logger:        logger,
		Observability: cfg.Observability,
		Socket:        socket,
		Sources: servernet.Sources{
			Players:    s.hub.Directory,
			Sessions:   s.registry.Infos,
			QueueDepth: s.queue.Len,
			Rooms:      s.rooms.Count,
			Counters:   s.counters,
			Metrics:    s.metrics.Snapshot,
			TickRate:   cfg.Match.TickRate,
		},
	})
	return s, nil
}

func buildSinks(cfg config.Config, zl *zap.Logger, logger telemetry.Logger) []logging.NamedSink {
	routerCfg := cfg.RouterConfig()
	var named []logging.NamedSink
	for _, name := range routerCfg.EnabledSinks {
		switch name {
		case "console":
			named = append(named, logging.NamedSink{Name: name, Sink: loggingSinks.NewConsoleSink(os.Stdout, routerCfg.Console)})
		case "zap":
			named = append(named, logging.NamedSink{Name: name, Sink: loggingSinks.NewZapSink(zl.Named("events"))})
		case "memory":
			named = append(named, logging.NamedSink{Name: name, Sink: loggingSinks.NewMemorySink()})
		default:
			logger.Printf("unknown logging sink %q ignored", name)
		}
	}
	return named
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Router exposes the gameplay event router, mostly for tests reading the
// memory sink.
func (s *Server) Router() *logging.Router {
	return s.router
}

func (s *Server) Hub() *hub.Hub {
	return s.hub
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.queue.Start()
	defer s.close()

	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: s.handler}
	errs := make(chan error, 1)
	go func() {
		s.logger.Printf("server listening on %s", srv.Addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) close() {
	s.queue.Stop()
	s.registry.Close()
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.router.Close(ctx); err != nil {
		s.logger.Printf("failed to close logging router: %v", err)
	}
}

// Run builds a server from cfg and serves until ctx is done.
func Run(ctx context.Context, cfg config.Config, zl *zap.Logger) error {
	s, err := New(cfg, zl)
	if err != nil {
		return err
	}
	return s.Run(ctx)
}

package net

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/pprof"
	"time"

	"hero-arena/server/internal/hero"
	"hero-arena/server/internal/hub"
	"hero-arena/server/internal/observability"
	"hero-arena/server/internal/session"
	"hero-arena/server/internal/telemetry"
)

// Sources feed the diagnostics endpoint. Nil sources are reported empty.
type Sources struct {
	Players    func() hub.Directory
	Sessions   func() []session.Info
	QueueDepth func() int
	Rooms      func() int
	Counters   *telemetry.Counters
	// Metrics reports the command buffer counters.
	Metrics  func() map[string]uint64
	TickRate int
}

type HTTPHandlerConfig struct {
	ClientDir     string
	Logger        telemetry.Logger
	Observability observability.Config
	// Socket serves /ws.
	Socket  nethttp.Handler
	Sources Sources
}

type diagnostics struct {
	Status     string             `json:"status"`
	ServerTime int64              `json:"serverTime"`
	TickRate   int                `json:"tickRate"`
	Players    hub.Directory      `json:"players"`
	Sessions   []session.Info     `json:"sessions"`
	QueueDepth int                `json:"queueDepth"`
	Rooms      int                `json:"rooms"`
	Telemetry  telemetry.Snapshot `json:"telemetry"`
	Metrics    map[string]uint64  `json:"metrics,omitempty"`
}

func NewHTTPHandler(cfg HTTPHandlerConfig) nethttp.Handler {
	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		src := cfg.Sources
		payload := diagnostics{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			TickRate:   src.TickRate,
			Sessions:   []session.Info{},
			Telemetry:  src.Counters.Snapshot(),
		}
		if src.Players != nil {
			payload.Players = src.Players()
		}
		if src.Sessions != nil {
			payload.Sessions = src.Sessions()
		}
		if src.QueueDepth != nil {
			payload.QueueDepth = src.QueueDepth()
		}
		if src.Rooms != nil {
			payload.Rooms = src.Rooms()
		}
		if src.Metrics != nil {
			payload.Metrics = src.Metrics()
		}
		writeJSON(w, cfg.Logger, payload)
	})

	mux.HandleFunc("/heroes", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, cfg.Logger, hero.All())
	})

	if cfg.Socket != nil {
		mux.Handle("/ws", cfg.Socket)
	}

	if cfg.Observability.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	if cfg.ClientDir != "" {
		fs := nethttp.FileServer(nethttp.Dir(cfg.ClientDir))
		mux.Handle("/", fs)
	}

	return mux
}

func writeJSON(w nethttp.ResponseWriter, logger telemetry.Logger, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		if logger != nil {
			logger.Printf("[http] encode %T: %v", payload, err)
		}
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}

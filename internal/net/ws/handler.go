// Package ws carries the game protocol over gorilla websockets.
package ws

import (
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	"hero-arena/server/internal/hub"
	"hero-arena/server/internal/net/proto"
	"hero-arena/server/internal/telemetry"
)

// Hub is what a connection talks to.
type Hub interface {
	Open(sender hub.Sender) string
	Deliver(id string, data []byte)
	Close(id string)
}

type Config struct {
	SendBuffer      int
	WriteTimeout    time.Duration
	PingInterval    time.Duration
	PongTimeout     time.Duration
	MaxMessageBytes int64
	Logger          telemetry.Logger
}

func DefaultConfig() Config {
	return Config{
		SendBuffer:      64,
		WriteTimeout:    5 * time.Second,
		PingInterval:    25 * time.Second,
		PongTimeout:     60 * time.Second,
		MaxMessageBytes: 16 << 10,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.SendBuffer <= 0 {
		c.SendBuffer = def.SendBuffer
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = def.PingInterval
	}
	if c.PongTimeout <= c.PingInterval {
		c.PongTimeout = 2 * c.PingInterval
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = def.MaxMessageBytes
	}
	return c
}

// Handler upgrades /ws requests. Clients pick the wire codec with
// ?codec=json (default) or ?codec=msgpack.
type Handler struct {
	hub      Hub
	cfg      Config
	upgrader websocket.Upgrader
}

func NewHandler(h Hub, cfg Config) *Handler {
	return &Handler{
		hub: h,
		cfg: cfg.normalized(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	codec, err := proto.CodecByName(r.URL.Query().Get("codec"))
	if err != nil {
		nethttp.Error(w, err.Error(), nethttp.StatusBadRequest)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logf("[ws] upgrade failed from %s: %v", r.RemoteAddr, err)
		return
	}

	client := newClient(conn, codec, h.cfg.SendBuffer)
	go client.writePump(h.cfg)
	id := h.hub.Open(client)
	client.readPump(h.cfg, func(data []byte) { h.hub.Deliver(id, data) })
	h.hub.Close(id)
}

func (h *Handler) logf(format string, args ...any) {
	if h.cfg.Logger != nil {
		h.cfg.Logger.Printf(format, args...)
	}
}

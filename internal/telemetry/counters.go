package telemetry

import (
	"sync/atomic"
	"time"
)

// Counters aggregates process-wide transport and simulation figures shown on
// the diagnostics endpoint.
type Counters struct {
	messagesSent       atomic.Uint64
	messagesDropped    atomic.Uint64
	bytesSent          atomic.Uint64
	messagesReceived   atomic.Uint64
	messagesRejected   atomic.Uint64
	tickDurationMicros atomic.Int64
	sessionsCreated    atomic.Uint64
	sessionsRemoved    atomic.Uint64
}

type Snapshot struct {
	MessagesSent       uint64 `json:"messagesSent"`
	MessagesDropped    uint64 `json:"messagesDropped"`
	BytesSent          uint64 `json:"bytesSent"`
	MessagesReceived   uint64 `json:"messagesReceived"`
	MessagesRejected   uint64 `json:"messagesRejected"`
	TickDurationMicros int64  `json:"tickDurationMicros"`
	SessionsCreated    uint64 `json:"sessionsCreated"`
	SessionsRemoved    uint64 `json:"sessionsRemoved"`
}

func NewCounters() *Counters {
	return &Counters{}
}

func (c *Counters) RecordSend(bytes int) {
	if c == nil {
		return
	}
	if bytes < 0 {
		bytes = 0
	}
	c.messagesSent.Add(1)
	c.bytesSent.Add(uint64(bytes))
}

// RecordDrop counts an outbound message skipped because the recipient's
// buffer was full or closed.
func (c *Counters) RecordDrop() {
	if c == nil {
		return
	}
	c.messagesDropped.Add(1)
}

func (c *Counters) RecordReceive() {
	if c == nil {
		return
	}
	c.messagesReceived.Add(1)
}

// RecordReject counts inbound messages that failed validation.
func (c *Counters) RecordReject() {
	if c == nil {
		return
	}
	c.messagesRejected.Add(1)
}

func (c *Counters) RecordTickDuration(d time.Duration) {
	if c == nil {
		return
	}
	micros := d.Microseconds()
	if micros < 0 {
		micros = 0
	}
	c.tickDurationMicros.Store(micros)
}

func (c *Counters) RecordSessionCreated() {
	if c == nil {
		return
	}
	c.sessionsCreated.Add(1)
}

func (c *Counters) RecordSessionRemoved() {
	if c == nil {
		return
	}
	c.sessionsRemoved.Add(1)
}

func (c *Counters) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	return Snapshot{
		MessagesSent:       c.messagesSent.Load(),
		MessagesDropped:    c.messagesDropped.Load(),
		BytesSent:          c.bytesSent.Load(),
		MessagesReceived:   c.messagesReceived.Load(),
		MessagesRejected:   c.messagesRejected.Load(),
		TickDurationMicros: c.tickDurationMicros.Load(),
		SessionsCreated:    c.sessionsCreated.Load(),
		SessionsRemoved:    c.sessionsRemoved.Load(),
	}
}

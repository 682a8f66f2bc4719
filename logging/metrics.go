package logging

import (
	"sync"
	"sync/atomic"
)

// Metrics is a keyed set of counters and gauges shared by server components.
type Metrics struct {
	mu     sync.RWMutex
	values map[string]*atomic.Uint64
}

func (m *Metrics) counter(key string) *atomic.Uint64 {
	m.mu.RLock()
	c := m.values[key]
	m.mu.RUnlock()
	if c != nil {
		return c
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]*atomic.Uint64)
	}
	if c = m.values[key]; c == nil {
		c = &atomic.Uint64{}
		m.values[key] = c
	}
	return c
}

// TelemetryAdd increments key by delta.
func (m *Metrics) TelemetryAdd(key string, delta uint64) {
	if m == nil || key == "" {
		return
	}
	m.counter(key).Add(delta)
}

// TelemetryStore overwrites key with value.
func (m *Metrics) TelemetryStore(key string, value uint64) {
	if m == nil || key == "" {
		return
	}
	m.counter(key).Store(value)
}

func (m *Metrics) Snapshot() map[string]uint64 {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]uint64, len(m.values))
	for k, v := range m.values {
		out[k] = v.Load()
	}
	return out
}

package sinks

import (
	"context"
	"sync"

	"hero-arena/server/logging"
)

// DefaultMemoryCapacity bounds how many events a MemorySink retains. Older
// events are discarded first, so a long-running arena keeps only recent
// matches.
const DefaultMemoryCapacity = 4096

// MemorySink keeps recent gameplay events in memory for tests and
// diagnostics.
type MemorySink struct {
	mu       sync.RWMutex
	capacity int
	events   []logging.Event
}

func NewMemorySink() *MemorySink {
	return NewBoundedMemorySink(DefaultMemoryCapacity)
}

// NewBoundedMemorySink retains at most capacity events; non-positive values
// fall back to DefaultMemoryCapacity.
func NewBoundedMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemorySink{capacity: capacity}
}

func (s *MemorySink) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == s.capacity {
		copy(s.events, s.events[1:])
		s.events = s.events[:len(s.events)-1]
	}
	s.events = append(s.events, cloneEvent(event))
	return nil
}

func (s *MemorySink) Events() []logging.Event {
	return s.filter(func(logging.Event) bool { return true })
}

// OfType returns the retained events of the given type, oldest first.
func (s *MemorySink) OfType(typ logging.EventType) []logging.Event {
	return s.filter(func(e logging.Event) bool { return e.Type == typ })
}

// Session returns the events that belong to one arena session: lifecycle
// events whose actor is the session, and combat events tagged with it.
func (s *MemorySink) Session(id string) []logging.Event {
	return s.filter(func(e logging.Event) bool {
		if e.Actor.Kind == logging.EntityKindSession && e.Actor.ID == id {
			return true
		}
		tagged, _ := e.Extra["session"].(string)
		return tagged == id
	})
}

func (s *MemorySink) filter(keep func(logging.Event) bool) []logging.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]logging.Event, 0, len(s.events))
	for _, e := range s.events {
		if keep(e) {
			out = append(out, cloneEvent(e))
		}
	}
	return out
}

func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = s.events[:0]
}

func (s *MemorySink) Close(context.Context) error {
	return nil
}

func cloneEvent(event logging.Event) logging.Event {
	cloned := event
	if len(event.Targets) > 0 {
		cloned.Targets = append([]logging.EntityRef(nil), event.Targets...)
	}
	if event.Extra != nil {
		copied := make(map[string]any, len(event.Extra))
		for k, v := range event.Extra {
			copied[k] = v
		}
		cloned.Extra = copied
	}
	return cloned
}

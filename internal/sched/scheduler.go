package sched

import (
	"sync"
	"time"
)

// Key identifies one deferred callback. Gen is unique per Scheduler so a
// cancelled key can never be confused with a later timer of the same session.
type Key struct {
	Session string
	Gen     uint64
}

type entry struct {
	stop Stopper
}

// Scheduler tracks one-shot callbacks tagged by session so that tearing a
// session down removes every timer that still refers to it.
type Scheduler struct {
	clock Clock

	mu      sync.Mutex
	gen     uint64
	entries map[string]map[uint64]*entry
}

func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{clock: clock, entries: make(map[string]map[uint64]*entry)}
}

func (s *Scheduler) Clock() Clock {
	return s.clock
}

// After runs fn once after d unless the key or its session is cancelled first.
func (s *Scheduler) After(session string, d time.Duration, fn func()) Key {
	s.mu.Lock()
	s.gen++
	key := Key{Session: session, Gen: s.gen}
	e := &entry{}
	bySession := s.entries[session]
	if bySession == nil {
		bySession = make(map[uint64]*entry)
		s.entries[session] = bySession
	}
	bySession[key.Gen] = e
	s.mu.Unlock()

	stop := s.clock.AfterFunc(d, func() {
		if !s.take(key) {
			return
		}
		fn()
	})

	s.mu.Lock()
	if current, ok := s.entries[session][key.Gen]; ok && current == e {
		e.stop = stop
	}
	s.mu.Unlock()
	return key
}

// Cancel removes a single pending callback.
func (s *Scheduler) Cancel(key Key) bool {
	s.mu.Lock()
	e, ok := s.entries[key.Session][key.Gen]
	if ok {
		delete(s.entries[key.Session], key.Gen)
		if len(s.entries[key.Session]) == 0 {
			delete(s.entries, key.Session)
		}
	}
	s.mu.Unlock()
	if ok && e.stop != nil {
		e.stop.Stop()
	}
	return ok
}

// CancelSession removes every pending callback tagged with session.
func (s *Scheduler) CancelSession(session string) int {
	s.mu.Lock()
	bySession := s.entries[session]
	delete(s.entries, session)
	s.mu.Unlock()
	for _, e := range bySession {
		if e.stop != nil {
			e.stop.Stop()
		}
	}
	return len(bySession)
}

// Pending reports the number of callbacks still scheduled for session.
func (s *Scheduler) Pending(session string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries[session])
}

func (s *Scheduler) take(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	bySession, ok := s.entries[key.Session]
	if !ok {
		return false
	}
	if _, ok := bySession[key.Gen]; !ok {
		return false
	}
	delete(bySession, key.Gen)
	if len(bySession) == 0 {
		delete(s.entries, key.Session)
	}
	return true
}

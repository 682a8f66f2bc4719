package sched

import (
	"sort"
	"sync"
	"time"
)

// Stopper cancels a pending or recurring callback.
type Stopper interface {
	Stop() bool
}

// Clock abstracts time so admission and session timers can be driven
// deterministically in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Stopper
	Every(d time.Duration, fn func()) Stopper
}

// SystemClock is the wall-clock implementation.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func (SystemClock) AfterFunc(d time.Duration, fn func()) Stopper {
	return time.AfterFunc(d, fn)
}

func (SystemClock) Every(d time.Duration, fn func()) Stopper {
	if d <= 0 {
		d = time.Millisecond
	}
	t := &ticker{ticker: time.NewTicker(d), done: make(chan struct{})}
	go t.run(fn)
	return t
}

type ticker struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *ticker) run(fn func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			fn()
		}
	}
}

func (t *ticker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}

// ManualClock only moves when Advance is called. Callbacks run on the
// goroutine calling Advance, in due-time order, without the clock's lock held.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	clock  *ManualClock
	due    time.Time
	every  time.Duration
	seq    uint64
	fn     func()
	active bool
}

func NewManualClock(start time.Time) *ManualClock {
	if start.IsZero() {
		start = time.Unix(0, 0).UTC()
	}
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) AfterFunc(d time.Duration, fn func()) Stopper {
	return c.add(d, 0, fn)
}

func (c *ManualClock) Every(d time.Duration, fn func()) Stopper {
	if d <= 0 {
		d = time.Millisecond
	}
	return c.add(d, d, fn)
}

func (c *ManualClock) add(d, every time.Duration, fn func()) *manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d < 0 {
		d = 0
	}
	c.seq++
	t := &manualTimer{clock: c, due: c.now.Add(d), every: every, seq: c.seq, fn: fn, active: true}
	c.timers = append(c.timers, t)
	return t
}

// Pending reports how many timers are still scheduled.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if t.active {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, firing every callback that comes due.
// Timers scheduled by callbacks fire in the same call if they fall inside d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.compactLocked()
			c.mu.Unlock()
			return
		}
		c.now = next.due
		if next.every > 0 {
			next.due = next.due.Add(next.every)
		} else {
			next.active = false
		}
		fn := next.fn
		c.mu.Unlock()
		fn()
	}
}

func (c *ManualClock) nextDueLocked(target time.Time) *manualTimer {
	candidates := make([]*manualTimer, 0, len(c.timers))
	for _, t := range c.timers {
		if t.active && !t.due.After(target) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].due.Equal(candidates[j].due) {
			return candidates[i].seq < candidates[j].seq
		}
		return candidates[i].due.Before(candidates[j].due)
	})
	return candidates[0]
}

func (c *ManualClock) compactLocked() {
	kept := c.timers[:0]
	for _, t := range c.timers {
		if t.active {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(c.timers); i++ {
		c.timers[i] = nil
	}
	c.timers = kept
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.active
	t.active = false
	return was
}

package session

import (
	"errors"
	"sync"
	"time"

	"hero-arena/server/internal/net/proto"
	"hero-arena/server/internal/sched"
	"hero-arena/server/internal/sim"
	"hero-arena/server/internal/telemetry"
)

// ErrRunnerStopped is returned for work submitted to a torn-down session.
var ErrRunnerStopped = errors.New("session runner stopped")

const defaultInboxSize = 64

type task struct {
	fn   func(*sim.Match)
	done chan struct{}
}

// Runner is the single writer of one match. Control closures and ticks are
// executed one at a time on its goroutine; inputs are staged in the loop's
// command buffer and applied at the start of the next tick.
type Runner struct {
	id       string
	private  bool
	match    *sim.Match
	loop     *sim.Loop
	clock    sched.Clock
	counters *telemetry.Counters

	inbox    chan task
	done     chan struct{}
	stopOnce sync.Once

	// ticker is only touched on the runner goroutine.
	ticker sched.Stopper
}

func newRunner(match *sim.Match, loop *sim.Loop, clock sched.Clock, counters *telemetry.Counters, inboxSize int) *Runner {
	if inboxSize <= 0 {
		inboxSize = defaultInboxSize
	}
	r := &Runner{
		id:       match.ID(),
		private:  match.Private(),
		match:    match,
		loop:     loop,
		clock:    clock,
		counters: counters,
		inbox:    make(chan task, inboxSize),
		done:     make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Runner) ID() string { return r.id }

func (r *Runner) Private() bool { return r.private }

// Done is closed once the runner has stopped.
func (r *Runner) Done() <-chan struct{} { return r.done }

func (r *Runner) run() {
	for {
		select {
		case <-r.done:
			return
		case t := <-r.inbox:
			t.fn(r.match)
			close(t.done)
		}
	}
}

// Call runs fn on the runner goroutine and waits for it to finish. It must
// never be called from inside another Call on the same runner.
func (r *Runner) Call(fn func(*sim.Match)) error {
	t := task{fn: fn, done: make(chan struct{})}
	select {
	case <-r.done:
		return ErrRunnerStopped
	case r.inbox <- t:
	}
	select {
	case <-t.done:
		return nil
	case <-r.done:
		// The task may have completed in the same instant the runner stopped.
		select {
		case <-t.done:
			return nil
		default:
			return ErrRunnerStopped
		}
	}
}

// Enqueue stages a client input for the next tick. It never blocks.
func (r *Runner) Enqueue(playerID string, input proto.Input) (bool, string) {
	select {
	case <-r.done:
		return false, sim.CommandRejectQueueFull
	default:
	}
	cmd := sim.NewInputCommand(playerID, 0, r.clock.Now(), input)
	ok, reason := r.loop.Enqueue(cmd)
	if !ok && r.counters != nil {
		r.counters.RecordReject()
	}
	return ok, reason
}

// startTicking begins the fixed-rate tick. Runner goroutine only.
func (r *Runner) startTicking(every time.Duration) {
	if r.ticker != nil {
		return
	}
	r.ticker = r.clock.Every(every, r.tick)
}

// stopTicking cancels the recurring tick. Runner goroutine only.
func (r *Runner) stopTicking() {
	if r.ticker == nil {
		return
	}
	r.ticker.Stop()
	r.ticker = nil
}

func (r *Runner) tick() {
	r.Call(func(*sim.Match) {
		result := r.loop.Advance()
		if r.counters != nil {
			r.counters.RecordTickDuration(result.Duration)
		}
	})
}

// Info is a point-in-time summary for diagnostics.
type Info struct {
	ID          string     `json:"id"`
	Private     bool       `json:"private"`
	Status      sim.Status `json:"status"`
	Tick        uint64     `json:"tick"`
	Humans      int        `json:"humans"`
	Bots        int        `json:"bots"`
	Projectiles int        `json:"projectiles"`
	Pending     int        `json:"pendingInputs"`
}

func (r *Runner) Info() (Info, error) {
	var info Info
	err := r.Call(func(m *sim.Match) {
		info = Info{
			ID:          m.ID(),
			Private:     m.Private(),
			Status:      m.Status(),
			Tick:        m.Tick(),
			Humans:      m.HumanCount(),
			Bots:        m.BotCount(),
			Projectiles: m.ProjectileCount(),
			Pending:     r.loop.Pending(),
		}
	})
	return info, err
}

// stop halts the ticker and the goroutine. Safe to call more than once.
func (r *Runner) stop() {
	r.stopOnce.Do(func() {
		r.Call(func(*sim.Match) { r.stopTicking() })
		close(r.done)
	})
}

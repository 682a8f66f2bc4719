package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hero-arena/server/internal/net/proto"
	"hero-arena/server/internal/sched"
	"hero-arena/server/internal/sim"
	"hero-arena/server/internal/telemetry"
	"hero-arena/server/internal/world"
	"hero-arena/server/logging"
	"hero-arena/server/logging/lifecycle"
)

var (
	// ErrSessionNotFound is returned when an id is not (or no longer) registered.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned when creating a session under a taken id.
	ErrSessionExists = errors.New("session already exists")
)

// DefaultTeardownDelay keeps an ended session around for late result screens.
const DefaultTeardownDelay = 30 * time.Second

type Config struct {
	Match         sim.Config
	Loop          sim.LoopConfig
	World         world.Config
	TeardownDelay time.Duration
	InboxSize     int
}

func DefaultConfig() Config {
	return Config{
		Match:         sim.DefaultConfig(),
		Loop:          sim.DefaultLoopConfig(),
		World:         world.DefaultConfig(),
		TeardownDelay: DefaultTeardownDelay,
		InboxSize:     defaultInboxSize,
	}
}

// Roster is the player directory admission talks to.
type Roster interface {
	// Lookup returns the display name of a player who is still reachable.
	Lookup(playerID string) (name string, ok bool)
	Send(playerID string, msg any) bool
	// AssignGame records that the player now belongs to gameID. It reports
	// false when the player disconnected in the meantime.
	AssignGame(playerID, gameID string) bool
}

// Deps carries the infrastructure shared by every session.
type Deps struct {
	Scheduler   *sched.Scheduler
	Broadcaster sim.Broadcaster
	Publisher   logging.Publisher
	Logger      telemetry.Logger
	Metrics     telemetry.Metrics
	Counters    *telemetry.Counters
	// OnEnded receives every final result, on the ending session's goroutine.
	OnEnded func(sim.Result)
	NewID   func() string
}

// Registry owns the set of live sessions.
type Registry struct {
	cfg   Config
	deps  Deps
	sched *sched.Scheduler

	mu       sync.Mutex
	sessions map[string]*Runner
}

func NewRegistry(cfg Config, deps Deps) *Registry {
	if cfg.TeardownDelay <= 0 {
		cfg.TeardownDelay = DefaultTeardownDelay
	}
	cfg.Match = cfg.Match.Normalized()
	if deps.Scheduler == nil {
		deps.Scheduler = sched.New(sched.SystemClock{})
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	return &Registry{
		cfg:      cfg,
		deps:     deps,
		sched:    deps.Scheduler,
		sessions: make(map[string]*Runner),
	}
}

func (r *Registry) Scheduler() *sched.Scheduler {
	return r.sched
}

// Create registers a new waiting public or private session.
func (r *Registry) Create(private bool) (*Runner, error) {
	id := strings.ReplaceAll(r.deps.NewID(), "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return r.CreateWithID("game_"+id, private)
}

// CreateWithID registers a new waiting session under id.
func (r *Registry) CreateWithID(id string, private bool) (*Runner, error) {
	r.mu.Lock()
	if _, exists := r.sessions[id]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("create %s: %w", id, ErrSessionExists)
	}
	// Reserve the id so a concurrent create cannot race us to it.
	r.sessions[id] = nil
	r.mu.Unlock()

	runner := r.build(id, private)

	r.mu.Lock()
	r.sessions[id] = runner
	r.mu.Unlock()

	if r.deps.Counters != nil {
		r.deps.Counters.RecordSessionCreated()
	}
	lifecycle.SessionCreated(context.Background(), r.deps.Publisher, sessionRef(id), lifecycle.SessionPayload{Private: private})
	return runner, nil
}

func (r *Registry) build(id string, private bool) *Runner {
	clock := r.sched.Clock()
	rng := world.NewSessionRNG(r.cfg.World, id)
	layout := world.Generate(r.cfg.World, rng)
	match := sim.NewMatch(sim.Params{
		ID:      id,
		Private: private,
		Layout:  layout,
		Config:  r.cfg.Match,
		Deps: sim.Deps{
			Broadcaster: r.deps.Broadcaster,
			Publisher:   r.deps.Publisher,
			Logger:      r.deps.Logger,
			Metrics:     r.deps.Metrics,
			Clock:       clock,
			RNG:         rng,
			NewID:       r.deps.NewID,
		},
	})
	loop := sim.NewLoop(match, r.cfg.Loop, sim.LoopHooks{})
	runner := newRunner(match, loop, clock, r.deps.Counters, r.cfg.InboxSize)
	match.SetHooks(sim.Hooks{
		Ended: func(res sim.Result) {
			runner.stopTicking()
			r.sched.After(id, r.cfg.TeardownDelay, func() { r.Remove(id) })
			if r.deps.OnEnded != nil {
				r.deps.OnEnded(res)
			}
		},
	})
	return runner
}

// Get returns the runner registered under id.
func (r *Registry) Get(id string) (*Runner, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	runner := r.sessions[id]
	return runner, runner != nil
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, runner := range r.sessions {
		if runner != nil {
			n++
		}
	}
	return n
}

// Seat is one player being admitted into a session.
type Seat struct {
	PlayerID string
	HeroID   string
}

// Admit adds every reachable seat to a waiting session, then tells each
// admitted player about the match. Unreachable seats are skipped silently.
// It returns the admitted player ids in seat order.
func (r *Registry) Admit(runner *Runner, roster Roster, seats []Seat) ([]string, error) {
	var admitted []string
	var payload proto.MapPayload
	err := runner.Call(func(m *sim.Match) {
		for _, seat := range seats {
			name, ok := roster.Lookup(seat.PlayerID)
			if !ok {
				continue
			}
			if _, err := m.AddHuman(seat.PlayerID, name, seat.HeroID); err != nil {
				continue
			}
			admitted = append(admitted, seat.PlayerID)
		}
		payload = m.MapPayload()
	})
	if err != nil {
		return nil, err
	}
	msg := proto.NewMatchFound(runner.ID(), payload)
	assigned := admitted[:0]
	var gone []string
	for _, id := range admitted {
		if !roster.AssignGame(id, runner.ID()) {
			gone = append(gone, id)
			continue
		}
		assigned = append(assigned, id)
		roster.Send(id, msg)
	}
	if len(gone) > 0 {
		// Their disconnect already ran without knowing about this session.
		if err := runner.Call(func(m *sim.Match) {
			for _, id := range gone {
				m.RemovePlayer(id)
			}
		}); err != nil {
			return nil, err
		}
	}
	return assigned, nil
}

// StartAfter schedules the session to start after delay. When the timer
// fires the session must still be registered and waiting; a session nobody
// is left in is discarded instead.
func (r *Registry) StartAfter(id string, delay time.Duration) (sched.Key, error) {
	if _, ok := r.Get(id); !ok {
		return sched.Key{}, fmt.Errorf("start %s: %w", id, ErrSessionNotFound)
	}
	return r.sched.After(id, delay, func() { r.start(id) }), nil
}

func (r *Registry) start(id string) {
	runner, ok := r.Get(id)
	if !ok {
		return
	}
	discard := false
	err := runner.Call(func(m *sim.Match) {
		if m.Status() != sim.StatusWaiting {
			return
		}
		if m.HumanCount() == 0 {
			discard = true
			return
		}
		if m.Start() {
			runner.startTicking(m.Config().TickDuration())
		}
	})
	if err != nil {
		return
	}
	if discard {
		if r.deps.Logger != nil {
			r.deps.Logger.Printf("[session] discarding %s: nobody left to start it", id)
		}
		r.Remove(id)
	}
}

// Remove cancels every timer of the session, stops its runner and forgets
// it. It must not be called from the session's own goroutine.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	runner := r.sessions[id]
	if runner != nil {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if runner == nil {
		return false
	}
	r.sched.CancelSession(id)
	runner.stop()
	if r.deps.Counters != nil {
		r.deps.Counters.RecordSessionRemoved()
	}
	lifecycle.SessionRemoved(context.Background(), r.deps.Publisher, sessionRef(id), lifecycle.SessionPayload{Private: runner.Private()})
	return true
}

// RemovePlayer takes a player out of the session they are in.
func (r *Registry) RemovePlayer(id, playerID string) error {
	runner, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("remove player from %s: %w", id, ErrSessionNotFound)
	}
	return runner.Call(func(m *sim.Match) { m.RemovePlayer(playerID) })
}

// Infos summarises every live session, ordered by id.
func (r *Registry) Infos() []Info {
	r.mu.Lock()
	runners := make([]*Runner, 0, len(r.sessions))
	for _, runner := range r.sessions {
		if runner != nil {
			runners = append(runners, runner)
		}
	}
	r.mu.Unlock()

	infos := make([]Info, 0, len(runners))
	for _, runner := range runners {
		if info, err := runner.Info(); err == nil {
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Close removes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id, runner := range r.sessions {
		if runner != nil {
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()
	for _, id := range ids {
		r.Remove(id)
	}
}

func sessionRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindSession}
}

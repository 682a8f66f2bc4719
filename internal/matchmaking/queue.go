package matchmaking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hero-arena/server/internal/net/proto"
	"hero-arena/server/internal/sched"
	"hero-arena/server/internal/session"
	"hero-arena/server/internal/telemetry"
	"hero-arena/server/logging"
	"hero-arena/server/logging/admission"
)

// Config tunes the admission passes.
type Config struct {
	Interval            time.Duration
	MinBatch            int
	MatchSize           int
	StartDelay          time.Duration
	Timeout             time.Duration
	TimeoutStartDelay   time.Duration
	QuickPlayStartDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:            2 * time.Second,
		MinBatch:            2,
		MatchSize:           10,
		StartDelay:          3 * time.Second,
		Timeout:             10 * time.Second,
		TimeoutStartDelay:   time.Second,
		QuickPlayStartDelay: time.Second,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.MinBatch <= 0 {
		c.MinBatch = def.MinBatch
	}
	if c.MatchSize <= 0 {
		c.MatchSize = def.MatchSize
	}
	if c.MinBatch > c.MatchSize {
		c.MinBatch = c.MatchSize
	}
	if c.StartDelay <= 0 {
		c.StartDelay = def.StartDelay
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.TimeoutStartDelay <= 0 {
		c.TimeoutStartDelay = def.TimeoutStartDelay
	}
	if c.QuickPlayStartDelay <= 0 {
		c.QuickPlayStartDelay = def.QuickPlayStartDelay
	}
	return c
}

// Sessions is the part of the session registry admission needs.
type Sessions interface {
	Create(private bool) (*session.Runner, error)
	Admit(runner *session.Runner, roster session.Roster, seats []session.Seat) ([]string, error)
	StartAfter(id string, delay time.Duration) (sched.Key, error)
	Remove(id string) bool
}

// Entry is one waiting player.
type Entry struct {
	PlayerID string
	HeroID   string
	JoinedAt time.Time
}

type Deps struct {
	Sessions  Sessions
	Roster    session.Roster
	Clock     sched.Clock
	Publisher logging.Publisher
	Logger    telemetry.Logger
}

// Queue is the FIFO of players waiting for a public match.
type Queue struct {
	cfg  Config
	deps Deps

	mu      sync.Mutex
	entries []Entry
	ticker  sched.Stopper
}

func New(cfg Config, deps Deps) *Queue {
	if deps.Clock == nil {
		deps.Clock = sched.SystemClock{}
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	return &Queue{cfg: cfg.normalized(), deps: deps}
}

// Start runs Pass every Interval until Stop.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ticker != nil {
		return
	}
	q.ticker = q.deps.Clock.Every(q.cfg.Interval, q.Pass)
}

func (q *Queue) Stop() {
	q.mu.Lock()
	ticker := q.ticker
	q.ticker = nil
	q.mu.Unlock()
	if ticker != nil {
		ticker.Stop()
	}
}

// Enqueue appends the player, replacing an older entry of theirs, and
// replies with the queue length.
func (q *Queue) Enqueue(playerID, heroID string) int {
	q.mu.Lock()
	q.removeLocked(playerID)
	q.entries = append(q.entries, Entry{PlayerID: playerID, HeroID: heroID, JoinedAt: q.deps.Clock.Now()})
	n := len(q.entries)
	q.mu.Unlock()

	q.deps.Roster.Send(playerID, proto.NewMatchmakingStatus(n))
	return n
}

// Remove drops the player's entry, if any.
func (q *Queue) Remove(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(playerID)
}

func (q *Queue) removeLocked(playerID string) bool {
	for i, e := range q.entries {
		if e.PlayerID == playerID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Entries returns a copy of the queue in FIFO order.
func (q *Queue) Entries() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Pass forms full batches while enough players wait, then promotes anyone
// who has waited longer than Timeout into a match of their own.
func (q *Queue) Pass() {
	for {
		batch := q.takeBatch()
		if batch == nil {
			break
		}
		q.form(batch, q.cfg.StartDelay, false)
	}
	for _, e := range q.takeExpired(q.deps.Clock.Now()) {
		q.form([]Entry{e}, q.cfg.TimeoutStartDelay, true)
	}
}

func (q *Queue) takeBatch() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) < q.cfg.MinBatch {
		return nil
	}
	n := min(len(q.entries), q.cfg.MatchSize)
	batch := make([]Entry, n)
	copy(batch, q.entries[:n])
	q.entries = append(q.entries[:0], q.entries[n:]...)
	return batch
}

func (q *Queue) takeExpired(now time.Time) []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	var expired []Entry
	kept := q.entries[:0]
	for _, e := range q.entries {
		if now.Sub(e.JoinedAt) > q.cfg.Timeout {
			expired = append(expired, e)
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
	return expired
}

// form creates a public session for entries. Players who are no longer
// reachable are dropped without retry or notification.
func (q *Queue) form(entries []Entry, startDelay time.Duration, promoted bool) {
	ctx := context.Background()
	runner, err := q.deps.Sessions.Create(false)
	if err != nil {
		q.logf("[matchmaking] create session: %v", err)
		return
	}
	seats := make([]session.Seat, len(entries))
	for i, e := range entries {
		seats[i] = session.Seat{PlayerID: e.PlayerID, HeroID: e.HeroID}
	}
	admitted, err := q.deps.Sessions.Admit(runner, q.deps.Roster, seats)
	if err != nil {
		q.logf("[matchmaking] admit into %s: %v", runner.ID(), err)
	}
	q.reportDropped(ctx, entries, admitted)
	if len(admitted) == 0 {
		q.deps.Sessions.Remove(runner.ID())
		return
	}
	if _, err := q.deps.Sessions.StartAfter(runner.ID(), startDelay); err != nil {
		q.logf("[matchmaking] schedule start of %s: %v", runner.ID(), err)
		return
	}
	payload := admission.MatchPayload{SessionID: runner.ID(), Players: admitted}
	if promoted {
		admission.TimeoutPromoted(ctx, q.deps.Publisher, admitted[0], payload)
		return
	}
	admission.MatchFormed(ctx, q.deps.Publisher, payload)
}

func (q *Queue) reportDropped(ctx context.Context, entries []Entry, admitted []string) {
	if len(admitted) == len(entries) {
		return
	}
	in := make(map[string]struct{}, len(admitted))
	for _, id := range admitted {
		in[id] = struct{}{}
	}
	for _, e := range entries {
		if _, ok := in[e.PlayerID]; !ok {
			admission.EntryDropped(ctx, q.deps.Publisher, e.PlayerID)
		}
	}
}

// QuickPlay puts the player straight into a bot-filled match of their own.
func (q *Queue) QuickPlay(playerID, heroID string) (string, error) {
	q.Remove(playerID)
	runner, err := q.deps.Sessions.Create(false)
	if err != nil {
		return "", fmt.Errorf("quick play: %w", err)
	}
	admitted, err := q.deps.Sessions.Admit(runner, q.deps.Roster, []session.Seat{{PlayerID: playerID, HeroID: heroID}})
	if err != nil || len(admitted) == 0 {
		q.deps.Sessions.Remove(runner.ID())
		if err == nil {
			err = fmt.Errorf("player %s unreachable", playerID)
		}
		return "", fmt.Errorf("quick play: %w", err)
	}
	if _, err := q.deps.Sessions.StartAfter(runner.ID(), q.cfg.QuickPlayStartDelay); err != nil {
		return "", fmt.Errorf("quick play: %w", err)
	}
	admission.MatchFormed(context.Background(), q.deps.Publisher, admission.MatchPayload{SessionID: runner.ID(), Players: admitted, QuickPlay: true})
	return runner.ID(), nil
}

func (q *Queue) logf(format string, args ...any) {
	if q.deps.Logger != nil {
		q.deps.Logger.Printf(format, args...)
	}
}

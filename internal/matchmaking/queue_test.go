package matchmaking

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"hero-arena/server/internal/net/proto"
	"hero-arena/server/internal/sched"
	"hero-arena/server/internal/session"
)

type roster struct {
	mu      sync.Mutex
	offline map[string]bool
	sent    map[string][]any
	games   map[string]string
}

func newRoster() *roster {
	return &roster{offline: map[string]bool{}, sent: map[string][]any{}, games: map[string]string{}}
}

func (r *roster) Lookup(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return "name-" + id, !r.offline[id]
}

func (r *roster) setOffline(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offline[id] = true
}

func (r *roster) Send(id string, msg any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[id] = append(r.sent[id], msg)
	return true
}

func (r *roster) AssignGame(id, game string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[id] = game
	return true
}

func (r *roster) matchFound(id string) (proto.MatchFound, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.sent[id] {
		if mf, ok := msg.(proto.MatchFound); ok {
			return mf, true
		}
	}
	return proto.MatchFound{}, false
}

type stateRecorder struct {
	mu     sync.Mutex
	states map[string][]proto.GameState
}

func (s *stateRecorder) Broadcast(to []string, msg any) {
	st, ok := msg.(proto.GameState)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range to {
		s.states[id] = append(s.states[id], st)
	}
}

func (s *stateRecorder) first(id string) (proto.GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.states[id]) == 0 {
		return proto.GameState{}, false
	}
	return s.states[id][0], true
}

type fixture struct {
	clock    *sched.ManualClock
	registry *session.Registry
	roster   *roster
	states   *stateRecorder
	queue    *Queue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := sched.NewManualClock(time.Unix(1700000000, 0))
	states := &stateRecorder{states: map[string][]proto.GameState{}}
	registry := session.NewRegistry(session.DefaultConfig(), session.Deps{
		Scheduler:   sched.New(clock),
		Broadcaster: states,
	})
	t.Cleanup(registry.Close)
	r := newRoster()
	q := New(DefaultConfig(), Deps{Sessions: registry, Roster: r, Clock: clock})
	t.Cleanup(q.Stop)
	return &fixture{clock: clock, registry: registry, roster: r, states: states, queue: q}
}

func TestEnqueueRepliesWithQueueLength(t *testing.T) {
	f := newFixture(t)
	f.queue.Enqueue("a", "blaze")
	if n := f.queue.Enqueue("b", "frost"); n != 2 {
		t.Fatalf("expected 2 queued, got %d", n)
	}
	if n := f.queue.Enqueue("a", "titan"); n != 2 {
		t.Fatalf("re-enqueue must replace the older entry, got %d", n)
	}
	entries := f.queue.Entries()
	if entries[0].PlayerID != "b" || entries[1].PlayerID != "a" || entries[1].HeroID != "titan" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	status := f.roster.sent["b"][0].(proto.MatchmakingStatus)
	if status.Status != proto.StatusSearching || status.PlayersInQueue != 2 {
		t.Fatalf("unexpected status %+v", status)
	}
	if !f.queue.Remove("a") || f.queue.Len() != 1 {
		t.Fatalf("expected removal")
	}
}

func TestPassFormsOneFullSession(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 10; i++ {
		f.queue.Enqueue(fmt.Sprintf("p%02d", i), "blaze")
	}
	f.queue.Pass()
	if f.queue.Len() != 0 {
		t.Fatalf("expected queue emptied, got %d", f.queue.Len())
	}
	if f.registry.Count() != 1 {
		t.Fatalf("expected exactly one session, got %d", f.registry.Count())
	}
	infos := f.registry.Infos()
	if infos[0].Humans != 10 {
		t.Fatalf("expected 10 humans, got %d", infos[0].Humans)
	}
	for i := 0; i < 10; i++ {
		mf, ok := f.roster.matchFound(fmt.Sprintf("p%02d", i))
		if !ok || mf.GameID != infos[0].ID {
			t.Fatalf("player %d not notified of %s", i, infos[0].ID)
		}
	}
}

func TestPassKeepsBatchingWhileEnoughWait(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 12; i++ {
		f.queue.Enqueue(fmt.Sprintf("p%02d", i), "blaze")
	}
	f.queue.Pass()
	if f.registry.Count() != 2 || f.queue.Len() != 0 {
		t.Fatalf("expected 10+2 split into two sessions, got %d sessions and %d waiting", f.registry.Count(), f.queue.Len())
	}
	first, _ := f.roster.matchFound("p00")
	last, _ := f.roster.matchFound("p11")
	if first.GameID == last.GameID {
		t.Fatalf("expected the 11th player in a second session")
	}
}

func TestLoneEntryPromotedAfterTimeout(t *testing.T) {
	f := newFixture(t)
	f.queue.Enqueue("solo", "sniper")
	f.clock.Advance(10 * time.Second)
	f.queue.Pass()
	if f.queue.Len() != 1 {
		t.Fatalf("promoted at exactly the timeout; expected strictly after")
	}
	f.clock.Advance(time.Millisecond)
	f.queue.Pass()
	if f.queue.Len() != 0 || f.registry.Count() != 1 {
		t.Fatalf("expected promotion into its own session")
	}
	mf, ok := f.roster.matchFound("solo")
	if !ok {
		t.Fatalf("expected matchFound")
	}
	f.clock.Advance(time.Second)
	st, ok := f.states.first("solo")
	if !ok || len(st.Players) != 1 || len(st.Bots) != 9 {
		t.Fatalf("expected a bot-padded start 1s after promotion in %s, got %+v", mf.GameID, st)
	}
}

func TestUnreachableEntriesAreDropped(t *testing.T) {
	f := newFixture(t)
	f.queue.Enqueue("here", "blaze")
	f.queue.Enqueue("gone", "blaze")
	f.roster.setOffline("gone")
	f.queue.Pass()
	if f.queue.Len() != 0 {
		t.Fatalf("dropped entries must not be requeued")
	}
	if _, ok := f.roster.matchFound("gone"); ok {
		t.Fatalf("unreachable player must not be notified")
	}
	if infos := f.registry.Infos(); len(infos) != 1 || infos[0].Humans != 1 {
		t.Fatalf("unexpected sessions %+v", infos)
	}
}

func TestBatchWithNobodyReachableIsDiscarded(t *testing.T) {
	f := newFixture(t)
	f.queue.Enqueue("x", "blaze")
	f.queue.Enqueue("y", "blaze")
	f.roster.setOffline("x")
	f.roster.setOffline("y")
	f.queue.Pass()
	if f.registry.Count() != 0 {
		t.Fatalf("expected empty session discarded, got %d", f.registry.Count())
	}
}

func TestTwoGuestsMatchedAndStartedWithBots(t *testing.T) {
	f := newFixture(t)
	f.queue.Start()
	f.queue.Enqueue("g1", "blaze")
	f.queue.Enqueue("g2", "blaze")

	f.clock.Advance(2 * time.Second)
	m1, ok1 := f.roster.matchFound("g1")
	m2, ok2 := f.roster.matchFound("g2")
	if !ok1 || !ok2 || m1.GameID != m2.GameID {
		t.Fatalf("expected both guests in the same session: %v %v", m1.GameID, m2.GameID)
	}
	if len(m1.Map.Walls) == 0 || m1.Map.Walls[0] != m2.Map.Walls[0] || len(m1.Heroes) != 6 {
		t.Fatalf("expected identical maps with the hero catalog")
	}
	if _, ok := f.states.first("g1"); ok {
		t.Fatalf("session started before its grace delay")
	}

	f.clock.Advance(3 * time.Second)
	for _, id := range []string{"g1", "g2"} {
		st, ok := f.states.first(id)
		if !ok {
			t.Fatalf("%s got no gameState 3s after matchFound", id)
		}
		if len(st.Players) != 2 || len(st.Bots) != 8 {
			t.Fatalf("expected 2 humans and 8 bots, got %d and %d", len(st.Players), len(st.Bots))
		}
	}
}

func TestQuickPlayStartsSoloSession(t *testing.T) {
	f := newFixture(t)
	f.queue.Enqueue("q", "blaze")
	id, err := f.queue.QuickPlay("q", "shadow")
	if err != nil {
		t.Fatalf("quick play: %v", err)
	}
	if f.queue.Len() != 0 {
		t.Fatalf("quick play must leave the queue")
	}
	f.clock.Advance(time.Second)
	st, ok := f.states.first("q")
	if !ok || len(st.Players) != 1 || st.Players[0].HeroID != "shadow" || len(st.Bots) != 9 {
		t.Fatalf("unexpected start of %s: %+v", id, st)
	}

	f.roster.setOffline("z")
	if _, err := f.queue.QuickPlay("z", "blaze"); err == nil {
		t.Fatalf("expected an error for an unreachable player")
	}
	if f.registry.Count() != 1 {
		t.Fatalf("failed quick play must not leave a session behind")
	}
}

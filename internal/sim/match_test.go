package sim

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"hero-arena/server/internal/net/proto"
	"hero-arena/server/internal/world"
	"hero-arena/server/logging"
)

type sentMessage struct {
	to  []string
	msg any
}

type recordingBroadcaster struct {
	sent []sentMessage
}

func (r *recordingBroadcaster) Broadcast(to []string, msg any) {
	r.sent = append(r.sent, sentMessage{to: append([]string(nil), to...), msg: msg})
}

func (r *recordingBroadcaster) count(typ string) int {
	n := 0
	for _, s := range r.sent {
		if messageType(s.msg) == typ {
			n++
		}
	}
	return n
}

func (r *recordingBroadcaster) last(typ string) (any, bool) {
	for i := len(r.sent) - 1; i >= 0; i-- {
		if messageType(r.sent[i].msg) == typ {
			return r.sent[i].msg, true
		}
	}
	return nil, false
}

func messageType(msg any) string {
	switch m := msg.(type) {
	case proto.GameState:
		return m.Type
	case proto.Kill:
		return m.Type
	case proto.GameEnd:
		return m.Type
	default:
		return ""
	}
}

func testLayout() world.Map {
	return world.Map{
		Width:  2000,
		Height: 1500,
		SpawnPoints: []world.Vec2{
			{X: 100, Y: 100},
			{X: 1900, Y: 100},
			{X: 100, Y: 1400},
			{X: 1900, Y: 1400},
		},
		HealthPacks: []world.Vec2{{X: 500, Y: 750}, {X: 1500, Y: 750}},
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%06d", n)
	}
}

func newTestMatch(t *testing.T, private bool, tune func(*Config)) (*Match, *recordingBroadcaster) {
	t.Helper()
	cfg := DefaultConfig()
	if tune != nil {
		tune(&cfg)
	}
	rec := &recordingBroadcaster{}
	m := NewMatch(Params{
		ID:      "game_test",
		Private: private,
		Layout:  testLayout(),
		Config:  cfg,
		Deps: Deps{
			Broadcaster: rec,
			RNG:         rand.New(rand.NewSource(7)),
			Clock:       logging.ClockFunc(func() time.Time { return time.Unix(1700000000, 0) }),
			NewID:       sequentialIDs(),
		},
	})
	return m, rec
}

func mustAddHuman(t *testing.T, m *Match, id string) {
	t.Helper()
	if _, err := m.AddHuman(id, "name-"+id, "blaze"); err != nil {
		t.Fatalf("add %s: %v", id, err)
	}
}

func TestConfigTickConversions(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		d    time.Duration
		want uint64
	}{
		{DefaultProjectileLife, 120},
		{DefaultRespawnDelay, 180},
		{DefaultPackRespawn, 1800},
		{time.Nanosecond, 1},
		{0, 0},
	}
	for _, tc := range cases {
		if got := cfg.Ticks(tc.d); got != tc.want {
			t.Fatalf("Ticks(%v) = %d, want %d", tc.d, got, tc.want)
		}
	}
	if got := cfg.Elapsed(1800) - cfg.Elapsed(0); got != 30*time.Second {
		t.Fatalf("expected 1800 ticks to be exactly 30s, got %v", got)
	}
}

func TestStartPadsPublicMatchWithBots(t *testing.T) {
	m, rec := newTestMatch(t, false, nil)
	mustAddHuman(t, m, "a")
	mustAddHuman(t, m, "b")
	if !m.Start() {
		t.Fatalf("expected first start to succeed")
	}
	if m.Start() {
		t.Fatalf("expected second start to be rejected")
	}
	if m.Status() != StatusPlaying {
		t.Fatalf("expected playing, got %s", m.Status())
	}
	msg, ok := rec.last(proto.TypeGameState)
	if !ok {
		t.Fatalf("expected an immediate gameState broadcast")
	}
	state := msg.(proto.GameState)
	if len(state.Players) != 2 || len(state.Bots) != 8 {
		t.Fatalf("expected 2 humans and 8 bots, got %d and %d", len(state.Players), len(state.Bots))
	}
	if len(state.KillScores) != 10 {
		t.Fatalf("expected a score entry per combatant, got %d", len(state.KillScores))
	}
	if state.Bots[0].Username != "Bot Alpha" || !state.Bots[0].IsBot {
		t.Fatalf("unexpected first bot %+v", state.Bots[0])
	}
	if _, err := m.AddHuman("late", "late", "blaze"); err != ErrNotWaiting {
		t.Fatalf("expected ErrNotWaiting after start, got %v", err)
	}
}

func TestPrivateMatchHasNoBots(t *testing.T) {
	m, _ := newTestMatch(t, true, nil)
	mustAddHuman(t, m, "a")
	m.Start()
	if m.BotCount() != 0 {
		t.Fatalf("expected no bots in a private match, got %d", m.BotCount())
	}
}

func TestHandleInputClampsMovementAndPosition(t *testing.T) {
	m, _ := newTestMatch(t, true, nil)
	mustAddHuman(t, m, "a")
	m.Start()
	a, _ := m.Combatant("a")

	start := a.Position
	m.HandleInput("a", proto.Input{Movement: &world.Vec2{X: 10, Y: 0}})
	if a.Position.X != start.X+a.Speed {
		t.Fatalf("expected movement clamped to one unit of speed, got %v", a.Position)
	}
	for i := 0; i < 100; i++ {
		m.HandleInput("a", proto.Input{Movement: &world.Vec2{X: -1, Y: -1}})
	}
	if a.Position != (world.Vec2{X: 20, Y: 20}) {
		t.Fatalf("expected position clamped to margin, got %v", a.Position)
	}
	m.HandleInput("a", proto.Input{Direction: &world.Vec2{X: 0, Y: 0}})
	if a.Facing != (world.Vec2{X: 1, Y: 0}) {
		t.Fatalf("expected zero direction to be ignored, got %v", a.Facing)
	}
	m.HandleInput("a", proto.Input{Direction: &world.Vec2{X: 0, Y: 3}})
	if a.Facing != (world.Vec2{X: 0, Y: 1}) {
		t.Fatalf("expected normalized facing, got %v", a.Facing)
	}
}

func TestHandleInputIgnoredOutsidePlay(t *testing.T) {
	m, _ := newTestMatch(t, true, nil)
	mustAddHuman(t, m, "a")
	a, _ := m.Combatant("a")
	before := a.Position
	m.HandleInput("a", proto.Input{Movement: &world.Vec2{X: 1, Y: 1}, Shoot: true})
	if a.Position != before || m.ProjectileCount() != 0 {
		t.Fatalf("expected input to be ignored while waiting")
	}
	m.Start()
	a.Health = 0
	m.HandleInput("a", proto.Input{Movement: &world.Vec2{X: 1, Y: 1}, Shoot: true})
	if a.Position != before || m.ProjectileCount() != 0 {
		t.Fatalf("expected input to be ignored while dead")
	}
	m.HandleInput("ghost", proto.Input{Shoot: true})
	if m.ProjectileCount() != 0 {
		t.Fatalf("expected input from an unknown id to be ignored")
	}
}

func TestProjectileExpiresAfterLifetime(t *testing.T) {
	m, _ := newTestMatch(t, true, nil)
	mustAddHuman(t, m, "a")
	m.Start()
	a, _ := m.Combatant("a")
	a.Position = world.Vec2{X: 100, Y: 750}
	m.HandleInput("a", proto.Input{Shoot: true})

	lifetime := int(m.Config().Ticks(m.Config().ProjectileLife))
	for i := 1; i < lifetime; i++ {
		m.Step()
		if m.ProjectileCount() != 1 {
			t.Fatalf("projectile removed early at tick %d", i)
		}
	}
	m.Step()
	if m.ProjectileCount() != 0 {
		t.Fatalf("expected projectile removed after %d ticks", lifetime)
	}
}

func TestProjectileLeavingArenaIsRemoved(t *testing.T) {
	m, _ := newTestMatch(t, true, nil)
	mustAddHuman(t, m, "a")
	m.Start()
	a, _ := m.Combatant("a")
	a.Position = world.Vec2{X: 1980, Y: 750}
	m.HandleInput("a", proto.Input{Shoot: true})
	m.Step()
	m.Step()
	if m.ProjectileCount() != 0 {
		t.Fatalf("expected projectile outside the arena to be removed")
	}
}

func TestLethalHitBroadcastsKillAndRespawns(t *testing.T) {
	m, rec := newTestMatch(t, true, nil)
	mustAddHuman(t, m, "a")
	mustAddHuman(t, m, "b")
	m.Start()
	a, _ := m.Combatant("a")
	b, _ := m.Combatant("b")
	a.Position = world.Vec2{X: 500, Y: 400}
	b.Position = world.Vec2{X: 520, Y: 400}
	b.Health = 10

	m.HandleInput("a", proto.Input{Shoot: true})
	m.Step()

	if b.Health != 0 || b.Alive() {
		t.Fatalf("expected b dead, health=%d", b.Health)
	}
	msg, ok := rec.last(proto.TypeKill)
	if !ok {
		t.Fatalf("expected kill broadcast")
	}
	if kill := msg.(proto.Kill); kill.KillerName != "name-a" || kill.VictimName != "name-b" {
		t.Fatalf("unexpected kill message %+v", kill)
	}
	if a.Kills != 1 || b.Deaths != 1 {
		t.Fatalf("expected kills=1 deaths=1, got %d %d", a.Kills, b.Deaths)
	}
	if score, _ := m.Score("a"); score != 1 {
		t.Fatalf("expected score 1, got %d", score)
	}
	if m.ProjectileCount() != 0 {
		t.Fatalf("expected projectile consumed by the hit")
	}

	killTick := m.Tick()
	respawnTicks := m.Config().Ticks(m.Config().RespawnDelay)
	for m.Tick() < killTick+respawnTicks-1 {
		m.Step()
		if b.Alive() {
			t.Fatalf("respawned early at tick %d", m.Tick())
		}
	}
	m.Step()
	if b.Health != b.MaxHealth {
		t.Fatalf("expected full health after respawn, got %d", b.Health)
	}
	if m.Config().Elapsed(m.Tick())-m.Config().Elapsed(killTick) != 3*time.Second {
		t.Fatalf("expected respawn exactly 3s after the kill")
	}
	found := false
	for _, p := range m.Layout().SpawnPoints {
		if p == b.Position {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected respawn at a spawn point, got %v", b.Position)
	}
}

func TestHitSkipsOwnerAndPrefersLowestID(t *testing.T) {
	m, _ := newTestMatch(t, true, nil)
	mustAddHuman(t, m, "c")
	mustAddHuman(t, m, "b")
	mustAddHuman(t, m, "a")
	m.Start()
	shooter, _ := m.Combatant("c")
	first, _ := m.Combatant("a")
	second, _ := m.Combatant("b")
	shooter.Position = world.Vec2{X: 800, Y: 800}
	first.Position = world.Vec2{X: 815, Y: 810}
	second.Position = world.Vec2{X: 815, Y: 790}

	m.HandleInput("c", proto.Input{Shoot: true})
	m.Step()
	if first.Health == first.MaxHealth || second.Health != second.MaxHealth {
		t.Fatalf("expected only the lowest id hit, a=%d b=%d", first.Health, second.Health)
	}
	if shooter.Health != shooter.MaxHealth {
		t.Fatalf("owner must never be hit by its own projectile")
	}
}

func TestHealthStaysInBoundsDuringPlay(t *testing.T) {
	m, _ := newTestMatch(t, false, nil)
	mustAddHuman(t, m, "a")
	m.Start()
	for i := 0; i < 3000; i++ {
		m.Step()
		for _, c := range m.combatants {
			if c.Health < 0 || c.Health > c.MaxHealth {
				t.Fatalf("tick %d: %s health %d outside [0,%d]", m.Tick(), c.ID, c.Health, c.MaxHealth)
			}
		}
		if m.Status() != StatusPlaying {
			break
		}
	}
}

func TestHandleKillIncrementsOnlyKiller(t *testing.T) {
	m, _ := newTestMatch(t, true, nil)
	mustAddHuman(t, m, "a")
	mustAddHuman(t, m, "b")
	mustAddHuman(t, m, "c")
	m.Start()
	before := m.copyScores()
	m.HandleKill("a", "b")
	after := m.copyScores()
	for id, score := range after {
		want := before[id]
		if id == "a" {
			want++
		}
		if score != want {
			t.Fatalf("score for %s = %d, want %d", id, score, want)
		}
	}
	m.HandleKill("gone", "c")
	if got := m.copyScores(); got["a"] != 1 || got["b"] != 0 || got["c"] != 0 {
		t.Fatalf("absent killer must not change scores, got %v", got)
	}
	c, _ := m.Combatant("c")
	if c.Deaths != 1 {
		t.Fatalf("expected victim death counted even without a killer")
	}
}

func TestWinGoesToEarliestCrossing(t *testing.T) {
	m, rec := newTestMatch(t, true, func(c *Config) { c.KillsToWin = 2 })
	mustAddHuman(t, m, "a")
	mustAddHuman(t, m, "b")
	mustAddHuman(t, m, "z")
	ended := make(chan Result, 1)
	m.SetHooks(Hooks{Ended: func(r Result) { ended <- r }})
	m.Start()

	m.HandleKill("z", "a")
	m.HandleKill("a", "b")
	m.HandleKill("z", "b")
	m.HandleKill("a", "z")
	if !m.CheckWinCondition() {
		t.Fatalf("expected a winner once scores reach the target")
	}
	if m.Status() != StatusEnded {
		t.Fatalf("expected ended, got %s", m.Status())
	}
	msg, ok := rec.last(proto.TypeGameEnd)
	if !ok {
		t.Fatalf("expected gameEnd broadcast")
	}
	end := msg.(proto.GameEnd)
	if end.WinnerID == nil || *end.WinnerID != "z" || end.WinnerName != "name-z" {
		t.Fatalf("expected z to win by crossing first, got %+v", end)
	}
	if end.FinalScores["a"] != 2 || end.FinalScores["z"] != 2 {
		t.Fatalf("unexpected final scores %v", end.FinalScores)
	}
	result := <-ended
	if result.WinnerID != "z" || len(result.Humans) != 3 {
		t.Fatalf("unexpected result %+v", result)
	}

	tick := m.Tick()
	m.Step()
	m.HandleInput("a", proto.Input{Shoot: true})
	if m.Tick() != tick || m.ProjectileCount() != 0 {
		t.Fatalf("expected no mutation after the match ended")
	}
	m.EndGame("a")
	if rec.count(proto.TypeGameEnd) != 1 {
		t.Fatalf("expected exactly one gameEnd")
	}
}

func TestHandleKillIgnoredOnceEnded(t *testing.T) {
	m, rec := newTestMatch(t, true, nil)
	mustAddHuman(t, m, "a")
	mustAddHuman(t, m, "b")
	m.Start()
	m.EndGame("a")
	kills := rec.count(proto.TypeKill)

	m.HandleKill("a", "b")
	if got, _ := m.Score("a"); got != 0 {
		t.Fatalf("expected score unchanged after the end, got %d", got)
	}
	b, _ := m.Combatant("b")
	if b.Deaths != 0 || len(m.respawns) != 0 {
		t.Fatalf("expected no death or respawn after the end, deaths=%d respawns=%d", b.Deaths, len(m.respawns))
	}
	if rec.count(proto.TypeKill) != kills {
		t.Fatalf("expected no kill broadcast after the end")
	}
}

func TestStepChecksWinCondition(t *testing.T) {
	m, _ := newTestMatch(t, true, func(c *Config) { c.KillsToWin = 1 })
	mustAddHuman(t, m, "a")
	mustAddHuman(t, m, "b")
	m.Start()
	a, _ := m.Combatant("a")
	b, _ := m.Combatant("b")
	a.Position = world.Vec2{X: 500, Y: 400}
	b.Position = world.Vec2{X: 520, Y: 400}
	b.Health = 1
	m.HandleInput("a", proto.Input{Shoot: true})
	m.Step()
	if m.Status() != StatusEnded {
		t.Fatalf("expected the lethal hit to end the match")
	}
}

func TestHealthPackReactivatesExactlyAfterCooldown(t *testing.T) {
	m, _ := newTestMatch(t, true, nil)
	mustAddHuman(t, m, "a")
	m.Start()
	a, _ := m.Combatant("a")
	pack := m.Layout().HealthPacks[0]
	a.Position = pack
	a.Health = 20

	m.Step()
	if a.Health != 70 {
		t.Fatalf("expected +50 heal, got %d", a.Health)
	}
	packs := m.HealthPacks()
	if packs[0].Active {
		t.Fatalf("expected pack deactivated after pickup")
	}
	if st := m.Snapshot().HealthPacks[0]; st.RespawnTime != 30000 {
		t.Fatalf("expected 30000ms countdown, got %d", st.RespawnTime)
	}
	consumedAt := m.Tick()
	a.Position = world.Vec2{X: 100, Y: 100}

	cooldown := m.Config().Ticks(m.Config().PackRespawn)
	for m.Tick() < consumedAt+cooldown-1 {
		m.Step()
		if m.HealthPacks()[0].Active {
			t.Fatalf("pack reactivated early at tick %d", m.Tick())
		}
	}
	m.Step()
	if !m.HealthPacks()[0].Active {
		t.Fatalf("expected pack active at tick %d", m.Tick())
	}
	if m.Config().Elapsed(m.Tick())-m.Config().Elapsed(consumedAt) != 30*time.Second {
		t.Fatalf("expected reactivation exactly 30s after pickup")
	}
}

func TestHealthPackCapsAtMaxAndIgnoresFullHealth(t *testing.T) {
	m, _ := newTestMatch(t, true, nil)
	mustAddHuman(t, m, "a")
	m.Start()
	a, _ := m.Combatant("a")
	a.Position = m.Layout().HealthPacks[1]
	m.Step()
	if !m.HealthPacks()[1].Active {
		t.Fatalf("a full-health combatant must not consume a pack")
	}
	a.Health = a.MaxHealth - 10
	m.Step()
	if a.Health != a.MaxHealth {
		t.Fatalf("expected heal capped at max, got %d", a.Health)
	}
}

func TestRemoveLastHumanForceEnds(t *testing.T) {
	m, _ := newTestMatch(t, false, nil)
	mustAddHuman(t, m, "a")
	mustAddHuman(t, m, "b")
	var result *Result
	m.SetHooks(Hooks{Ended: func(r Result) { result = &r }})
	m.Start()

	if !m.RemovePlayer("a") {
		t.Fatalf("expected removal of a")
	}
	if _, ok := m.Score("a"); ok {
		t.Fatalf("expected score entry removed")
	}
	if m.Status() != StatusPlaying {
		t.Fatalf("match must continue while a human remains")
	}
	for _, id := range m.joinOrder {
		if c := m.combatants[id]; c.IsBot() && m.RemovePlayer(id) {
			t.Fatalf("bots must not be removable")
		}
	}
	m.RemovePlayer("b")
	if m.Status() != StatusEnded {
		t.Fatalf("expected force-end when the last human leaves")
	}
	if result == nil || result.WinnerID != "" {
		t.Fatalf("expected a winnerless result, got %+v", result)
	}
	if m.RemovePlayer("b") {
		t.Fatalf("expected second removal to report false")
	}
}

func TestBroadcastCadenceFollowsTickCounter(t *testing.T) {
	m, rec := newTestMatch(t, true, nil)
	mustAddHuman(t, m, "a")
	m.Start()
	for i := 0; i < 9; i++ {
		m.Step()
	}
	if got := rec.count(proto.TypeGameState); got != 1+3 {
		t.Fatalf("expected the start broadcast plus 3 throttled ones, got %d", got)
	}
	for _, s := range rec.sent {
		if len(s.to) != 1 || s.to[0] != "a" {
			t.Fatalf("expected broadcasts addressed to humans only, got %v", s.to)
		}
	}
}

func TestMapPayloadCarriesLayoutAndPacks(t *testing.T) {
	m, _ := newTestMatch(t, false, nil)
	payload := m.MapPayload()
	if payload.Width != 2000 || payload.Height != 1500 {
		t.Fatalf("unexpected dimensions %v x %v", payload.Width, payload.Height)
	}
	if len(payload.SpawnPoints) != 4 || len(payload.HealthPacks) != 2 || !payload.HealthPacks[0].Active {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

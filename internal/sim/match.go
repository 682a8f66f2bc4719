package sim

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"hero-arena/server/internal/ai"
	"hero-arena/server/internal/hero"
	"hero-arena/server/internal/net/proto"
	"hero-arena/server/internal/state"
	"hero-arena/server/internal/world"
	"hero-arena/server/logging"
	"hero-arena/server/logging/lifecycle"
)

// Status is the lifecycle phase of a match.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
	StatusEnded   Status = "ended"
)

// ErrNotWaiting is returned when adding players to a match that already began.
var ErrNotWaiting = errors.New("match already started")

// HumanResult is one human's line in the final result.
type HumanResult struct {
	ID     string
	Name   string
	Kills  int
	Deaths int
}

// Result summarises an ended match. WinnerID is empty when every human left.
type Result struct {
	SessionID string
	WinnerID  string
	Tick      uint64
	Scores    map[string]int
	Humans    []HumanResult
}

// Hooks let the owner react to lifecycle transitions. They run on the
// goroutine that drives the match.
type Hooks struct {
	Started func()
	Ended   func(Result)
}

// Params configures NewMatch.
type Params struct {
	ID      string
	Private bool
	Layout  world.Map
	Config  Config
	Deps    Deps
	Hooks   Hooks
}

type pendingRespawn struct {
	due uint64
	id  string
}

// Match owns the full state of one arena session. It is not safe for
// concurrent use; a session runner serializes every call.
type Match struct {
	id      string
	private bool
	cfg     Config
	deps    Deps
	hooks   Hooks
	layout  world.Map
	bounds  world.Bounds
	bots    *ai.Controller
	index   *spatialIndex

	status    Status
	tick      uint64
	startedAt time.Time

	combatants  map[string]*state.Combatant
	joinOrder   []string
	humanCount  int
	botCount    int
	projectiles []*state.Projectile
	packs       []state.HealthPack
	respawns    []pendingRespawn

	scores      map[string]int
	crossedAt   map[string]uint64
	crossingSeq uint64
}

func NewMatch(p Params) *Match {
	cfg := p.Config.Normalized()
	deps := p.Deps.withDefaults()
	m := &Match{
		id:         p.ID,
		private:    p.Private,
		cfg:        cfg,
		deps:       deps,
		hooks:      p.Hooks,
		layout:     p.Layout,
		bounds:     p.Layout.Bounds(cfg.BoundaryMargin),
		bots:       ai.NewController(cfg.AI, deps.RNG),
		index:      newSpatialIndex(p.Layout.Width, p.Layout.Height),
		status:     StatusWaiting,
		combatants: make(map[string]*state.Combatant),
		scores:     make(map[string]int),
		crossedAt:  make(map[string]uint64),
	}
	for _, pos := range p.Layout.HealthPacks {
		m.packs = append(m.packs, state.HealthPack{Position: pos, Active: true})
	}
	return m
}

// SetHooks replaces the lifecycle hooks. Call before Start.
func (m *Match) SetHooks(h Hooks) {
	m.hooks = h
}

func (m *Match) ID() string { return m.id }
func (m *Match) Private() bool { return m.private }
func (m *Match) Status() Status { return m.status }
func (m *Match) Tick() uint64 { return m.tick }
func (m *Match) StartedAt() time.Time { return m.startedAt }
func (m *Match) Layout() world.Map { return m.layout }
func (m *Match) Config() Config { return m.cfg }
func (m *Match) HumanCount() int { return m.humanCount }
func (m *Match) BotCount() int { return m.botCount }
func (m *Match) ProjectileCount() int { return len(m.projectiles) }
func (m *Match) Elapsed() time.Duration { return m.cfg.Elapsed(m.tick) }

// Combatant returns the live combatant with id.
func (m *Match) Combatant(id string) (*state.Combatant, bool) {
	c, ok := m.combatants[id]
	return c, ok
}

// Score returns the kill-score entry for id.
func (m *Match) Score(id string) (int, bool) {
	s, ok := m.scores[id]
	return s, ok
}

// HealthPacks returns a copy of the pack state.
func (m *Match) HealthPacks() []state.HealthPack {
	out := make([]state.HealthPack, len(m.packs))
	copy(out, m.packs)
	return out
}

// Humans returns the human ids in join order.
func (m *Match) Humans() []string {
	ids := make([]string, 0, m.humanCount)
	for _, id := range m.joinOrder {
		if c := m.combatants[id]; c != nil && !c.IsBot() {
			ids = append(ids, id)
		}
	}
	return ids
}

// AddHuman admits a player before the match starts. Spawn points are handed
// out in join order.
func (m *Match) AddHuman(id, name, heroID string) (*state.Combatant, error) {
	if m.status != StatusWaiting {
		return nil, ErrNotWaiting
	}
	if existing, ok := m.combatants[id]; ok {
		return existing, nil
	}
	pos := m.layout.SpawnPoint(m.humanCount)
	c := state.NewCombatant(id, name, hero.Resolve(heroID), state.KindHuman, pos)
	m.addCombatant(c)
	m.humanCount++
	return c, nil
}

func (m *Match) addBot() *state.Combatant {
	id := m.deps.NewID()
	if len(id) > 8 {
		id = id[:8]
	}
	bot := ai.SpawnBot(ai.SpawnConfig{
		ID:       "bot_" + id,
		Index:    m.botCount,
		Skill:    m.cfg.BotSkill,
		Hero:     hero.Random(m.deps.RNG),
		Position: m.layout.SpawnPoint(m.humanCount + m.botCount),
	})
	m.addCombatant(bot)
	m.botCount++
	return bot
}

func (m *Match) addCombatant(c *state.Combatant) {
	m.combatants[c.ID] = c
	m.joinOrder = append(m.joinOrder, c.ID)
	m.scores[c.ID] = 0
	m.index.sync(c)
}

// Start moves the match from waiting to playing. Public matches are padded
// with bots up to the match size. The caller begins ticking afterwards.
func (m *Match) Start() bool {
	if m.status != StatusWaiting {
		return false
	}
	m.status = StatusPlaying
	m.startedAt = m.deps.Clock.Now()
	if !m.private {
		for len(m.combatants) < m.cfg.MatchSize {
			m.addBot()
		}
	}
	lifecycle.SessionStarted(context.Background(), m.deps.Publisher, m.tick, m.ref(), m.sessionPayload("", ""))
	if m.hooks.Started != nil {
		m.hooks.Started()
	}
	m.broadcastState()
	return true
}

// Step advances the match by one tick. It is a no-op unless playing.
func (m *Match) Step() {
	if m.status != StatusPlaying {
		return
	}
	m.tick++
	m.runRespawns()
	m.stepBots()
	m.syncIndex()
	m.stepProjectiles()
	m.stepHealthPacks()
	if m.CheckWinCondition() {
		return
	}
	if m.tick%uint64(m.cfg.BroadcastEvery) == 0 {
		m.broadcastState()
	}
}

// HandleInput applies one control frame from a human player.
func (m *Match) HandleInput(id string, in proto.Input) {
	if m.status != StatusPlaying {
		return
	}
	c := m.combatants[id]
	if c == nil || c.IsBot() || !c.Alive() {
		return
	}
	if in.Movement != nil {
		step := world.Vec2{X: axis(in.Movement.X), Y: axis(in.Movement.Y)}
		c.Position = m.bounds.ClampInside(c.Position.Add(step.Scale(c.Speed)))
	}
	if in.Direction != nil {
		c.SetFacing(*in.Direction)
	}
	if in.Shoot {
		m.spawnProjectile(c)
	}
}

func axis(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return world.Clamp(v, -1, 1)
}

// RemovePlayer drops a human and their score. The last human leaving a
// running match ends it without a winner.
func (m *Match) RemovePlayer(id string) bool {
	c := m.combatants[id]
	if c == nil || c.IsBot() {
		return false
	}
	delete(m.combatants, id)
	delete(m.scores, id)
	delete(m.crossedAt, id)
	m.index.remove(id)
	for i, existing := range m.joinOrder {
		if existing == id {
			m.joinOrder = append(m.joinOrder[:i], m.joinOrder[i+1:]...)
			break
		}
	}
	m.humanCount--
	if m.humanCount == 0 && m.status == StatusPlaying {
		m.EndGame("")
	}
	return true
}

// EndGame moves a running match to ended and reports the result.
func (m *Match) EndGame(winnerID string) {
	if m.status != StatusPlaying {
		return
	}
	m.status = StatusEnded

	winnerName := "Bot"
	if winner := m.combatants[winnerID]; winner != nil {
		winnerName = winner.Name
	}
	var winnerRef *string
	if winnerID != "" {
		id := winnerID
		winnerRef = &id
	}
	m.broadcast(proto.GameEnd{
		Type:        proto.TypeGameEnd,
		WinnerID:    winnerRef,
		WinnerName:  winnerName,
		FinalScores: m.copyScores(),
	})

	reason := "winner"
	if winnerID == "" {
		reason = "abandoned"
	}
	lifecycle.SessionEnded(context.Background(), m.deps.Publisher, m.tick, m.ref(), m.sessionPayload(winnerID, reason))
	if m.hooks.Ended != nil {
		m.hooks.Ended(m.result(winnerID))
	}
}

func (m *Match) result(winnerID string) Result {
	res := Result{SessionID: m.id, WinnerID: winnerID, Tick: m.tick, Scores: m.copyScores()}
	for _, id := range m.Humans() {
		c := m.combatants[id]
		res.Humans = append(res.Humans, HumanResult{ID: c.ID, Name: c.Name, Kills: c.Kills, Deaths: c.Deaths})
	}
	return res
}

func (m *Match) runRespawns() {
	if len(m.respawns) == 0 {
		return
	}
	kept := m.respawns[:0]
	for _, r := range m.respawns {
		if r.due > m.tick {
			kept = append(kept, r)
			continue
		}
		if c := m.combatants[r.id]; c != nil {
			c.Respawn(m.layout.RandomSpawnPoint(m.deps.RNG))
		}
	}
	m.respawns = kept
}

func (m *Match) stepBots() {
	ordered := m.sortedCombatants()
	dt := m.cfg.TickDuration()
	for _, c := range ordered {
		if !c.IsBot() {
			continue
		}
		decision := m.bots.Step(c, ordered, dt, m.bounds)
		if decision.Fire {
			m.spawnProjectile(c)
		}
	}
}

func (m *Match) syncIndex() {
	for _, c := range m.combatants {
		m.index.sync(c)
	}
}

// sortedCombatants lists every combatant in ascending id order.
func (m *Match) sortedCombatants() []*state.Combatant {
	out := make([]*state.Combatant, 0, len(m.combatants))
	for _, c := range m.combatants {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Match) ref() logging.EntityRef {
	return logging.EntityRef{ID: m.id, Kind: logging.EntityKindSession}
}

func combatantRef(c *state.Combatant) logging.EntityRef {
	if c == nil {
		return logging.EntityRef{Kind: logging.EntityKindUnknown}
	}
	kind := logging.EntityKindPlayer
	if c.IsBot() {
		kind = logging.EntityKindBot
	}
	return logging.EntityRef{ID: c.ID, Kind: kind}
}

func (m *Match) sessionPayload(winnerID, reason string) lifecycle.SessionPayload {
	return lifecycle.SessionPayload{
		Private:  m.private,
		Humans:   m.humanCount,
		Bots:     m.botCount,
		WinnerID: winnerID,
		Reason:   reason,
	}
}

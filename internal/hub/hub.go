// Package hub owns the connected players and routes their messages to
// matchmaking, rooms and live sessions.
package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"hero-arena/server/internal/accounts"
	"hero-arena/server/internal/hero"
	"hero-arena/server/internal/lobby"
	"hero-arena/server/internal/net/proto"
	"hero-arena/server/internal/session"
	"hero-arena/server/internal/sim"
	"hero-arena/server/internal/telemetry"
	"hero-arena/server/logging"
	"hero-arena/server/logging/lifecycle"
)

// Status is what a player is currently doing.
type Status string

const (
	StatusOnline      Status = "online"
	StatusMatchmaking Status = "matchmaking"
	StatusInRoom      Status = "in-room"
	StatusInGame      Status = "in-game"
)

// Sender is one player's outbound connection. Offer must not block.
type Sender interface {
	Codec() proto.Codec
	Offer(data []byte) bool
}

// Sessions is the part of the session registry the hub drives.
type Sessions interface {
	Get(id string) (*session.Runner, bool)
	RemovePlayer(id, playerID string) error
}

// Matchmaker is the public matchmaking queue.
type Matchmaker interface {
	Enqueue(playerID, heroID string) int
	Remove(playerID string) bool
	QuickPlay(playerID, heroID string) (string, error)
}

// Rooms is the private room manager.
type Rooms interface {
	Create(host lobby.Member) (string, error)
	Join(code string, member lobby.Member) (string, error)
	Start(code, requester string) (string, error)
	// Leave returns the members displaced when the room closes.
	Leave(code, playerID string) []string
}

// Player is a snapshot of one directory entry.
type Player struct {
	ID          string
	Name        string
	LoggedIn    bool
	Status      Status
	HeroID      string
	FriendCode  string
	Game        string
	Room        string
	ConnectedAt time.Time

	sender Sender
}

type Deps struct {
	Accounts  *accounts.Store
	Publisher logging.Publisher
	Logger    telemetry.Logger
	Counters  *telemetry.Counters
	NewID     func() string
	Now       func() time.Time
}

// Hub is safe for concurrent use. Its lock is never held while calling into
// another component.
type Hub struct {
	deps Deps

	sessions Sessions
	queue    Matchmaker
	rooms    Rooms

	mu      sync.Mutex
	players map[string]*Player
}

func New(deps Deps) *Hub {
	if deps.Accounts == nil {
		deps.Accounts = accounts.NewStore(accounts.Options{})
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Hub{deps: deps, players: make(map[string]*Player)}
}

// Attach wires the admission components, which themselves need the hub as
// their roster. It must be called before the first Open.
func (h *Hub) Attach(sessions Sessions, queue Matchmaker, rooms Rooms) {
	h.sessions = sessions
	h.queue = queue
	h.rooms = rooms
}

// Open registers a fresh connection and greets it with its player id.
func (h *Hub) Open(sender Sender) string {
	id := h.deps.NewID()
	h.mu.Lock()
	h.players[id] = &Player{ID: id, HeroID: hero.DefaultID, ConnectedAt: h.deps.Now(), sender: sender}
	h.mu.Unlock()

	h.Send(id, proto.NewConnected(id))
	lifecycle.PlayerConnected(context.Background(), h.deps.Publisher, playerRef(id), nil)
	return id
}

// Close forgets the player after taking them out of the queue, their room
// and their session.
func (h *Hub) Close(id string) {
	h.mu.Lock()
	p, ok := h.players[id]
	if ok {
		delete(h.players, id)
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	h.detach(*p, "")
	if p.FriendCode != "" {
		h.deps.Accounts.Forget(p.FriendCode)
	}
	lifecycle.PlayerDisconnected(context.Background(), h.deps.Publisher, playerRef(id), lifecycle.PlayerDisconnectedPayload{Reason: "closed"}, nil)
}

// detach takes the player out of the queue, any room other than keepRoom,
// and their current session.
func (h *Hub) detach(p Player, keepRoom string) {
	if h.queue != nil {
		h.queue.Remove(p.ID)
	}
	if p.Room != "" && p.Room != keepRoom && h.rooms != nil {
		for _, id := range h.rooms.Leave(p.Room, p.ID) {
			h.releaseRoom(id, p.Room)
		}
	}
	if p.Game != "" && h.sessions != nil {
		if err := h.sessions.RemovePlayer(p.Game, p.ID); err != nil && !errors.Is(err, session.ErrSessionNotFound) && !errors.Is(err, session.ErrRunnerStopped) {
			h.logf("[hub] remove %s from %s: %v", p.ID, p.Game, err)
		}
	}
}

// releaseRoom puts a member of a closed room back online, unless they have
// already moved on.
func (h *Hub) releaseRoom(id, code string) {
	h.update(id, func(p *Player) {
		if p.Room != code {
			return
		}
		p.Room = ""
		if p.Status == StatusInRoom {
			p.Status = StatusOnline
		}
	})
}

// Deliver decodes one inbound frame with the sender's codec and handles it.
// Malformed or invalid frames are dropped; the connection stays open.
func (h *Hub) Deliver(id string, data []byte) {
	h.deps.Counters.RecordReceive()
	p, ok := h.Player(id)
	if !ok {
		return
	}
	var codec proto.Codec
	if p.sender != nil {
		codec = p.sender.Codec()
	}
	msg, err := proto.DecodeClientMessage(codec, data)
	if err != nil {
		h.deps.Counters.RecordReject()
		h.logf("[hub] dropping message from %s: %v", id, err)
		return
	}
	h.Handle(id, msg)
}

// Handle dispatches a decoded message. Anything but the login flows is
// ignored until the player has logged in.
func (h *Hub) Handle(id string, msg proto.ClientMessage) {
	p, ok := h.Player(id)
	if !ok {
		return
	}
	switch msg.Type {
	case proto.TypeGuestLogin:
		h.guestLogin(p, msg)
		return
	case proto.TypeRegister:
		h.register(p, msg)
		return
	case proto.TypeLogin:
		h.login(p, msg)
		return
	}
	if !p.LoggedIn {
		return
	}
	switch msg.Type {
	case proto.TypeJoinMatchmaking:
		h.joinMatchmaking(p, msg)
	case proto.TypeQuickPlay:
		h.quickPlay(p, msg)
	case proto.TypeCreateRoom:
		h.createRoom(p, msg)
	case proto.TypeJoinRoom:
		h.joinRoom(p, msg)
	case proto.TypeStartRoom:
		h.startRoom(p, msg)
	case proto.TypeGameInput:
		h.gameInput(p, msg)
	case proto.TypeLeaveGame:
		h.leaveGame(p)
	}
}

func (h *Hub) guestLogin(p Player, msg proto.ClientMessage) {
	name := msg.Username
	if name == "" {
		short := p.ID
		if len(short) > 6 {
			short = short[:6]
		}
		name = "Guest_" + short
	}
	acc, err := h.deps.Accounts.Guest(name)
	if err != nil {
		h.logf("[hub] guest login for %s: %v", p.ID, err)
		h.Send(p.ID, proto.NewAuthFailure(proto.TypeLoginResult, "Login failed"))
		return
	}
	h.signIn(p.ID, acc)
	h.Send(p.ID, proto.AuthResult{
		Type:       proto.TypeLoginResult,
		Success:    true,
		PlayerID:   p.ID,
		FriendCode: acc.FriendCode,
		PlayerData: &acc.Data,
	})
}

func (h *Hub) register(p Player, msg proto.ClientMessage) {
	acc, err := h.deps.Accounts.Register(msg.Username, msg.Password)
	if err != nil {
		reason := "Registration failed"
		if errors.Is(err, accounts.ErrUsernameTaken) {
			reason = accounts.ErrUsernameTaken.Error()
		} else {
			h.logf("[hub] register for %s: %v", p.ID, err)
		}
		h.Send(p.ID, proto.NewAuthFailure(proto.TypeRegisterResult, reason))
		return
	}
	h.signIn(p.ID, acc)
	h.Send(p.ID, authSuccess(proto.TypeRegisterResult, p.ID, acc))
}

func (h *Hub) login(p Player, msg proto.ClientMessage) {
	acc, err := h.deps.Accounts.Login(msg.Username, msg.Password)
	if err != nil {
		h.Send(p.ID, proto.NewAuthFailure(proto.TypeLoginResult, accounts.ErrInvalidCredentials.Error()))
		return
	}
	h.signIn(p.ID, acc)
	h.Send(p.ID, authSuccess(proto.TypeLoginResult, p.ID, acc))
}

func authSuccess(typ, playerID string, acc accounts.Account) proto.AuthResult {
	return proto.AuthResult{
		Type:       typ,
		Success:    true,
		PlayerID:   playerID,
		FriendCode: acc.FriendCode,
		Username:   acc.Username,
		PlayerData: &acc.Data,
	}
}

func (h *Hub) signIn(id string, acc accounts.Account) {
	var previous string
	h.mu.Lock()
	if p, ok := h.players[id]; ok {
		if p.FriendCode != acc.FriendCode {
			previous = p.FriendCode
		}
		p.Name = acc.Username
		p.FriendCode = acc.FriendCode
		p.LoggedIn = true
		if p.Status == "" {
			p.Status = StatusOnline
		}
	}
	h.mu.Unlock()
	if previous != "" {
		h.deps.Accounts.Forget(previous)
	}
}

func (h *Hub) joinMatchmaking(p Player, msg proto.ClientMessage) {
	heroID := h.pickHero(p.ID, msg.HeroID)
	h.detach(p, "")
	h.update(p.ID, func(p *Player) {
		p.Status = StatusMatchmaking
		p.Game = ""
		p.Room = ""
	})
	h.queue.Enqueue(p.ID, heroID)
}

func (h *Hub) quickPlay(p Player, msg proto.ClientMessage) {
	heroID := h.pickHero(p.ID, msg.HeroID)
	h.detach(p, "")
	h.update(p.ID, func(p *Player) {
		p.Status = StatusOnline
		p.Game = ""
		p.Room = ""
	})
	if _, err := h.queue.QuickPlay(p.ID, heroID); err != nil {
		h.logf("[hub] quick play for %s: %v", p.ID, err)
	}
}

func (h *Hub) createRoom(p Player, msg proto.ClientMessage) {
	heroID := msg.HeroID
	if heroID == "" {
		heroID = hero.DefaultID
	}
	h.setHero(p.ID, heroID)
	h.detach(p, "")
	code, err := h.rooms.Create(lobby.Member{ID: p.ID, Name: p.Name, HeroID: heroID})
	if err != nil {
		h.logf("[hub] create room for %s: %v", p.ID, err)
		return
	}
	h.update(p.ID, func(p *Player) {
		p.Status = StatusInRoom
		p.Game = ""
		p.Room = code
	})
}

func (h *Hub) joinRoom(p Player, msg proto.ClientMessage) {
	heroID := msg.HeroID
	if heroID == "" {
		heroID = hero.DefaultID
	}
	code, err := h.rooms.Join(msg.RoomCode, lobby.Member{ID: p.ID, Name: p.Name, HeroID: heroID})
	if err != nil {
		return
	}
	h.setHero(p.ID, heroID)
	h.detach(p, code)
	h.update(p.ID, func(p *Player) {
		p.Status = StatusInRoom
		p.Game = ""
		p.Room = code
	})
}

func (h *Hub) startRoom(p Player, msg proto.ClientMessage) {
	_, err := h.rooms.Start(msg.RoomCode, p.ID)
	switch {
	case err == nil, errors.Is(err, lobby.ErrRoomNotFound), errors.Is(err, lobby.ErrNotHost):
	default:
		h.logf("[hub] start room for %s: %v", p.ID, err)
	}
}

func (h *Hub) gameInput(p Player, msg proto.ClientMessage) {
	if p.Game == "" || msg.Input == nil {
		return
	}
	runner, ok := h.sessions.Get(p.Game)
	if !ok {
		return
	}
	runner.Enqueue(p.ID, *msg.Input)
}

func (h *Hub) leaveGame(p Player) {
	if p.Game == "" {
		return
	}
	h.detach(Player{ID: p.ID, Game: p.Game}, "")
	h.update(p.ID, func(p *Player) {
		p.Game = ""
		p.Status = StatusOnline
	})
	h.Send(p.ID, proto.LeftGame{Type: proto.TypeLeftGame})
}

// pickHero stores heroID when given and returns the player's hero.
func (h *Hub) pickHero(id, heroID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.players[id]
	if !ok {
		return heroOr(heroID)
	}
	if heroID != "" {
		p.HeroID = heroID
	}
	return p.HeroID
}

func (h *Hub) setHero(id, heroID string) {
	h.update(id, func(p *Player) { p.HeroID = heroID })
}

func heroOr(id string) string {
	if id == "" {
		return hero.DefaultID
	}
	return id
}

func (h *Hub) update(id string, fn func(*Player)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.players[id]
	if ok {
		fn(p)
	}
	return ok
}

// Player returns a snapshot of the directory entry.
func (h *Hub) Player(id string) (Player, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Lookup implements session.Roster: only logged in, connected players are
// reachable.
func (h *Hub) Lookup(id string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.players[id]
	if !ok || !p.LoggedIn || p.sender == nil {
		return "", false
	}
	return p.Name, true
}

// AssignGame implements session.Roster.
func (h *Hub) AssignGame(id, gameID string) bool {
	return h.update(id, func(p *Player) {
		p.Game = gameID
		p.Room = ""
		p.Status = StatusInGame
	})
}

// RecordResult adds a finished match to the accounts of the humans who were
// still in it.
func (h *Hub) RecordResult(res sim.Result) {
	for _, human := range res.Humans {
		p, ok := h.Player(human.ID)
		if !ok || p.FriendCode == "" {
			continue
		}
		rec := accounts.MatchRecord{Kills: human.Kills, Deaths: human.Deaths, Won: human.ID == res.WinnerID}
		if err := h.deps.Accounts.RecordMatch(p.FriendCode, rec); err != nil {
			h.logf("[hub] record result of %s for %s: %v", res.SessionID, human.ID, err)
		}
	}
}

// Directory summarises the connected players.
type Directory struct {
	Connected int            `json:"connected"`
	LoggedIn  int            `json:"loggedIn"`
	ByStatus  map[Status]int `json:"byStatus"`
}

func (h *Hub) Directory() Directory {
	h.mu.Lock()
	defer h.mu.Unlock()
	d := Directory{Connected: len(h.players), ByStatus: make(map[Status]int)}
	for _, p := range h.players {
		if !p.LoggedIn {
			continue
		}
		d.LoggedIn++
		d.ByStatus[p.Status]++
	}
	return d
}

func (h *Hub) logf(format string, args ...any) {
	if h.deps.Logger != nil {
		h.deps.Logger.Printf(format, args...)
	}
}

func playerRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindPlayer}
}

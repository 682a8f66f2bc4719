package lobby

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"hero-arena/server/internal/hero"
	"hero-arena/server/internal/net/proto"
	"hero-arena/server/internal/sched"
	"hero-arena/server/internal/session"
	"hero-arena/server/internal/telemetry"
	"hero-arena/server/logging"
	"hero-arena/server/logging/admission"
)

// Errors surfaced to clients verbatim as roomError text.
var (
	ErrRoomNotFound   = errors.New("Room not found")
	ErrRoomInProgress = errors.New("Game in progress")
	ErrRoomFull       = errors.New("Room full")
	ErrNotHost        = errors.New("only the host can start the room")
)

// CodeAlphabet omits characters that are easy to misread (I, O, 0, 1).
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// SessionPrefix is prepended to a room code to name its session.
const SessionPrefix = "room_"

type Config struct {
	MaxMembers int
	StartDelay time.Duration
	CodeLength int
}

func DefaultConfig() Config {
	return Config{MaxMembers: 10, StartDelay: time.Second, CodeLength: 6}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxMembers <= 0 {
		c.MaxMembers = def.MaxMembers
	}
	if c.StartDelay <= 0 {
		c.StartDelay = def.StartDelay
	}
	if c.CodeLength <= 0 {
		c.CodeLength = def.CodeLength
	}
	return c
}

// Status of a room.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusStarting Status = "starting"
)

// Member is one player sitting in a room.
type Member struct {
	ID     string
	Name   string
	HeroID string
}

// Room is a snapshot of a private room.
type Room struct {
	Code    string
	HostID  string
	Members []Member
	Status  Status
}

// Sessions is the part of the session registry rooms need.
type Sessions interface {
	Get(id string) (*session.Runner, bool)
	CreateWithID(id string, private bool) (*session.Runner, error)
	Admit(runner *session.Runner, roster session.Roster, seats []session.Seat) ([]string, error)
	StartAfter(id string, delay time.Duration) (sched.Key, error)
	Remove(id string) bool
}

type Deps struct {
	Sessions  Sessions
	Roster    session.Roster
	Publisher logging.Publisher
	Logger    telemetry.Logger
	// Rand supplies code entropy; crypto/rand when nil.
	Rand io.Reader
}

// Manager owns the private rooms waiting for their host to start.
type Manager struct {
	cfg  Config
	deps Deps

	mu    sync.Mutex
	rooms map[string]*Room
}

func NewManager(cfg Config, deps Deps) *Manager {
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.Rand == nil {
		deps.Rand = rand.Reader
	}
	return &Manager{cfg: cfg.normalized(), deps: deps, rooms: make(map[string]*Room)}
}

// NormalizeCode upper-cases and trims a client supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create opens a room with host as its only member and replies roomCreated.
func (m *Manager) Create(host Member) (string, error) {
	host.HeroID = heroOrDefault(host.HeroID)

	m.mu.Lock()
	code, err := m.uniqueCodeLocked()
	if err != nil {
		m.mu.Unlock()
		return "", err
	}
	m.rooms[code] = &Room{Code: code, HostID: host.ID, Members: []Member{host}, Status: StatusWaiting}
	m.mu.Unlock()

	m.deps.Roster.Send(host.ID, proto.RoomCreated{Type: proto.TypeRoomCreated, RoomCode: code})
	admission.RoomCreated(context.Background(), m.deps.Publisher, host.ID, admission.RoomPayload{Code: code, Members: 1})
	return code, nil
}

func (m *Manager) uniqueCodeLocked() (string, error) {
	for attempt := 0; attempt < 64; attempt++ {
		code, err := m.newCode()
		if err != nil {
			return "", fmt.Errorf("room code: %w", err)
		}
		if _, taken := m.rooms[code]; taken {
			continue
		}
		// A session of an earlier room with this code may still be tearing down.
		if m.deps.Sessions != nil {
			if _, live := m.deps.Sessions.Get(SessionPrefix + code); live {
				continue
			}
		}
		return code, nil
	}
	return "", errors.New("room code: no free code found")
}

func (m *Manager) newCode() (string, error) {
	buf := make([]byte, m.cfg.CodeLength)
	if _, err := io.ReadFull(m.deps.Rand, buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = CodeAlphabet[int(b)%len(CodeAlphabet)]
	}
	return string(buf), nil
}

// Join adds member to the room. Failures are replied as roomError and
// returned; success replies roomJoined and sends roomUpdate to everyone.
func (m *Manager) Join(code string, member Member) (string, error) {
	code = NormalizeCode(code)
	member.HeroID = heroOrDefault(member.HeroID)

	m.mu.Lock()
	room, err := m.joinLocked(code, member)
	var members []Member
	if err == nil {
		members = append(members, room.Members...)
	}
	m.mu.Unlock()

	if err != nil {
		m.deps.Roster.Send(member.ID, proto.RoomError{Type: proto.TypeRoomError, Error: err.Error()})
		return "", fmt.Errorf("join %s: %w", code, err)
	}
	m.deps.Roster.Send(member.ID, proto.RoomJoined{Type: proto.TypeRoomJoined, RoomCode: code})
	m.sendUpdate(members)
	return code, nil
}

func (m *Manager) joinLocked(code string, member Member) (*Room, error) {
	room, ok := m.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.Status != StatusWaiting {
		return nil, ErrRoomInProgress
	}
	for i, existing := range room.Members {
		if existing.ID == member.ID {
			room.Members[i] = member
			return room, nil
		}
	}
	if len(room.Members) >= m.cfg.MaxMembers {
		return nil, ErrRoomFull
	}
	room.Members = append(room.Members, member)
	return room, nil
}

// Start moves every reachable member into a new private session and deletes
// the room. Callers ignore ErrRoomNotFound and ErrNotHost; nobody is told.
func (m *Manager) Start(code, requester string) (string, error) {
	code = NormalizeCode(code)

	m.mu.Lock()
	room, ok := m.rooms[code]
	switch {
	case !ok:
		m.mu.Unlock()
		return "", fmt.Errorf("start %s: %w", code, ErrRoomNotFound)
	case room.HostID != requester:
		m.mu.Unlock()
		return "", fmt.Errorf("start %s: %w", code, ErrNotHost)
	case room.Status != StatusWaiting:
		m.mu.Unlock()
		return "", fmt.Errorf("start %s: %w", code, ErrRoomInProgress)
	}
	room.Status = StatusStarting
	seats := make([]session.Seat, len(room.Members))
	for i, member := range room.Members {
		seats[i] = session.Seat{PlayerID: member.ID, HeroID: member.HeroID}
	}
	m.mu.Unlock()

	defer m.delete(code)

	id := SessionPrefix + code
	runner, err := m.deps.Sessions.CreateWithID(id, true)
	if err != nil {
		return "", fmt.Errorf("start %s: %w", code, err)
	}
	admitted, err := m.deps.Sessions.Admit(runner, m.deps.Roster, seats)
	if err != nil || len(admitted) == 0 {
		m.deps.Sessions.Remove(id)
		if err == nil {
			err = errors.New("no member reachable")
		}
		return "", fmt.Errorf("start %s: %w", code, err)
	}
	if _, err := m.deps.Sessions.StartAfter(id, m.cfg.StartDelay); err != nil {
		return "", fmt.Errorf("start %s: %w", code, err)
	}
	admission.RoomStarted(context.Background(), m.deps.Publisher, requester, admission.RoomPayload{Code: code, Members: len(admitted), SessionID: id})
	return id, nil
}

func (m *Manager) delete(code string) {
	m.mu.Lock()
	delete(m.rooms, code)
	m.mu.Unlock()
}

// Leave takes the player out of the room. The room closes when it empties
// or the host leaves, and the members left behind are returned; otherwise
// the remaining members get roomUpdate.
func (m *Manager) Leave(code, playerID string) []string {
	code = NormalizeCode(code)

	m.mu.Lock()
	room, ok := m.rooms[code]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	kept := room.Members[:0]
	for _, member := range room.Members {
		if member.ID != playerID {
			kept = append(kept, member)
		}
	}
	room.Members = kept
	reason := ""
	switch {
	case len(kept) == 0:
		reason = "empty"
	case room.HostID == playerID:
		reason = "host_left"
	}
	if reason != "" {
		delete(m.rooms, code)
	}
	members := append([]Member(nil), kept...)
	m.mu.Unlock()

	if reason != "" {
		admission.RoomClosed(context.Background(), m.deps.Publisher, admission.RoomPayload{Code: code, Members: len(members), Reason: reason})
		displaced := make([]string, len(members))
		for i, member := range members {
			displaced[i] = member.ID
		}
		return displaced
	}
	m.sendUpdate(members)
	return nil
}

func (m *Manager) sendUpdate(members []Member) {
	update := proto.RoomUpdate{Type: proto.TypeRoomUpdate, Players: make([]proto.RoomMember, len(members))}
	for i, member := range members {
		update.Players[i] = proto.RoomMember{ID: member.ID, Username: member.Name, HeroID: member.HeroID}
	}
	for _, member := range members {
		m.deps.Roster.Send(member.ID, update)
	}
}

// Get returns a copy of the room.
func (m *Manager) Get(code string) (Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[NormalizeCode(code)]
	if !ok {
		return Room{}, false
	}
	out := *room
	out.Members = append([]Member(nil), room.Members...)
	return out, true
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

func heroOrDefault(id string) string {
	if id == "" {
		return hero.DefaultID
	}
	return id
}

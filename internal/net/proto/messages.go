package proto

import (
	"hero-arena/server/internal/hero"
	"hero-arena/server/internal/world"
)

// Client message type identifiers.
const (
	TypeGuestLogin      = "guestLogin"
	TypeRegister        = "register"
	TypeLogin           = "login"
	TypeJoinMatchmaking = "joinMatchmaking"
	TypeQuickPlay       = "quickPlay"
	TypeCreateRoom      = "createRoom"
	TypeJoinRoom        = "joinRoom"
	TypeStartRoom       = "startRoom"
	TypeGameInput       = "gameInput"
	TypeLeaveGame       = "leaveGame"
)

// Server message type identifiers.
const (
	TypeConnected         = "connected"
	TypeLoginResult       = "loginResult"
	TypeRegisterResult    = "registerResult"
	TypeMatchmakingStatus = "matchmakingStatus"
	TypeMatchFound        = "matchFound"
	TypeRoomCreated       = "roomCreated"
	TypeRoomJoined        = "roomJoined"
	TypeRoomError         = "roomError"
	TypeRoomUpdate        = "roomUpdate"
	TypeGameState         = "gameState"
	TypeKill              = "kill"
	TypeGameEnd           = "gameEnd"
	TypeLeftGame          = "leftGame"
)

// StatusSearching is the only matchmaking status the server reports.
const StatusSearching = "searching"

// Input is the per-frame control state a client sends while in a match.
type Input struct {
	Movement  *world.Vec2 `json:"movement,omitempty"`
	Direction *world.Vec2 `json:"direction,omitempty"`
	Shoot     bool        `json:"shoot,omitempty"`
}

// ClientMessage is the union of every inbound payload, keyed by Type.
type ClientMessage struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	HeroID   string `json:"heroId,omitempty"`
	RoomCode string `json:"roomCode,omitempty"`
	Input    *Input `json:"input,omitempty"`
}

type Connected struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

func NewConnected(playerID string) Connected {
	return Connected{Type: TypeConnected, PlayerID: playerID}
}

type Stats struct {
	TotalKills    int `json:"totalKills"`
	TotalDeaths   int `json:"totalDeaths"`
	MatchesPlayed int `json:"matchesPlayed"`
	Wins          int `json:"wins"`
}

type PlayerData struct {
	Username      string              `json:"username,omitempty"`
	Currency      int                 `json:"currency"`
	OwnedSkins    map[string][]string `json:"ownedSkins"`
	EquippedSkins map[string]string   `json:"equippedSkins"`
	Stats         Stats               `json:"stats"`
	Friends       []string            `json:"friends"`
}

// AuthResult answers guestLogin, login and register.
type AuthResult struct {
	Type       string      `json:"type"`
	Success    bool        `json:"success"`
	Error      string      `json:"error,omitempty"`
	PlayerID   string      `json:"playerId,omitempty"`
	FriendCode string      `json:"friendCode,omitempty"`
	Username   string      `json:"username,omitempty"`
	PlayerData *PlayerData `json:"playerData,omitempty"`
}

func NewAuthFailure(typ, reason string) AuthResult {
	return AuthResult{Type: typ, Success: false, Error: reason}
}

type MatchmakingStatus struct {
	Type           string `json:"type"`
	Status         string `json:"status"`
	PlayersInQueue int    `json:"playersInQueue"`
}

func NewMatchmakingStatus(queued int) MatchmakingStatus {
	return MatchmakingStatus{Type: TypeMatchmakingStatus, Status: StatusSearching, PlayersInQueue: queued}
}

type HealthPackState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Active bool    `json:"active"`
	// RespawnTime is the remaining cooldown in milliseconds.
	RespawnTime int64 `json:"respawnTime"`
}

type MapPayload struct {
	Width       float64           `json:"width"`
	Height      float64           `json:"height"`
	Walls       []world.Wall      `json:"walls"`
	Obstacles   []world.Obstacle  `json:"obstacles"`
	SpawnPoints []world.Vec2      `json:"spawnPoints"`
	Theme       world.Theme       `json:"theme"`
	HealthPacks []HealthPackState `json:"healthPacks"`
}

type MatchFound struct {
	Type   string      `json:"type"`
	GameID string      `json:"gameId"`
	Map    MapPayload  `json:"map"`
	Heroes []hero.Hero `json:"heroes"`
}

func NewMatchFound(gameID string, m MapPayload) MatchFound {
	return MatchFound{Type: TypeMatchFound, GameID: gameID, Map: m, Heroes: hero.All()}
}

type RoomCreated struct {
	Type     string `json:"type"`
	RoomCode string `json:"roomCode"`
}

type RoomJoined struct {
	Type     string `json:"type"`
	RoomCode string `json:"roomCode"`
}

type RoomError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type RoomMember struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	HeroID   string `json:"heroId"`
}

type RoomUpdate struct {
	Type    string       `json:"type"`
	Players []RoomMember `json:"players"`
}

type CombatantState struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	HeroID    string     `json:"heroId"`
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	Health    int        `json:"health"`
	MaxHealth int        `json:"maxHealth"`
	Direction world.Vec2 `json:"direction"`
	Kills     int        `json:"kills"`
	Deaths    int        `json:"deaths"`
	IsBot     bool       `json:"isBot"`
}

type ProjectileState struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	HeroID string  `json:"heroId"`
}

type GameState struct {
	Type        string            `json:"type"`
	Players     []CombatantState  `json:"players"`
	Bots        []CombatantState  `json:"bots"`
	Projectiles []ProjectileState `json:"projectiles"`
	HealthPacks []HealthPackState `json:"healthPacks"`
	KillScores  map[string]int    `json:"killScores"`
}

type Kill struct {
	Type       string `json:"type"`
	KillerName string `json:"killerName"`
	VictimName string `json:"victimName"`
}

// GameEnd carries the final result. WinnerID is null for a match abandoned
// by every human.
type GameEnd struct {
	Type        string         `json:"type"`
	WinnerID    *string        `json:"winnerId"`
	WinnerName  string         `json:"winnerName"`
	FinalScores map[string]int `json:"finalScores"`
}

type LeftGame struct {
	Type string `json:"type"`
}

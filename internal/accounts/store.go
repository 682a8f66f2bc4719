// Package accounts keeps player accounts in memory for the lifetime of the
// process.
package accounts

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"hero-arena/server/internal/net/proto"
)

var (
	ErrUsernameTaken      = errors.New("Username already exists")
	ErrInvalidCredentials = errors.New("Invalid username or password")
	ErrAccountNotFound    = errors.New("account not found")
)

const (
	// CodeAlphabet matches the room code alphabet.
	CodeAlphabet     = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	FriendCodeLength = 8
	StartingCurrency = 500
)

// Account is a registered or guest player.
type Account struct {
	FriendCode string
	Username   string
	Guest      bool
	Data       proto.PlayerData

	hash []byte
}

// MatchRecord is one player's contribution to a finished match.
type MatchRecord struct {
	Kills  int
	Deaths int
	Won    bool
}

type Options struct {
	// Cost is the bcrypt cost; bcrypt.DefaultCost when zero.
	Cost int
	Rand io.Reader
}

// Store is safe for concurrent use.
type Store struct {
	cost int
	rand io.Reader

	mu     sync.Mutex
	byCode map[string]*Account
	byName map[string]string
}

func NewStore(opts Options) *Store {
	if opts.Cost == 0 {
		opts.Cost = bcrypt.DefaultCost
	}
	if opts.Rand == nil {
		opts.Rand = rand.Reader
	}
	return &Store{
		cost:   opts.Cost,
		rand:   opts.Rand,
		byCode: make(map[string]*Account),
		byName: make(map[string]string),
	}
}

func newPlayerData(username string) proto.PlayerData {
	return proto.PlayerData{
		Username:      username,
		Currency:      StartingCurrency,
		OwnedSkins:    map[string][]string{},
		EquippedSkins: map[string]string{},
		Friends:       []string{},
	}
}

// Guest creates a passwordless account. Guests never reserve their name.
func (s *Store) Guest(username string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, err := s.uniqueCodeLocked()
	if err != nil {
		return Account{}, err
	}
	acc := &Account{FriendCode: code, Username: username, Guest: true, Data: newPlayerData(username)}
	s.byCode[code] = acc
	return acc.snapshot(), nil
}

// Register creates an account; usernames are unique ignoring case.
func (s *Store) Register(username, password string) (Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Account{}, fmt.Errorf("register %s: %w", username, err)
	}
	key := strings.ToLower(username)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byName[key]; taken {
		return Account{}, fmt.Errorf("register %s: %w", username, ErrUsernameTaken)
	}
	code, err := s.uniqueCodeLocked()
	if err != nil {
		return Account{}, err
	}
	acc := &Account{FriendCode: code, Username: username, Data: newPlayerData(username), hash: hash}
	s.byCode[code] = acc
	s.byName[key] = code
	return acc.snapshot(), nil
}

// Login matches the username ignoring case and checks the password.
func (s *Store) Login(username, password string) (Account, error) {
	s.mu.Lock()
	code, ok := s.byName[strings.ToLower(username)]
	var hash []byte
	if ok {
		hash = s.byCode[code].hash
	}
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return Account{}, fmt.Errorf("login %s: %w", username, ErrInvalidCredentials)
	}
	return s.Get(code)
}

func (s *Store) Get(friendCode string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byCode[friendCode]
	if !ok {
		return Account{}, fmt.Errorf("get %s: %w", friendCode, ErrAccountNotFound)
	}
	return acc.snapshot(), nil
}

// RecordMatch adds a finished match to the account's lifetime stats.
func (s *Store) RecordMatch(friendCode string, rec MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byCode[friendCode]
	if !ok {
		return fmt.Errorf("record match for %s: %w", friendCode, ErrAccountNotFound)
	}
	stats := &acc.Data.Stats
	stats.TotalKills += rec.Kills
	stats.TotalDeaths += rec.Deaths
	stats.MatchesPlayed++
	if rec.Won {
		stats.Wins++
	}
	return nil
}

// Forget drops a guest account; registered accounts are kept.
func (s *Store) Forget(friendCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.byCode[friendCode]; ok && acc.Guest {
		delete(s.byCode, friendCode)
	}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byCode)
}

func (s *Store) uniqueCodeLocked() (string, error) {
	buf := make([]byte, FriendCodeLength)
	for attempt := 0; attempt < 64; attempt++ {
		if _, err := io.ReadFull(s.rand, buf); err != nil {
			return "", fmt.Errorf("friend code: %w", err)
		}
		code := make([]byte, len(buf))
		for i, b := range buf {
			code[i] = CodeAlphabet[int(b)%len(CodeAlphabet)]
		}
		if _, taken := s.byCode[string(code)]; !taken {
			return string(code), nil
		}
	}
	return "", errors.New("friend code: no free code found")
}

func (a *Account) snapshot() Account {
	out := *a
	out.hash = nil
	out.Data = clonePlayerData(a.Data)
	return out
}

func clonePlayerData(d proto.PlayerData) proto.PlayerData {
	out := d
	out.OwnedSkins = make(map[string][]string, len(d.OwnedSkins))
	for k, v := range d.OwnedSkins {
		out.OwnedSkins[k] = append([]string(nil), v...)
	}
	out.EquippedSkins = make(map[string]string, len(d.EquippedSkins))
	for k, v := range d.EquippedSkins {
		out.EquippedSkins[k] = v
	}
	out.Friends = append([]string{}, d.Friends...)
	return out
}

package sim

import (
	"time"

	"hero-arena/server/internal/net/proto"
)

// CommandType enumerates the supported simulation commands.
type CommandType string

const (
	CommandInput CommandType = "Input"
)

// Command represents an intent captured for processing on the next tick.
type Command struct {
	OriginTick uint64       `json:"originTick"`
	ActorID    string       `json:"actorId"`
	Type       CommandType  `json:"type"`
	IssuedAt   time.Time    `json:"issuedAt"`
	Input      *proto.Input `json:"input,omitempty"`
}

// NewInputCommand wraps a client input frame for the given player.
func NewInputCommand(actorID string, tick uint64, issuedAt time.Time, input proto.Input) Command {
	return Command{
		OriginTick: tick,
		ActorID:    actorID,
		Type:       CommandInput,
		IssuedAt:   issuedAt,
		Input:      &input,
	}
}

package sim

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"hero-arena/server/internal/telemetry"
	"hero-arena/server/logging"
)

// Broadcaster delivers a server message to a set of players. Implementations
// must not block; an undeliverable send is skipped.
type Broadcaster interface {
	Broadcast(recipients []string, msg any)
}

// BroadcasterFunc adapts a function to Broadcaster.
type BroadcasterFunc func(recipients []string, msg any)

func (f BroadcasterFunc) Broadcast(recipients []string, msg any) {
	if f != nil {
		f(recipients, msg)
	}
}

// Deps carries shared infrastructure dependencies required by a match.
type Deps struct {
	Broadcaster Broadcaster
	Publisher   logging.Publisher
	Logger      telemetry.Logger
	Metrics     telemetry.Metrics
	Clock       logging.Clock
	RNG         *rand.Rand
	// NewID mints projectile and bot identifiers.
	NewID func() string
}

func (d Deps) withDefaults() Deps {
	if d.Broadcaster == nil {
		d.Broadcaster = BroadcasterFunc(nil)
	}
	if d.Publisher == nil {
		d.Publisher = logging.NopPublisher()
	}
	if d.Clock == nil {
		d.Clock = logging.SystemClock{}
	}
	if d.RNG == nil {
		d.RNG = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

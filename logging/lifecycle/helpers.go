package lifecycle

import (
	"context"

	"hero-arena/server/logging"
)

const (
	// EventPlayerConnected is emitted when a transport connection is accepted.
	EventPlayerConnected logging.EventType = "lifecycle.player_connected"
	// EventPlayerDisconnected is emitted when a player's connection closes.
	EventPlayerDisconnected logging.EventType = "lifecycle.player_disconnected"
	// EventSessionCreated is emitted when a match is registered.
	EventSessionCreated logging.EventType = "lifecycle.session_created"
	// EventSessionStarted is emitted when a match begins ticking.
	EventSessionStarted logging.EventType = "lifecycle.session_started"
	// EventSessionEnded is emitted when a match reaches its final result.
	EventSessionEnded logging.EventType = "lifecycle.session_ended"
	// EventSessionRemoved is emitted when a match leaves the registry.
	EventSessionRemoved logging.EventType = "lifecycle.session_removed"
)

// PlayerDisconnectedPayload captures the reason a player left.
type PlayerDisconnectedPayload struct {
	Reason string `json:"reason"`
}

// SessionPayload describes a match at a lifecycle transition.
type SessionPayload struct {
	Private  bool   `json:"private"`
	Humans   int    `json:"humans"`
	Bots     int    `json:"bots"`
	WinnerID string `json:"winnerId,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// PlayerConnected publishes a player connect event.
func PlayerConnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, extra map[string]any) {
	publish(ctx, pub, EventPlayerConnected, 0, actor, nil, extra)
}

// PlayerDisconnected publishes a player disconnect event.
func PlayerDisconnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload PlayerDisconnectedPayload, extra map[string]any) {
	publish(ctx, pub, EventPlayerDisconnected, 0, actor, payload, extra)
}

func SessionCreated(ctx context.Context, pub logging.Publisher, session logging.EntityRef, payload SessionPayload) {
	publish(ctx, pub, EventSessionCreated, 0, session, payload, nil)
}

func SessionStarted(ctx context.Context, pub logging.Publisher, tick uint64, session logging.EntityRef, payload SessionPayload) {
	publish(ctx, pub, EventSessionStarted, tick, session, payload, nil)
}

func SessionEnded(ctx context.Context, pub logging.Publisher, tick uint64, session logging.EntityRef, payload SessionPayload) {
	publish(ctx, pub, EventSessionEnded, tick, session, payload, nil)
}

func SessionRemoved(ctx context.Context, pub logging.Publisher, session logging.EntityRef, payload SessionPayload) {
	publish(ctx, pub, EventSessionRemoved, 0, session, payload, nil)
}

func publish(ctx context.Context, pub logging.Publisher, typ logging.EventType, tick uint64, actor logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     typ,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

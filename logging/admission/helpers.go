package admission

import (
	"context"

	"hero-arena/server/logging"
)

const (
	// EventMatchFormed is emitted when a matchmaking pass fills a session.
	EventMatchFormed logging.EventType = "admission.match_formed"
	// EventTimeoutPromoted is emitted when a lone entry waited too long.
	EventTimeoutPromoted logging.EventType = "admission.timeout_promoted"
	// EventEntryDropped is emitted when a queued player is unreachable at drain time.
	EventEntryDropped logging.EventType = "admission.entry_dropped"
	// EventRoomCreated is emitted when a private room is opened.
	EventRoomCreated logging.EventType = "admission.room_created"
	// EventRoomStarted is emitted when a host moves a room into a session.
	EventRoomStarted logging.EventType = "admission.room_started"
	// EventRoomClosed is emitted when a room is deleted without starting.
	EventRoomClosed logging.EventType = "admission.room_closed"
)

// MatchPayload lists who was admitted into a session.
type MatchPayload struct {
	SessionID string   `json:"sessionId"`
	Players   []string `json:"players"`
	QuickPlay bool     `json:"quickPlay,omitempty"`
}

// RoomPayload describes a room transition.
type RoomPayload struct {
	Code      string `json:"code"`
	Members   int    `json:"members"`
	SessionID string `json:"sessionId,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func MatchFormed(ctx context.Context, pub logging.Publisher, payload MatchPayload) {
	publish(ctx, pub, EventMatchFormed, logging.SeverityInfo, logging.EntityRef{ID: payload.SessionID, Kind: logging.EntityKindSession}, payload)
}

func TimeoutPromoted(ctx context.Context, pub logging.Publisher, player string, payload MatchPayload) {
	publish(ctx, pub, EventTimeoutPromoted, logging.SeverityInfo, logging.EntityRef{ID: player, Kind: logging.EntityKindPlayer}, payload)
}

func EntryDropped(ctx context.Context, pub logging.Publisher, player string) {
	publish(ctx, pub, EventEntryDropped, logging.SeverityWarn, logging.EntityRef{ID: player, Kind: logging.EntityKindPlayer}, nil)
}

func RoomCreated(ctx context.Context, pub logging.Publisher, host string, payload RoomPayload) {
	publish(ctx, pub, EventRoomCreated, logging.SeverityInfo, logging.EntityRef{ID: host, Kind: logging.EntityKindPlayer}, payload)
}

func RoomStarted(ctx context.Context, pub logging.Publisher, host string, payload RoomPayload) {
	publish(ctx, pub, EventRoomStarted, logging.SeverityInfo, logging.EntityRef{ID: host, Kind: logging.EntityKindPlayer}, payload)
}

func RoomClosed(ctx context.Context, pub logging.Publisher, payload RoomPayload) {
	publish(ctx, pub, EventRoomClosed, logging.SeverityInfo, logging.EntityRef{ID: payload.Code, Kind: logging.EntityKindRoom}, payload)
}

func publish(ctx context.Context, pub logging.Publisher, typ logging.EventType, sev logging.Severity, actor logging.EntityRef, payload any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     typ,
		Actor:    actor,
		Severity: sev,
		Category: logging.CategoryAdmission,
		Payload:  payload,
	})
}

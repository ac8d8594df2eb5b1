// Package protocol defines the wire format exchanged with clients: a tagged
// envelope carrying one event per frame, with an explicit payload schema per
// event name.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Inbound event names (client -> server).
const (
	EventCreateSession = "create-session"
	EventJoinSession   = "join-session"
	EventSubmitMove    = "submit-move"
)

// Outbound event names (server -> client).
const (
	EventSessionCreated   = "session-created"
	EventSeatAssigned     = "seat-assigned"
	EventJoinedAsObserver = "joined-as-observer"
	EventMoveApplied      = "move-applied"
	EventParticipantLeft  = "participant-left"
	EventRequestFailed    = "request-failed"
)

// Envelope is the frame shape in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is an outbound event ready for delivery.
type Event struct {
	Name    string
	Payload any
}

// MarshalJSON encodes the event as an envelope.
func (e Event) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", e.Name, err)
	}
	return json.Marshal(Envelope{Event: e.Name, Data: data})
}

// SessionCreated tells the requester the identifier of its new session.
type SessionCreated struct {
	SessionID string `json:"sessionId"`
}

// SeatAssigned reports a seat assignment: to the assignee itself, and to the
// white occupant when a black player joins.
type SeatAssigned struct {
	Color        string `json:"color"`
	ConnectionID string `json:"connectionId"`
	Position     string `json:"position"`
	Orientation  string `json:"orientation"`
}

// JoinedAsObserver carries the current position to a read-only joiner.
type JoinedAsObserver struct {
	Position string `json:"position"`
}

// MoveApplied is broadcast to every occupant after an accepted move.
type MoveApplied struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Position   string `json:"position"`
	SideToMove string `json:"sideToMove"`
}

// ParticipantLeft names a connection that departed the session.
type ParticipantLeft struct {
	ConnectionID string `json:"connectionId"`
}

// RequestFailed is sent to the requester only.
type RequestFailed struct {
	Reason string `json:"reason"`
}

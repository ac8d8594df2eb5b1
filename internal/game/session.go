// Package game holds the session registry and the per-connection coordinator
// that together implement session lifecycle, seat assignment, turn-order
// gating, and move relay.
package game

import "sync"

// Color identifies one of the two seats. White moves first.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Session is one game instance: two seats, any number of observers, and the
// authoritative position. All fields besides ID are guarded by mu; every
// join/move/leave against the session runs as one atomic step under it,
// including the decision of what to deliver to whom.
type Session struct {
	ID string

	mu        sync.Mutex
	white     string // connection id, or "" while the seat is empty
	black     string
	observers map[string]struct{}
	position  string // FEN
	plies     int
	closed    bool
}

func newSession(id, position string) *Session {
	return &Session{
		ID:        id,
		observers: make(map[string]struct{}),
		position:  position,
	}
}

// seatOf reports the seat held by connID, if any. Caller holds mu.
func (s *Session) seatOf(connID string) (Color, bool) {
	switch connID {
	case "":
		return "", false
	case s.white:
		return White, true
	case s.black:
		return Black, true
	}
	return "", false
}

// occupantIDs lists every seated and observing connection. Caller holds mu.
func (s *Session) occupantIDs() []string {
	ids := make([]string, 0, 2+len(s.observers))
	if s.white != "" {
		ids = append(ids, s.white)
	}
	if s.black != "" {
		ids = append(ids, s.black)
	}
	for id := range s.observers {
		ids = append(ids, id)
	}
	return ids
}

// remove clears whatever slot connID holds. Caller holds mu.
func (s *Session) remove(connID string) {
	switch connID {
	case s.white:
		s.white = ""
	case s.black:
		s.black = ""
	default:
		delete(s.observers, connID)
	}
}

// empty reports whether no seat or observer slot is occupied. Caller holds mu.
func (s *Session) empty() bool {
	return s.white == "" && s.black == "" && len(s.observers) == 0
}

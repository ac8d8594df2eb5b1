package protocol

import (
	"encoding/json"
	"fmt"
)

// Inbound is implemented by every decoded client event.
type Inbound interface {
	inbound()
}

// CreateSession requests a fresh session. No payload.
type CreateSession struct{}

// JoinSession requests a seat (or observer slot) in an existing session.
type JoinSession struct {
	SessionID string `json:"sessionId"`
}

// SubmitMove proposes a move in the named session.
type SubmitMove struct {
	SessionID string `json:"sessionId"`
	From      string `json:"from"`
	To        string `json:"to"`
}

func (CreateSession) inbound() {}
func (JoinSession) inbound()   {}
func (SubmitMove) inbound()    {}

// Decode parses one client frame into its typed event. Malformed frames,
// unknown event names, and missing payload fields are rejected with
// ErrMalformed before they can reach the session state machine.
func Decode(frame []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: invalid envelope: %v", ErrMalformed, err)
	}

	switch env.Event {
	case EventCreateSession:
		return CreateSession{}, nil

	case EventJoinSession:
		var ev JoinSession
		if err := decodePayload(env.Data, &ev); err != nil {
			return nil, err
		}
		if ev.SessionID == "" {
			return nil, fmt.Errorf("%w: %s requires sessionId", ErrMalformed, env.Event)
		}
		return ev, nil

	case EventSubmitMove:
		var ev SubmitMove
		if err := decodePayload(env.Data, &ev); err != nil {
			return nil, err
		}
		if ev.SessionID == "" || ev.From == "" || ev.To == "" {
			return nil, fmt.Errorf("%w: %s requires sessionId, from, to", ErrMalformed, env.Event)
		}
		return ev, nil

	case "":
		return nil, fmt.Errorf("%w: missing event name", ErrMalformed)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

func decodePayload(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing payload", ErrMalformed)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

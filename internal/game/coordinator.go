package game

import (
	"sync"

	"go.uber.org/zap"

	"gambit/internal/protocol"
)

// Engine validates moves and computes resulting positions. Implementations
// are pure, synchronous, and local; the coordinator never reimplements
// legality.
type Engine interface {
	InitialPosition() string
	SideToMove(fen string) (Color, error)
	// ApplyMove applies the legal move from->to against fen, promoting to a
	// queen when the move is an unspecified pawn promotion. It returns the
	// resulting position, or an error if no legal move matches.
	ApplyMove(fen, from, to string) (string, error)
}

// Conn is one live client connection. Send must never block: delivery to a
// slow recipient is that connection's concern, not the coordinator's.
type Conn interface {
	ID() string
	Send(ev protocol.Event)
}

// Recorder receives game history for archival. Calls must not block and
// failures must never affect session handling.
type Recorder interface {
	GameStarted(id string)
	MoveRecorded(id string, ply int, from, to, fen string)
	GameFinished(id, finalFEN string)
}

// Coordinator dispatches inbound connection events against the registry:
// session creation, seat assignment, move relay, and departure. One instance
// serves every connection handler; per-session serialization comes from the
// session lock.
type Coordinator struct {
	registry *Registry
	engine   Engine
	recorder Recorder
	logger   *zap.Logger

	mu    sync.RWMutex
	conns map[string]Conn
}

// NewCoordinator creates a coordinator. recorder may be nil when no archive
// is configured.
func NewCoordinator(registry *Registry, engine Engine, recorder Recorder, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		registry: registry,
		engine:   engine,
		recorder: recorder,
		logger:   logger,
		conns:    make(map[string]Conn),
	}
}

// Register makes conn addressable for notifications and broadcasts. Called
// once when the connection is established.
func (c *Coordinator) Register(conn Conn) {
	c.mu.Lock()
	c.conns[conn.ID()] = conn
	c.mu.Unlock()
}

// HandleCreate allocates a fresh session and tells the requester its id. The
// requester is not seated; it must join separately.
func (c *Coordinator) HandleCreate(conn Conn) {
	s := c.registry.Create(c.engine.InitialPosition())

	if c.recorder != nil {
		c.recorder.GameStarted(s.ID)
	}
	c.logger.Info("session created",
		zap.String("session", s.ID),
		zap.String("conn", conn.ID()))

	conn.Send(protocol.Event{
		Name:    protocol.EventSessionCreated,
		Payload: protocol.SessionCreated{SessionID: s.ID},
	})
}

// HandleJoin seats the requester in sessionID, or makes it an observer when
// both seats are taken. A connection already seated elsewhere silently
// abandons that slot: only the connection index is rebound, the old seat
// stays occupied until its session is torn down. Known gap, kept as the
// original behaves.
func (c *Coordinator) HandleJoin(conn Conn, sessionID string) {
	s, err := c.registry.Get(sessionID)
	if err != nil {
		conn.Send(protocol.Event{
			Name:    protocol.EventRequestFailed,
			Payload: protocol.RequestFailed{Reason: "session not found"},
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		// Lost the race against teardown; indistinguishable from an unknown id.
		conn.Send(protocol.Event{
			Name:    protocol.EventRequestFailed,
			Payload: protocol.RequestFailed{Reason: "session not found"},
		})
		return
	}

	connID := conn.ID()

	// A repeat join from a connection already in this session re-reads its
	// current role instead of taking a second slot.
	if seat, ok := s.seatOf(connID); ok {
		conn.Send(seatEvent(seat, connID, s.position, seat))
		return
	}
	if _, ok := s.observers[connID]; ok {
		conn.Send(protocol.Event{
			Name:    protocol.EventJoinedAsObserver,
			Payload: protocol.JoinedAsObserver{Position: s.position},
		})
		return
	}

	switch {
	case s.white == "":
		s.white = connID
		c.registry.Bind(connID, s.ID)
		c.logger.Info("seat assigned",
			zap.String("session", s.ID),
			zap.String("conn", connID),
			zap.String("color", string(White)))
		conn.Send(seatEvent(White, connID, s.position, White))

	case s.black == "":
		s.black = connID
		c.registry.Bind(connID, s.ID)
		c.logger.Info("seat assigned",
			zap.String("session", s.ID),
			zap.String("conn", connID),
			zap.String("color", string(Black)))
		conn.Send(seatEvent(Black, connID, s.position, Black))
		// One-directional notification: white already knows the position but
		// needs to learn its opponent arrived.
		c.send(s.white, seatEvent(Black, connID, s.position, White))

	default:
		s.observers[connID] = struct{}{}
		c.registry.Bind(connID, s.ID)
		c.logger.Info("observer joined",
			zap.String("session", s.ID),
			zap.String("conn", connID))
		conn.Send(protocol.Event{
			Name:    protocol.EventJoinedAsObserver,
			Payload: protocol.JoinedAsObserver{Position: s.position},
		})
	}
}

// HandleMove relays a proposed move. Moves from non-seated or off-turn
// connections and moves the engine rejects are dropped without a reply;
// probing clients learn nothing about seat occupancy or turn state.
func (c *Coordinator) HandleMove(conn Conn, sessionID, from, to string) {
	s, err := c.registry.Get(sessionID)
	if err != nil {
		c.logger.Debug("move for unknown session dropped",
			zap.String("session", sessionID),
			zap.String("conn", conn.ID()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	seat, ok := s.seatOf(conn.ID())
	if !ok {
		c.logger.Debug("move from non-seated connection dropped",
			zap.String("session", s.ID),
			zap.String("conn", conn.ID()))
		return
	}

	turn, err := c.engine.SideToMove(s.position)
	if err != nil {
		c.logger.Error("side-to-move failed",
			zap.String("session", s.ID),
			zap.String("position", s.position),
			zap.Error(err))
		return
	}
	if turn != seat {
		c.logger.Debug("off-turn move dropped",
			zap.String("session", s.ID),
			zap.String("conn", conn.ID()),
			zap.String("seat", string(seat)))
		return
	}

	next, err := c.engine.ApplyMove(s.position, from, to)
	if err != nil {
		c.logger.Debug("illegal move dropped",
			zap.String("session", s.ID),
			zap.String("conn", conn.ID()),
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err))
		return
	}

	s.position = next
	s.plies++

	sideToMove, err := c.engine.SideToMove(next)
	if err != nil {
		c.logger.Error("side-to-move failed after move",
			zap.String("session", s.ID),
			zap.Error(err))
	}

	ev := protocol.Event{
		Name: protocol.EventMoveApplied,
		Payload: protocol.MoveApplied{
			From:       from,
			To:         to,
			Position:   next,
			SideToMove: string(sideToMove),
		},
	}
	for _, id := range s.occupantIDs() {
		c.send(id, ev)
	}

	if c.recorder != nil {
		c.recorder.MoveRecorded(s.ID, s.plies, from, to, next)
	}
}

// HandleLeave frees the connection's slot in its bound session, explicit or
// via disconnect. The session is destroyed synchronously when the last
// occupant departs; otherwise the remaining occupants are told who left.
func (c *Coordinator) HandleLeave(conn Conn) {
	connID := conn.ID()

	c.mu.Lock()
	delete(c.conns, connID)
	c.mu.Unlock()

	s, ok := c.registry.SessionFor(connID)
	c.registry.Unbind(connID)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.remove(connID)

	if s.empty() {
		s.closed = true
		c.registry.Delete(s.ID)
		if c.recorder != nil {
			c.recorder.GameFinished(s.ID, s.position)
		}
		c.logger.Info("session destroyed",
			zap.String("session", s.ID),
			zap.Int("plies", s.plies))
		return
	}

	ev := protocol.Event{
		Name:    protocol.EventParticipantLeft,
		Payload: protocol.ParticipantLeft{ConnectionID: connID},
	}
	for _, id := range s.occupantIDs() {
		c.send(id, ev)
	}
	c.logger.Info("participant left",
		zap.String("session", s.ID),
		zap.String("conn", connID))
}

// send delivers to one connection if it is still registered. Fire and
// forget: Conn.Send never blocks.
func (c *Coordinator) send(connID string, ev protocol.Event) {
	c.mu.RLock()
	conn, ok := c.conns[connID]
	c.mu.RUnlock()
	if ok {
		conn.Send(ev)
	}
}

func seatEvent(color Color, connID, position string, orientation Color) protocol.Event {
	return protocol.Event{
		Name: protocol.EventSeatAssigned,
		Payload: protocol.SeatAssigned{
			Color:        string(color),
			ConnectionID: connID,
			Position:     position,
			Orientation:  string(orientation),
		},
	}
}

package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gambit/internal/game"
	"gambit/internal/protocol"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Handler upgrades HTTP requests to websocket connections and pumps inbound
// frames into the coordinator. Disconnection, orderly or not, becomes a
// Leave.
type Handler struct {
	coordinator *game.Coordinator
	upgrader    websocket.Upgrader
	bufferSize  int
	frameLimit  int
	logger      *zap.Logger
}

// NewHandler creates a handler. allowedOrigins restricts the websocket
// handshake; an empty list allows every origin. frameLimit caps inbound
// frames per minute per connection.
func NewHandler(coordinator *game.Coordinator, allowedOrigins []string, bufferSize, frameLimit int, logger *zap.Logger) *Handler {
	return &Handler{
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      originChecker(allowedOrigins),
		},
		bufferSize: bufferSize,
		frameLimit: frameLimit,
		logger:     logger,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.Header.Get("Origin")]
		return ok
	}
}

// ServeHTTP upgrades the request and runs the connection until it drops.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := NewConnection(wsConn, h.bufferSize, h.logger)
	h.coordinator.Register(conn)
	h.logger.Info("connection established", zap.String("conn", conn.ID()))

	go h.readLoop(conn)
}

// readLoop reads frames until the connection drops, dispatching each decoded
// event synchronously so per-connection event order is preserved.
func (h *Handler) readLoop(conn *Connection) {
	defer func() {
		h.coordinator.HandleLeave(conn)
		_ = conn.Close()
		h.logger.Info("connection closed", zap.String("conn", conn.ID()))
	}()

	if err := conn.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(conn)

	limiter := newFrameLimiter(h.frameLimit)

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read failed",
					zap.String("conn", conn.ID()),
					zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		if !limiter.allow() {
			h.logger.Warn("frame rate exceeded, frame dropped",
				zap.String("conn", conn.ID()))
			continue
		}

		h.dispatch(conn, data)
	}
}

func (h *Handler) dispatch(conn *Connection, frame []byte) {
	ev, err := protocol.Decode(frame)
	if err != nil {
		h.logger.Debug("rejected frame",
			zap.String("conn", conn.ID()),
			zap.Error(err))
		conn.Send(protocol.Event{
			Name:    protocol.EventRequestFailed,
			Payload: protocol.RequestFailed{Reason: err.Error()},
		})
		return
	}

	switch ev := ev.(type) {
	case protocol.CreateSession:
		h.coordinator.HandleCreate(conn)
	case protocol.JoinSession:
		h.coordinator.HandleJoin(conn, ev.SessionID)
	case protocol.SubmitMove:
		h.coordinator.HandleMove(conn, ev.SessionID, ev.From, ev.To)
	}
}

func (h *Handler) pingLoop(conn *Connection) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		case <-conn.ctx.Done():
			return
		}
	}
}

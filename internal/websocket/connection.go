// Package websocket carries the transport: one persistent, bidirectional,
// message-oriented connection per client, with a server-generated identifier
// that is never preserved across reconnects.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gambit/internal/protocol"
)

const writeDeadline = 10 * time.Second

// Connection wraps a gorilla connection behind a single writer goroutine.
// Send enqueues without blocking; a full buffer drops the frame so one stuck
// recipient never stalls the sender.
type Connection struct {
	id      string
	conn    *websocket.Conn
	writeCh chan []byte
	logger  *zap.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection wraps conn and starts its writer goroutine. bufferSize is
// the outbound queue depth per connection.
func NewConnection(conn *websocket.Conn, bufferSize int, logger *zap.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:      uuid.NewString(),
		conn:    conn,
		writeCh: make(chan []byte, bufferSize),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	go c.writeLoop()

	return c
}

// ID returns the connection identifier.
func (c *Connection) ID() string {
	return c.id
}

// Send marshals and enqueues one event. It never blocks: if the outbound
// buffer is full or the connection is closing, the event is dropped with a
// log line.
func (c *Connection) Send(ev protocol.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		c.logger.Error("event marshal failed",
			zap.String("conn", c.id),
			zap.String("event", ev.Name),
			zap.Error(err))
		return
	}

	select {
	case c.writeCh <- data:
	case <-c.ctx.Done():
	default:
		c.logger.Warn("outbound buffer full, event dropped",
			zap.String("conn", c.id),
			zap.String("event", ev.Name))
	}
}

func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("write failed",
					zap.String("conn", c.id),
					zap.Error(err))
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// Close tears the connection down. Idempotent.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

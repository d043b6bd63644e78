package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/roomchat/internal/channel"
	"github.com/mcoot/roomchat/internal/model"
)

// Config holds WebSocket connection settings
type Config struct {
	// ReadLimit is the largest inbound frame accepted
	ReadLimit int64
	// PongWait is how long to wait for a pong before giving up on the peer
	PongWait time.Duration
	// PingPeriod must be less than PongWait
	PingPeriod time.Duration
	// WriteWait bounds each write
	WriteWait time.Duration
	// SendBuffer is the outbound queue size per connection
	SendBuffer int
	// AllowedOrigins lists extra origins allowed to connect. Empty means same-origin only.
	AllowedOrigins []string
}

// DefaultConfig returns default WebSocket settings
func DefaultConfig() Config {
	return Config{
		ReadLimit:  64 << 10,
		PongWait:   60 * time.Second,
		PingPeriod: 54 * time.Second,
		WriteWait:  10 * time.Second,
		SendBuffer: 256,
	}
}

// Connection is a WebSocket peer. Outbound frames go through a bounded queue
// drained by the write pump; nothing else writes to the socket.
type Connection struct {
	id       string
	identity model.Identity
	conn     *websocket.Conn
	cfg      Config

	send     chan []byte
	done     chan struct{}
	dropOnce sync.Once

	logger *slog.Logger
}

var _ channel.Subscriber = (*Connection)(nil)

func newConnection(conn *websocket.Conn, identity model.Identity, cfg Config, logger *slog.Logger) *Connection {
	id := uuid.NewString()
	return &Connection{
		id:       id,
		identity: identity,
		conn:     conn,
		cfg:      cfg,
		send:     make(chan []byte, cfg.SendBuffer),
		done:     make(chan struct{}),
		logger: logger.With(
			slog.String("conn_id", id),
			slog.String("identity", string(identity))),
	}
}

func (c *Connection) ID() string               { return c.id }
func (c *Connection) Identity() model.Identity { return c.identity }

// Enqueue queues a frame for the write pump without blocking
func (c *Connection) Enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Drop closes the connection. The write pump sends a close frame and the
// read pump then ends, running the disconnect cleanup.
func (c *Connection) Drop() {
	c.dropOnce.Do(func() {
		close(c.done)
	})
}

// writePump takes frames from the queue and writes them, pinging the peer
// periodically
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("websocket write failed", slog.Any("error", err))
				c.Drop()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Drop()
				return
			}

		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.cfg.WriteWait))
			return
		}
	}
}

// readPump reads frames until the peer goes away, handing each to handle in
// arrival order
func (c *Connection) readPump(handle func([]byte)) {
	c.conn.SetReadLimit(c.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("websocket closed unexpectedly", slog.Any("error", err))
			}
			return
		}
		handle(data)
	}
}

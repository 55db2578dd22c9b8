// Package ws is the websocket adapter: one client per live connection,
// a read/write pump pair per client, and the lifecycle controller that
// drives the in-memory core from inbound events.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tkondo/chatwire/internal/config"
)

// Conn is an indirection over *websocket.Conn to ease testing.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is one live connection. It implements app.Recipient: delivery
// is a non-blocking push into the send buffer, and a full buffer drops
// the event rather than stalling the sender.
type Client struct {
	ID   string
	conn Conn
	send chan []byte
	cfg  config.WebSocketConfig

	mu     sync.RWMutex
	closed bool

	// Identity bound by join_app. Only the connection's own read loop
	// touches these.
	userID      string
	displayName string
}

func NewClient(conn Conn, cfg config.WebSocketConfig) *Client {
	return &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, cfg.SendBuffer),
		cfg:  cfg,
	}
}

// Send marshals an event envelope and queues it for the write pump.
func (c *Client) Send(event string, data any) {
	payload, err := json.Marshal(outEnvelope{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("module", "ws.client").Str("event", event).Msg("failed to marshal event")
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
		log.Debug().Str("module", "ws.client").Str("conn", c.ID).Str("event", event).Msg("send buffer full, event dropped")
	}
}

// Close is idempotent and safe against concurrent Send calls.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

// ReadPump reads inbound frames and hands them to handle. onClose runs
// exactly once when the transport dies, before the connection is torn
// down.
func (c *Client) ReadPump(ctx context.Context, handle func(data []byte), onClose func()) {
	defer func() {
		onClose()
		c.Close()
	}()

	c.conn.SetReadLimit(c.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "ws.client").Str("conn", c.ID).Msg("read error")
				}
				return
			}
			handle(data)
		}
	}
}

// WritePump drains the send buffer to the network and keeps the
// connection alive with pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

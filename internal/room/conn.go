// Package room is the thin WebSocket side of ephemeral rooms. Joining,
// history, and invitations go over REST; this package only carries the
// live frames of a room the user is currently in.
package room

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gidvion/internal/domain"
	"gidvion/internal/metrics"
)

// Config configures a room connection.
type Config struct {
	// BaseURL is the ws:// or wss:// root of the backend.
	BaseURL string
	Logger  *slog.Logger

	// OnMessage receives every well-formed inbound frame. Called from
	// the read goroutine.
	OnMessage func(msg domain.RoomMessage)
	// OnError is told about dropped malformed frames and write
	// failures. The connection stays up.
	OnError func(err error)
	// OnClose fires once when the read loop ends, with the close cause
	// (nil on a clean shutdown via Close).
	OnClose func(err error)
}

// Conn is one live room connection. It does not reconnect, queue, or
// heartbeat; when the socket drops the caller decides what happens next.
type Conn struct {
	baseURL   string
	logger    *slog.Logger
	onMessage func(domain.RoomMessage)
	onError   func(error)
	onClose   func(error)

	mu     sync.Mutex
	ws     *websocket.Conn
	open   bool
	closed bool

	// writeMu serializes frame writes; gorilla permits one writer.
	writeMu sync.Mutex
}

func New(cfg Config) *Conn {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{
		baseURL:   cfg.BaseURL,
		logger:    logger,
		onMessage: cfg.OnMessage,
		onError:   cfg.OnError,
		onClose:   cfg.OnClose,
	}
}

// Connect dials the room endpoint and starts the read loop. It returns
// once the socket is established; frames arrive via OnMessage.
func (c *Conn) Connect(ctx context.Context, roomID string) error {
	endpoint, err := url.JoinPath(c.baseURL, "temp-rooms", roomID, "ws")
	if err != nil {
		return fmt.Errorf("room endpoint: %w", err)
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial room %s: %w", roomID, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		ws.Close()
		return fmt.Errorf("connection already closed")
	}
	c.ws = ws
	c.open = true
	c.mu.Unlock()

	c.logger.Info("room connected", "room", roomID)
	go c.readLoop(roomID)
	return nil
}

// Send writes one frame. When the socket is not open this is a no-op
// with a logged warning; nothing is queued for later.
func (c *Conn) Send(msg domain.RoomMessage) {
	c.mu.Lock()
	ws, open := c.ws, c.open
	c.mu.Unlock()

	if !open {
		c.logger.Warn("room socket not open, dropping outgoing message")
		return
	}

	c.writeMu.Lock()
	err := ws.WriteJSON(msg)
	c.writeMu.Unlock()
	if err != nil {
		c.logger.Warn("room write failed", "error", err)
		c.reportError(err)
	}
}

// Close shuts the socket down. Safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if !c.open {
		return nil
	}
	c.open = false
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}

// Open reports whether frames can currently be sent.
func (c *Conn) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *Conn) reportError(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}

func (c *Conn) readLoop(roomID string) {
	var cause error
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("room read error", "room", roomID, "error", err)
				cause = err
			}
			break
		}

		metrics.RoomFramesIn.Inc()
		var msg domain.RoomMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			metrics.RoomFramesDropped.Inc()
			c.logger.Warn("dropping malformed room frame", "room", roomID, "error", err)
			c.reportError(err)
			continue
		}
		if c.onMessage != nil {
			c.onMessage(msg)
		}
	}

	c.mu.Lock()
	wasOpen := c.open
	c.open = false
	wasClosed := c.closed
	c.mu.Unlock()

	if wasClosed {
		cause = nil
	}
	if wasOpen || cause != nil {
		c.logger.Info("room disconnected", "room", roomID)
	}
	if c.onClose != nil {
		c.onClose(cause)
	}
}

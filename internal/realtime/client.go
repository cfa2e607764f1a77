package realtime

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client is one websocket connection bound to an authenticated user. A
// user may hold several clients at once (phone and laptop).
type Client struct {
	ID     string
	UserID int64

	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	logger  *zap.Logger

	pongWait  time.Duration
	pingEvery time.Duration
	writeWait time.Duration
	maxBytes  int64
}

type clientOptions struct {
	sendBuffer int
	pongWait   time.Duration
	pingEvery  time.Duration
	writeWait  time.Duration
	maxBytes   int64
	eventsPerS float64
	burst      int
}

func newClient(hub *Hub, conn *websocket.Conn, userID int64, opts clientOptions, logger *zap.Logger) *Client {
	return &Client{
		ID:        uuid.NewString(),
		UserID:    userID,
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, opts.sendBuffer),
		limiter:   rate.NewLimiter(rate.Limit(opts.eventsPerS), opts.burst),
		logger:    logger,
		pongWait:  opts.pongWait,
		pingEvery: opts.pingEvery,
		writeWait: opts.writeWait,
		maxBytes:  opts.maxBytes,
	}
}

// trySend queues the frame without blocking. A false return means the
// client's buffer is full and the event was dropped.
func (c *Client) trySend(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) sendError(message string) {
	frame, err := errorEvent(message)
	if err != nil {
		return
	}
	c.trySend(frame)
}

// readPump consumes inbound frames until the connection dies, then
// unregisters exactly this connection.
func (c *Client) readPump(dispatch func(*Client, []byte)) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read", zap.String("conn_id", c.ID), zap.Error(err))
			}
			return
		}

		if !c.limiter.Allow() {
			c.sendError("rate limit exceeded")
			continue
		}

		dispatch(c, frame)
	}
}

// writePump drains the send buffer and keeps the connection alive with
// pings. It owns all writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingEvery)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

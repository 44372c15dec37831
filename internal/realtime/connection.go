package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/monitoring"
	"github.com/tcmclinic/telemed/pkg/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
)

// Connection wraps one authenticated websocket peer. The write pump is the
// sole writer on the socket; everything else goes through the bounded
// outbound channel.
type Connection struct {
	UserID string
	Role   types.UserRole

	ws        *websocket.Conn
	outbound  chan *Message
	done      chan struct{}
	closeOnce sync.Once
	onMessage func(*Connection, *Message)
	logger    *logger.Logger
}

func newConnection(ws *websocket.Conn, userID string, role types.UserRole, onMessage func(*Connection, *Message), log *logger.Logger) *Connection {
	return &Connection{
		UserID:    userID,
		Role:      role,
		ws:        ws,
		outbound:  make(chan *Message, outboundBuffer),
		done:      make(chan struct{}),
		onMessage: onMessage,
		logger:    log,
	}
}

// Enqueue places a message on the outbound buffer without blocking. When
// the buffer is full the oldest unsent message is dropped.
func (c *Connection) Enqueue(msg *Message) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.outbound <- msg:
		return
	default:
	}

	select {
	case dropped := <-c.outbound:
		c.logger.WithUserID(c.UserID).WithField("dropped_type", dropped.Type).
			Warn("Outbound buffer full, dropping oldest message")
		monitoring.RecordWSDrop()
	default:
	}

	select {
	case c.outbound <- msg:
	default:
		c.logger.WithUserID(c.UserID).WithField("dropped_type", msg.Type).
			Warn("Outbound buffer full, dropping newest message")
		monitoring.RecordWSDrop()
	}
}

// Close terminates the connection. Idempotent; the pumps observe the done
// channel and exit.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.ws != nil {
			c.ws.Close()
		}
	})
}

// writePump drains the outbound channel onto the socket and keeps the peer
// alive with pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.outbound:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				return
			}
			monitoring.RecordWSMessage(string(msg.Type), "outbound")
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes inbound messages and dispatches them by kind.
func (c *Connection) readPump() {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WithUserID(c.UserID).WithError(err).Debug("Connection read error")
			}
			return
		}
		monitoring.RecordWSMessage(string(msg.Type), "inbound")
		c.onMessage(c, &msg)
	}
}

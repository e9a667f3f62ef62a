package broadcast

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Timing constants for the read/write pumps.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 256
)

// client is one room member's WebSocket connection. It has no inbound
// message dispatch of its own: the room layer owns the
// engine.SubmitAction call and hands this package only an outbound
// event stream, matching the Broadcaster contract (fan-out only).
type client struct {
	conn      *websocket.Conn
	send      chan *Envelope
	logger    *log.Logger
	closeOnce sync.Once
	closed    chan struct{}

	// onClose is set by the Hub at registration time so a client that
	// dies on its own (read error, full send buffer) removes itself
	// from the room rather than lingering as a dead entry.
	onClose func()
}

func newClient(conn *websocket.Conn, logger *log.Logger) *client {
	return &client{
		conn:   conn,
		send:   make(chan *Envelope, sendBuffer),
		logger: logger.WithPrefix("broadcast"),
		closed: make(chan struct{}),
	}
}

func (c *client) start() {
	go c.writePump()
	go c.readPump()
}

func (c *client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		close(c.send)
		err = c.conn.Close()
		if c.onClose != nil {
			c.onClose()
		}
	})
	return err
}

// enqueue delivers env to the client's outbound buffer, dropping and
// closing the connection if the buffer is full rather than blocking
// the Engine goroutine that is broadcasting.
func (c *client) enqueue(env *Envelope) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("enqueue on closed client", "error", r)
		}
	}()

	select {
	case c.send <- env:
	case <-c.closed:
	default:
		c.logger.Warn("client send buffer full, closing")
		_ = c.Close()
	}
}

// readPump drains and discards inbound frames solely to keep pong
// handling alive; this package is fan-out only and has no inbound
// protocol of its own.
func (c *client) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket read error", "error", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Error("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closed:
			return
		}
	}
}

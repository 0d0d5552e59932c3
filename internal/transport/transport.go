// Package transport carries whole protocol frames over a websocket duplex
// stream: one read pump delivering inbound frames in arrival order, one
// write pump with keepalive pings.
package transport

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"cdpclient/internal/cdp"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

// Transport accepts whole outbound envelopes for transmission. Inbound
// frames are pushed to the FrameHandler supplied at dial time, strictly in
// arrival order.
type Transport interface {
	Send(msg *cdp.Message) error
	Close() error
}

// FrameHandler receives every inbound frame. It runs on the read pump
// goroutine and must not block.
type FrameHandler func(msg *cdp.Message)

type Config struct {
	MaxMessageSize int
	ConnectTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxMessageSize: 1024 * 1024,
		ConnectTimeout: 10 * time.Second,
	}
}

// Conn is a websocket transport to one debugging endpoint.
type Conn struct {
	conn    *websocket.Conn
	send    chan []byte
	handler FrameHandler

	mu      sync.Mutex
	closed  bool
	onClose func()
	done    chan struct{}
}

// Dial connects to a websocket debugging endpoint and starts the pumps.
func Dial(wsURL string, cfg Config, handler FrameHandler) (*Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.ConnectTimeout,
	}

	ws, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket connection error: %w", err)
	}

	if cfg.MaxMessageSize > 0 {
		ws.SetReadLimit(int64(cfg.MaxMessageSize))
	}

	c := &Conn{
		conn:    ws,
		send:    make(chan []byte, sendBufferSize),
		handler: handler,
		done:    make(chan struct{}),
	}

	go c.readPump()
	go c.writePump()

	return c, nil
}

// OnClose registers fn to run once when the connection terminates, whether
// closed locally or torn down by a pump exit. If the connection is already
// closed, fn runs immediately.
func (c *Conn) OnClose(fn func()) {
	c.mu.Lock()
	if !c.closed {
		c.onClose = fn
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	fn()
}

// Send marshals the envelope and queues it for transmission. Only command
// frames go out on this connection.
func (c *Conn) Send(msg *cdp.Message) error {
	if !msg.IsCommand() {
		return fmt.Errorf("refusing to send non-command frame (id=%d method=%q)", msg.ID, msg.Method)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return cdp.ErrConnectionClosed
	}
}

func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	onClose := c.onClose
	close(c.done)
	c.mu.Unlock()

	err := c.conn.Close()
	if onClose != nil {
		onClose()
	}
	return err
}

func (c *Conn) readPump() {
	defer c.Close()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("transport read error")
			}
			return
		}

		msg, err := cdp.ParseMessage(data)
		if err != nil {
			log.Warn().Err(err).Msg("dropping unparseable frame")
			continue
		}

		c.handler(msg)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Msg("transport write error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hero-arena/server/internal/net/proto"
)

// Client is one websocket connection. Outbound frames go through a bounded
// buffer drained by the write pump; a full buffer drops the frame.
type Client struct {
	conn  *websocket.Conn
	codec proto.Codec
	send  chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newClient(conn *websocket.Conn, codec proto.Codec, buffer int) *Client {
	return &Client{
		conn:   conn,
		codec:  codec,
		send:   make(chan []byte, buffer),
		closed: make(chan struct{}),
	}
}

func (c *Client) Codec() proto.Codec { return c.codec }

// Offer queues data without blocking.
func (c *Client) Offer(data []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

func (c *Client) messageType() int {
	if c.codec.Binary() {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

func (c *Client) writePump(cfg Config) {
	ping := time.NewTicker(cfg.PingInterval)
	defer func() {
		ping.Stop()
		c.close()
	}()
	kind := c.messageType()
	for {
		select {
		case <-c.closed:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(kind, data); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump(cfg Config, deliver func([]byte)) {
	defer c.close()
	c.conn.SetReadLimit(cfg.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	})
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
		deliver(payload)
	}
}

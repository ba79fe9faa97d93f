package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong; mirrors the original relay's
	// 60s ping timeout.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Message frames carry whole populated chat objects.
	maxMessageSize = 8192
	sendBuffer     = 256
)

// Conn is one live realtime connection: the socket, its outbound buffer, and
// the identity it announced on setup.
type Conn struct {
	id       string
	sock     *websocket.Conn
	send     chan []byte
	registry Registry
	relay    *Relay

	// userID is set by the setup event and read on close for logging.
	// Both happen on the read pump goroutine.
	userID string

	closeOnce sync.Once
}

func newConn(sock *websocket.Conn, registry Registry, relay *Relay) *Conn {
	return &Conn{
		id:       uuid.NewString(),
		sock:     sock,
		send:     make(chan []byte, sendBuffer),
		registry: registry,
		relay:    relay,
	}
}

// trySend queues a frame without blocking. A connection that cannot keep up
// simply misses frames; the durable record lives behind the HTTP API.
func (c *Conn) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

// readPump dispatches inbound events sequentially, which gives each
// connection its in-order processing guarantee. It owns teardown: when the
// socket closes for any reason, every room membership is dropped.
func (c *Conn) readPump() {
	defer c.teardown()

	c.sock.SetReadLimit(maxMessageSize)
	c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		c.sock.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("read error: %v", err)
			}
			return
		}

		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			log.Printf("dropping malformed frame from %s: %v", c.id, err)
			continue
		}

		c.relay.Handle(c, evt)
	}
}

// writePump drains the send buffer onto the socket and keeps the connection
// alive with periodic pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.sock.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// teardown runs on the connection's actual close path. Dropping from the
// registry happens before the send channel closes, so no broadcast can reach
// a closed channel.
func (c *Conn) teardown() {
	c.closeOnce.Do(func() {
		c.registry.Drop(c)
		close(c.send)
		c.sock.Close()
		if c.userID != "" {
			log.Printf("user disconnected: %s", c.userID)
		} else {
			log.Printf("connection closed: %s", c.id)
		}
	})
}

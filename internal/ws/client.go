package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 8 * 1024
	sendBuffer   = 256
)

// Client is one websocket connection registered with the hub.
type Client struct {
	hub            *Hub
	conn           *websocket.Conn
	conversationID uint
	send           chan []byte

	closeOnce sync.Once
}

func newClient(h *Hub, conversationID uint, conn *websocket.Conn) *Client {
	return &Client{
		hub:            h,
		conn:           conn,
		conversationID: conversationID,
		send:           make(chan []byte, sendBuffer),
	}
}

// readPump drains inbound frames. Clients send nothing meaningful today; the
// pump exists to process pongs and to notice the peer going away.
func (c *Client) readPump() {
	defer c.close()
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump serializes all writes to the connection and keeps it alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close deregisters the client and tears the connection down. Safe to call
// from any goroutine, any number of times.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.hub.leave(c)
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

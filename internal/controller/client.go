package controller

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// writeWait bounds a single write. Broadcasts run one message at a time, so a peer that
// stopped reading holds every room up to this long, once.
const writeWait = 2 * time.Second

// client is the addressable side of a websocket connection. gorilla/websocket allows a
// single concurrent writer, so writes are serialized per client.
type client struct {
	id        string
	conn      *websocket.Conn
	writeWait time.Duration
	mu        sync.Mutex
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		id:        uuid.NewString(),
		conn:      conn,
		writeWait: writeWait,
	}
}

func (c *client) Id() string {
	return c.id
}

func (c *client) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		return err
	}

	// A failed write leaves the connection unusable. Closing it ends the read loop, which
	// takes the client out of its room.
	if err := c.conn.WriteJSON(v); err != nil {
		c.conn.Close()
		return err
	}

	return nil
}

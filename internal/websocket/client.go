package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Client represents a single subscription to one group's live list.
type Client struct {
	hub   *Hub
	conn  *ws.Conn
	group string
	send  chan []byte
}

// NewClient creates a Client for one group. The client may be registered with
// the hub before its connection exists; messages broadcast in the meantime
// wait in its send queue.
func NewClient(hub *Hub, group string) *Client {
	return &Client{
		hub:   hub,
		group: group,
		send:  make(chan []byte, sendBufferSize),
	}
}

// Run writes the initial snapshot, then starts the write pump for queued
// messages and runs the read pump. It blocks until the connection is closed.
// The caller owns registration.
func (c *Client) Run(ctx context.Context, conn *ws.Conn, initial []byte) {
	c.conn = conn

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if initial != nil {
		if err := conn.Write(ctx, ws.MessageText, initial); err != nil {
			return
		}
	}

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump discards incoming messages. Subscriptions are read-only; writes go
// through the HTTP API. It returns on error (connection close).
func (c *Client) readPump(ctx context.Context) {
	for {
		_, _, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

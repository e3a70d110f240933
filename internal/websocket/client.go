package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/dailyboard/internal/docstore"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Request is a frame sent by the browser to narrow what it receives.
type Request struct {
	Op   string `json:"op"` // "subscribe" or "unsubscribe"
	Path string `json:"path"`
}

// Client is a single WebSocket connection. A client without subscriptions
// receives every message.
type Client struct {
	hub  *Hub
	conn *ws.Conn
	send chan []byte

	mu   sync.RWMutex
	subs map[string]struct{}
}

func NewClient(hub *Hub, conn *ws.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		subs: make(map[string]struct{}),
	}
}

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *Client) Subscribe(path string) error {
	p, err := docstore.Clean(path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.subs[p] = struct{}{}
	c.mu.Unlock()
	return nil
}

func (c *Client) Unsubscribe(path string) {
	p, err := docstore.Clean(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.subs, p)
	c.mu.Unlock()
}

// wants reports whether a write at path affects anything the client follows.
// Writes to an ancestor of a subscription count.
func (c *Client) wants(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.subs) == 0 {
		return true
	}
	for sub := range c.subs {
		if docstore.HasPrefix(path, sub) || docstore.HasPrefix(sub, path) {
			return true
		}
	}
	return false
}

// readPump applies subscription requests until the connection closes.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			c.hub.logger.Debug("ignoring malformed websocket frame", "error", err)
			continue
		}
		switch req.Op {
		case "subscribe":
			if err := c.Subscribe(req.Path); err != nil {
				c.hub.logger.Debug("rejected subscription", "path", req.Path, "error", err)
			}
		case "unsubscribe":
			c.Unsubscribe(req.Path)
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

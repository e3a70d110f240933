package websocket

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukerupert/dailyboard/internal/docstore"
)

// Message tells clients that data beneath Path changed. Clients re-read the
// path over HTTP.
type Message struct {
	Type   string `json:"type"`
	Path   string `json:"path"`
	Action string `json:"action"`
}

// NewMessage derives Type from the collection the path belongs to, e.g.
// "character_groups_update".
func NewMessage(path, action string) Message {
	return Message{
		Type:   entityOf(path) + "_" + action,
		Path:   path,
		Action: action,
	}
}

func entityOf(path string) string {
	if rest, ok := strings.CutPrefix(path, "lostark"); ok && (rest == "" || rest[0] == '/') {
		path = strings.TrimPrefix(rest, "/")
	}
	if path == "" {
		return "root"
	}
	entity, _, _ := strings.Cut(path, "/")
	return entity
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Watch broadcasts every committed document store write until the returned
// function is called.
func (h *Hub) Watch(docs *docstore.Store) func() {
	return docs.Watch(func(c docstore.Change) {
		h.Broadcast(NewMessage(c.Path, string(c.Op)))
	})
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends msg to every client subscribed to a path it touches.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.wants(msg.Path) {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Debug("client buffer full, dropping message", "path", msg.Path)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

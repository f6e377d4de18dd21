package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukerupert/basket/internal/model"
)

// Message is a live-list notification pushed to a group's subscribers. Every
// message carries the full snapshot so clients never apply deltas.
type Message struct {
	Type     string          `json:"type"`
	Entity   string          `json:"entity"`
	Action   string          `json:"action"`
	ID       string          `json:"id,omitempty"`
	Snapshot *model.Snapshot `json:"snapshot,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action, id string, snap *model.Snapshot) Message {
	return Message{
		Type:     fmt.Sprintf("%s_%s", entity, action),
		Entity:   entity,
		Action:   action,
		ID:       id,
		Snapshot: snap,
	}
}

// Hub tracks WebSocket clients per group code and fans messages out to them.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*Client]struct{}
	logger *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		groups: make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds a client to its group's subscriber set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.groups[c.group]
	if !ok {
		set = make(map[*Client]struct{})
		h.groups[c.group] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.groups[c.group]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.groups, c.group)
		}
	}
	h.mu.Unlock()
}

// Broadcast encodes msg and delivers it to every subscriber of the group.
func (h *Hub) Broadcast(group string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "group", group, "error", err)
		return
	}
	h.Deliver(group, data)
}

// Deliver sends an already-encoded message to every subscriber of the group.
func (h *Hub) Deliver(group string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.groups[group] {
		select {
		case c.send <- data:
		default:
			// Client buffer full; the next snapshot supersedes this one
			h.logger.Warn("dropped message for slow client", "group", group)
		}
	}
}

// ClientCount returns the number of connected clients across all groups.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.groups {
		n += len(set)
	}
	return n
}

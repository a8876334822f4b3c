// Package ws - real-time broadcast gateway
//
// The hub fans events out to connected clients. Clients subscribe either to a
// single conversation room or to the global stream (list-level updates). A
// slow client never blocks a broadcast: when its buffered send channel is
// full, the client is dropped and must reconnect.
//
// Room occupancy doubles as the activity signal for the unread tracker: a
// conversation with at least one subscribed client is "on screen", so new
// inbound messages in it are recorded as already read.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/services"
)

// Hub tracks connected clients and their room subscriptions.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Client]struct{}
	all   map[*Client]struct{}
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[uint]map[*Client]struct{}),
		all:   make(map[*Client]struct{}),
	}
}

// join registers the client. conversationID 0 means global-only.
func (h *Hub) join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.all[c] = struct{}{}
	if c.conversationID != 0 {
		if h.rooms[c.conversationID] == nil {
			h.rooms[c.conversationID] = make(map[*Client]struct{})
		}
		h.rooms[c.conversationID][c] = struct{}{}
	}
}

// leave removes the client; empty rooms are deleted so IsActive stays exact.
func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.all, c)
	if c.conversationID != 0 {
		if room := h.rooms[c.conversationID]; room != nil {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, c.conversationID)
			}
		}
	}
}

// Broadcast delivers an event to clients subscribed to one conversation.
// Implements services.Notifier.
func (h *Hub) Broadcast(conversationID uint, e services.Event) {
	b, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("type", e.Type).Msg("event marshal failed")
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[conversationID]))
	for c := range h.rooms[conversationID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		h.deliver(c, b)
	}
}

// BroadcastToAll delivers an event to every connected client.
func (h *Hub) BroadcastToAll(e services.Event) {
	b, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("type", e.Type).Msg("event marshal failed")
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.all))
	for c := range h.all {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		h.deliver(c, b)
	}
}

// IsActive reports whether any client currently has the conversation open.
// Implements services.ActivityRegistry.
func (h *Hub) IsActive(conversationID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID]) > 0
}

// ClientCount reports connected clients, for the health endpoint.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// deliver enqueues without blocking; a full buffer drops the client.
func (h *Hub) deliver(c *Client, b []byte) {
	select {
	case c.send <- b:
	default:
		log.Warn().Uint("conversation_id", c.conversationID).
			Msg("dropping slow websocket client")
		c.close()
	}
}

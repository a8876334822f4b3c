// Package services - real-time event boundary
//
// Mutating services do not call the websocket layer directly; they hand
// events to a Notifier after the database write has committed. Delivery is
// fire-and-forget: the core's correctness never depends on a broadcast
// reaching anyone.
package services

// Event types emitted to the broadcast gateway.
const (
	EventMessageCreated     = "message.created"
	EventMessageDeleted     = "message.deleted"
	EventMessageDelivered   = "message.delivered"
	EventConversationRead   = "conversation.read"
	EventConversationMoved  = "conversation.assigned"
	EventConversationOpened = "conversation.created"
	EventConversationStatus = "conversation.status"
)

// Event is the payload pushed to subscribed clients.
type Event struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversation_id,omitempty"`
	Payload        any    `json:"payload,omitempty"`
}

// Notifier delivers events to connected clients. Implementations must not
// block; the core does not await acknowledgement.
type Notifier interface {
	// Broadcast delivers to clients subscribed to one conversation.
	Broadcast(conversationID uint, e Event)
	// BroadcastToAll delivers to every connected client (list-level changes).
	BroadcastToAll(e Event)
}

// NopNotifier discards all events.
type NopNotifier struct{}

// Broadcast discards the event.
func (NopNotifier) Broadcast(uint, Event) {}

// BroadcastToAll discards the event.
func (NopNotifier) BroadcastToAll(Event) {}

// ActivityRegistry reports whether a conversation is currently open on some
// connected agent's screen. A message arriving in an active conversation is
// treated as instantly read instead of bumping the unread counter.
type ActivityRegistry interface {
	IsActive(conversationID uint) bool
}

// noActivity is the fallback registry: nothing is ever active.
type noActivity struct{}

func (noActivity) IsActive(uint) bool { return false }

// Package services - MessageService
//
// This file owns the message lifecycle and the unread/read-state tracker:
// recording normalized inbound events (find-or-create contact and
// conversation, insert, unread handling), outbound sends (persist-first,
// provider best-effort), explicit read-marks, and soft deletion under the
// grace window.
//
// Unread invariant: after every mutation that can change unread state, the
// conversation counter is recomputed inside the same transaction from the
// derived definition, the count of active, contact-originated, unread messages.
// The counter is never adjusted incrementally, so it cannot drift.
//
// Concurrency: all writes are row-scoped; two racing read-marks on the same
// conversation are individually safe and converge (last write wins), which
// is acceptable for a chat UI.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/repo"
)

// DeleteGraceWindow is how long after SentAt a message may still be globally
// deleted. The same window applies to received-message soft delete and
// sent-message delete-for-everyone.
const DeleteGraceWindow = 7 * time.Minute

// InboundEvent is the normalized shape provider adapters deliver; the core
// never sees raw webhook payloads.
type InboundEvent struct {
	Channel      string
	ExternalID   string // channel-specific sub-identifier (chat/thread id)
	SenderPhone  string
	SenderName   string
	SenderAvatar string
	Content      string
	Type         string
	Metadata     domain.MessageMetadata
	SentAt       time.Time
}

// OutboundMessage is an agent-authored send request.
type OutboundMessage struct {
	Content        string
	Type           string
	Metadata       domain.MessageMetadata
	IsInternalNote bool
	NotePriority   string
	IsPrivate      bool
}

// SendResult reports a persist-first outbound send. Local state is the
// source of truth: ProviderErr carries a failed provider delivery as a
// partial success, never as a failed operation.
type SendResult struct {
	Message           *domain.Message `json:"message"`
	ProviderMessageID string          `json:"provider_message_id,omitempty"`
	ProviderErr       string          `json:"provider_error,omitempty"`
}

// ContactResolver is the slice of the contact service the message flow needs.
type ContactResolver interface {
	FindOrCreate(ctx context.Context, id ContactIdentity) (*FindOrCreateResult, error)
}

// ProviderAdapter abstracts the outbound half of a messaging provider
// (Z-API, Facebook Graph, Manychat). Implementations live outside the core.
type ProviderAdapter interface {
	// SendText delivers content to a recipient and returns the provider
	// message id.
	SendText(ctx context.Context, channel, recipient, content string) (string, error)
	// Revoke performs provider-side delete-for-everyone.
	Revoke(ctx context.Context, channel, recipient, providerMessageID string) error
}

// MessageService coordinates message persistence, unread tracking, provider
// delivery, and broadcast notification.
type MessageService struct {
	DB       *gorm.DB
	Contacts ContactResolver
	Provider ProviderAdapter
	Notify   Notifier
	Activity ActivityRegistry

	// Now is the clock; tests override it.
	Now func() time.Time
}

// NewMessageService wires the service with safe fallbacks for the optional
// collaborators.
func NewMessageService(db *gorm.DB, contacts ContactResolver, provider ProviderAdapter, notify Notifier, activity ActivityRegistry) *MessageService {
	if notify == nil {
		notify = NopNotifier{}
	}
	if activity == nil {
		activity = noActivity{}
	}
	return &MessageService{
		DB:       db,
		Contacts: contacts,
		Provider: provider,
		Notify:   notify,
		Activity: activity,
		Now:      time.Now,
	}
}

// RecordInbound turns a normalized inbound event into contact, conversation,
// and message rows ("find or create"), maintains the unread counter, and
// broadcasts the new message.
func (s *MessageService) RecordInbound(ctx context.Context, ev InboundEvent) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "RecordInbound",
		trace.WithAttributes(attribute.String("channel", ev.Channel)),
	)
	defer span.End()

	if !validChannel(ev.Channel) {
		return nil, ErrInvalidChannel
	}
	if strings.TrimSpace(ev.Content) == "" && ev.Metadata.IsZero() {
		return nil, ErrEmptyContent
	}

	res, err := s.Contacts.FindOrCreate(ctx, ContactIdentity{
		Phone:     ev.SenderPhone,
		Name:      ev.SenderName,
		AvatarURL: ev.SenderAvatar,
		Channel:   ev.Channel,
	})
	if err != nil {
		return nil, err
	}
	contact := res.Contact

	conv, created, err := s.findOrCreateConversation(ctx, contact.ID, ev.Channel, ev.ExternalID)
	if err != nil {
		return nil, err
	}

	sentAt := ev.SentAt
	if sentAt.IsZero() {
		sentAt = s.now()
	}
	msg := &domain.Message{
		ConversationID: conv.ID,
		Content:        ev.Content,
		FromContact:    true,
		Type:           ev.Type,
		SentAt:         sentAt,
		Metadata:       ev.Metadata,
	}
	// Instantly read when some agent has the conversation open.
	if s.Activity.IsActive(conv.ID) {
		now := s.now()
		msg.ReadAt = &now
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateMessage(ctx, tx, msg); err != nil {
			return err
		}
		if err := repo.TouchLastMessage(ctx, tx, conv.ID, msg.SentAt); err != nil {
			return err
		}
		_, err := repo.RecomputeUnread(ctx, tx, conv.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.Notify.BroadcastToAll(Event{Type: EventConversationOpened, ConversationID: conv.ID})
	}
	s.Notify.Broadcast(conv.ID, Event{Type: EventMessageCreated, ConversationID: conv.ID, Payload: msg})
	s.Notify.BroadcastToAll(Event{Type: EventMessageCreated, ConversationID: conv.ID})
	return msg, nil
}

// Send persists an agent message and then attempts provider delivery.
// Provider failure is a partial success: the message row stands, the error
// is logged and reported on the result, and retrying is the caller's call.
func (s *MessageService) Send(ctx context.Context, agentID, conversationID uint, in OutboundMessage) (*SendResult, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(attribute.Int("conversation.id", int(conversationID))),
	)
	defer span.End()

	if agentID == 0 {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(in.Content) == "" && in.Metadata.IsZero() {
		return nil, ErrEmptyContent
	}

	conv, err := repo.GetConversation(ctx, s.DB, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	msg := &domain.Message{
		ConversationID: conv.ID,
		Content:        in.Content,
		FromContact:    false,
		Type:           in.Type,
		SentAt:         s.now(),
		Metadata:       in.Metadata,
		IsInternalNote: in.IsInternalNote,
		NotePriority:   in.NotePriority,
		IsPrivate:      in.IsPrivate,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateMessage(ctx, tx, msg); err != nil {
			return err
		}
		return repo.TouchLastMessage(ctx, tx, conv.ID, msg.SentAt)
	})
	if err != nil {
		return nil, err
	}

	result := &SendResult{Message: msg}
	// Internal notes never leave the platform.
	if s.Provider != nil && !in.IsInternalNote {
		contact, cerr := repo.GetContact(ctx, s.DB, conv.ContactID)
		if cerr != nil {
			result.ProviderErr = cerr.Error()
		} else if providerID, perr := s.Provider.SendText(ctx, conv.Channel, contact.Phone, in.Content); perr != nil {
			log.Warn().Err(perr).
				Uint("conversation_id", conv.ID).
				Uint("message_id", msg.ID).
				Str("channel", conv.Channel).
				Msg("provider send failed; message persisted locally")
			result.ProviderErr = perr.Error()
		} else {
			result.ProviderMessageID = providerID
		}
	}

	s.Notify.Broadcast(conv.ID, Event{Type: EventMessageCreated, ConversationID: conv.ID, Payload: msg})
	s.Notify.BroadcastToAll(Event{Type: EventMessageCreated, ConversationID: conv.ID})
	return result, nil
}

// MarkRead stamps every unread contact message and resets the counter, both
// in one transaction.
func (s *MessageService) MarkRead(ctx context.Context, conversationID uint) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "MarkRead",
		trace.WithAttributes(attribute.Int("conversation.id", int(conversationID))),
	)
	defer span.End()

	if _, err := repo.GetConversation(ctx, s.DB, conversationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.MarkConversationRead(ctx, tx, conversationID, s.now()); err != nil {
			return err
		}
		_, err := repo.RecomputeUnread(ctx, tx, conversationID)
		return err
	})
	if err != nil {
		return err
	}

	s.Notify.Broadcast(conversationID, Event{Type: EventConversationRead, ConversationID: conversationID})
	return nil
}

// ConfirmDelivery stamps delivered_at from a provider receipt. Only the first
// receipt sticks; duplicates are acknowledged without rewriting the stamp.
func (s *MessageService) ConfirmDelivery(ctx context.Context, channel string, messageID uint, at time.Time) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ConfirmDelivery",
		trace.WithAttributes(attribute.Int("message.id", int(messageID))),
	)
	defer span.End()

	if !validChannel(channel) {
		return ErrInvalidChannel
	}
	if at.IsZero() {
		at = s.now()
	}

	msg, err := repo.GetMessage(ctx, s.DB, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return err
	}
	if err := repo.MarkDelivered(ctx, s.DB, msg.ID, at); err != nil {
		return err
	}

	s.Notify.Broadcast(msg.ConversationID, Event{Type: EventMessageDelivered, ConversationID: msg.ConversationID, Payload: msg.ID})
	return nil
}

// Delete marks a message globally deleted. forEveryone additionally revokes
// it at the provider for agent-sent messages. Both paths enforce the same
// grace window from SentAt.
func (s *MessageService) Delete(ctx context.Context, actorID, messageID uint, forEveryone bool) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.Int("message.id", int(messageID))),
	)
	defer span.End()

	if actorID == 0 {
		return ErrUnauthenticated
	}

	msg, err := repo.GetMessage(ctx, s.DB, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return err
	}
	if s.now().Sub(msg.SentAt) > DeleteGraceWindow {
		return ErrDeleteWindowExpired
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.SoftDeleteMessage(ctx, tx, msg.ID, actorID, s.now()); err != nil {
			return err
		}
		// Deleting an unread contact message changes the derived count.
		_, err := repo.RecomputeUnread(ctx, tx, msg.ConversationID)
		return err
	})
	if err != nil {
		return err
	}

	if forEveryone && !msg.FromContact && s.Provider != nil {
		if providerID := providerMessageID(msg); providerID != "" {
			conv, cerr := repo.GetConversation(ctx, s.DB, msg.ConversationID)
			if cerr == nil {
				contact, cerr2 := repo.GetContact(ctx, s.DB, conv.ContactID)
				if cerr2 == nil {
					if perr := s.Provider.Revoke(ctx, conv.Channel, contact.Phone, providerID); perr != nil {
						log.Warn().Err(perr).Uint("message_id", msg.ID).
							Msg("provider revoke failed; message deleted locally")
					}
				}
			}
		}
	}

	s.Notify.Broadcast(msg.ConversationID, Event{Type: EventMessageDeleted, ConversationID: msg.ConversationID, Payload: msg.ID})
	return nil
}

// History returns one page of a conversation's visible messages for a viewer:
// oldest first, globally deleted rows excluded, rows the viewer hid excluded.
func (s *MessageService) History(ctx context.Context, conversationID, viewerID uint, offset, limit int) ([]domain.Message, error) {
	if _, err := repo.GetConversation(ctx, s.DB, conversationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return repo.ListMessagesPage(ctx, s.DB, conversationID, viewerID, offset, limit)
}

// HideForMe hides a message for one user without touching global state.
// No grace window applies; hiding is always reversible data.
func (s *MessageService) HideForMe(ctx context.Context, userID, messageID uint) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	err := repo.HideMessageForUser(ctx, s.DB, messageID, userID, s.now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMessageNotFound
	}
	return err
}

// findOrCreateConversation returns the thread for (contact, channel),
// creating it on first touch.
func (s *MessageService) findOrCreateConversation(ctx context.Context, contactID uint, channel, externalID string) (conv *domain.Conversation, created bool, err error) {
	conv, err = repo.FindConversationByContactChannel(ctx, s.DB, contactID, channel)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	conv = &domain.Conversation{
		ContactID:  contactID,
		Channel:    channel,
		ChannelRef: externalID,
		Status:     domain.StatusOpen,
	}
	if err := repo.CreateConversation(ctx, s.DB, conv); err != nil {
		return nil, false, err
	}
	return conv, true, nil
}

func (s *MessageService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// providerMessageID digs the provider id out of generic metadata when present.
func providerMessageID(m *domain.Message) string {
	if m.Metadata.Kind == domain.MetadataGeneric && m.Metadata.Generic != nil {
		return m.Metadata.Generic.ProviderMessageID
	}
	return ""
}

func validChannel(c string) bool {
	switch c {
	case domain.ChannelWhatsApp, domain.ChannelMessenger, domain.ChannelInstagram, domain.ChannelManychat:
		return true
	default:
		return false
	}
}

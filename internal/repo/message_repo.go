// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model, including the batched latest-active-per-conversation query that the
// preview resolver depends on, and the unread-counter recompute.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
)

// PreviewRow is the projection returned by LatestActivePerConversation.
type PreviewRow struct {
	ConversationID uint      `json:"conversation_id"`
	Content        string    `json:"content"`
	Type           string    `json:"type"`
	FromContact    bool      `json:"from_contact"`
	SentAt         time.Time `json:"sent_at"`
	IsInternalNote bool      `json:"is_internal_note"`
}

// CreateMessage inserts a new message row.
func CreateMessage(ctx context.Context, db *gorm.DB, m *domain.Message) error {
	if m.SentAt.IsZero() {
		m.SentAt = time.Now().UTC()
	}
	if m.Type == "" {
		m.Type = domain.MessageTypeText
	}
	return db.WithContext(ctx).Create(m).Error
}

// GetMessage fetches a message by ID, or ErrNotFound.
func GetMessage(ctx context.Context, db *gorm.DB, id uint) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessagesPage returns a page of a conversation's messages ordered
// deterministically (SentAt ASC, ID ASC), excluding globally deleted rows and
// rows the viewer hid for themselves.
func ListMessagesPage(ctx context.Context, db *gorm.DB, conversationID, viewerID uint, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("conversation_id = ? AND is_deleted = ?", conversationID, false).
		Where("is_deleted_by_user = ? OR deleted_by_id IS NULL OR deleted_by_id <> ?", false, viewerID).
		Order("sent_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// LatestActivePerConversation returns, for each of the given conversation
// ids, its single most recent non-deleted message, in ONE query. Ids with no
// active message are simply absent from the result.
//
// Tie-break is sent_at DESC then id DESC so same-millisecond bursts resolve
// deterministically. The single round-trip here is load-bearing: fetching
// previews per conversation is the O(n) fan-out this query exists to remove.
func LatestActivePerConversation(ctx context.Context, db *gorm.DB, conversationIDs []uint) ([]PreviewRow, error) {
	if len(conversationIDs) == 0 {
		return nil, nil
	}
	var rows []PreviewRow
	err := db.WithContext(ctx).Raw(`
		SELECT conversation_id, content, type, from_contact, sent_at, is_internal_note
		FROM (
			SELECT m.conversation_id, m.content, m.type, m.from_contact, m.sent_at, m.is_internal_note,
			       ROW_NUMBER() OVER (
			           PARTITION BY m.conversation_id
			           ORDER BY m.sent_at DESC, m.id DESC
			       ) AS rn
			FROM messages m
			WHERE m.conversation_id IN ? AND m.is_deleted = ?
		) ranked
		WHERE rn = 1`, conversationIDs, false).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountUnread returns the derived unread count for a conversation: active,
// contact-originated messages with no read timestamp. Raw COUNT so a missing
// table surfaces as an error.
func CountUnread(ctx context.Context, db *gorm.DB, conversationID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM messages WHERE conversation_id = ? AND from_contact = ? AND is_deleted = ? AND read_at IS NULL",
		conversationID, true, false).
		Scan(&total).Error
	return total, err
}

// RecomputeUnread sets the conversation's unread counter to the derived
// value. Run inside the same transaction as the write that changed unread
// state so the counter and the message rows can never diverge.
func RecomputeUnread(ctx context.Context, db *gorm.DB, conversationID uint) (int, error) {
	total, err := CountUnread(ctx, db, conversationID)
	if err != nil {
		return 0, err
	}
	err = db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", conversationID).
		Update("unread_count", int(total)).Error
	return int(total), err
}

// MarkConversationRead stamps read_at on every unread contact message in the
// conversation. The caller recomputes the counter afterwards (same tx).
func MarkConversationRead(ctx context.Context, db *gorm.DB, conversationID uint, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id = ? AND from_contact = ? AND is_deleted = ? AND read_at IS NULL",
			conversationID, true, false).
		Update("read_at", at).Error
}

// SoftDeleteMessage marks a message globally deleted. Grace-window policy is
// enforced by the service layer, not here.
func SoftDeleteMessage(ctx context.Context, db *gorm.DB, id uint, actorID uint, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_deleted":    true,
			"deleted_by_id": actorID,
			"deleted_at":    at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HideMessageForUser marks a message hidden for one user only. This never
// affects global visibility, counters, or previews.
func HideMessageForUser(ctx context.Context, db *gorm.DB, id uint, userID uint, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_deleted_by_user": true,
			"deleted_by_id":      userID,
			"deleted_at":         at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkDelivered stamps a delivery receipt.
func MarkDelivered(ctx context.Context, db *gorm.DB, id uint, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND delivered_at IS NULL", id).
		Update("delivered_at", at).Error
}

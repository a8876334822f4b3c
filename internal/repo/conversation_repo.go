// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a conversation is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// The list queries accept gorm scopes produced by the filter compiler
// (services.ConversationFilter); an empty scope slice matches everything.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// Scope is a composable query predicate applied to a conversation query.
type Scope = func(*gorm.DB) *gorm.DB

// CreateConversation inserts a new conversation row for (contact, channel).
func CreateConversation(ctx context.Context, db *gorm.DB, c *domain.Conversation) error {
	if c.Status == "" {
		c.Status = domain.StatusOpen
	}
	return db.WithContext(ctx).Create(c).Error
}

// GetConversation fetches a conversation by ID, or ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, id uint) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetConversationWithContact fetches a conversation with its owning contact
// preloaded, for the single-conversation detail view.
func GetConversationWithContact(ctx context.Context, db *gorm.DB, id uint) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := db.WithContext(ctx).Preload("Contact").First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindConversationByContactChannel returns the conversation for a
// (contact, channel) pair, or ErrNotFound. Channel sub-identifiers are not
// part of the key: one thread per contact per platform.
func FindConversationByContactChannel(ctx context.Context, db *gorm.DB, contactID uint, channel string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Where("contact_id = ? AND channel = ?", contactID, channel).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversationsPage returns one page of conversations matching the given
// scopes, ordered by last_message_at descending (NULLs last), with the owning
// contact preloaded in a single extra batched query.
//
// This is the only supported ordering. Offset pagination against a mutating
// last_message_at is not gap-free under concurrent writes; that trade-off is
// accepted (most-recent-activity-first wins over cursor stability).
func ListConversationsPage(ctx context.Context, db *gorm.DB, scopes []Scope, limit, offset int) ([]domain.Conversation, error) {
	var out []domain.Conversation
	q := db.WithContext(ctx).Model(&domain.Conversation{}).Scopes(scopes...)
	err := q.
		Preload("Contact").
		Order("last_message_at IS NULL, last_message_at DESC, conversations.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

// CountConversations returns the total matching the scopes, for pagination
// metadata.
func CountConversations(ctx context.Context, db *gorm.DB, scopes []Scope) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Conversation{}).Scopes(scopes...).Count(&total).Error
	return total, err
}

// ListUnassigned returns conversations with neither a team nor a user
// assignment, newest activity first. The team filter deliberately has no
// "unassigned" sentinel; this is the dedicated query instead.
func ListUnassigned(ctx context.Context, db *gorm.DB, limit, offset int) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Where("assigned_team_id IS NULL AND assigned_user_id IS NULL").
		Preload("Contact").
		Order("last_message_at IS NULL, last_message_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

// UpdateAssignment stamps new ownership on a conversation. Nil team/user
// means unassigned. AssignedAt is always re-stamped, so repeating the same
// assignment is a valid no-op apart from the fresh timestamp.
func UpdateAssignment(ctx context.Context, db *gorm.DB, id uint, teamID, userID *uint, method string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"assigned_team_id":  teamID,
			"assigned_user_id":  userID,
			"assignment_method": method,
			"assigned_at":       at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStatus transitions the conversation lifecycle status.
func UpdateStatus(ctx context.Context, db *gorm.DB, id uint, status string) error {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchLastMessage advances last_message_at. Called inside the same
// transaction that inserts the message.
func TouchLastMessage(ctx context.Context, db *gorm.DB, id uint, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Update("last_message_at", at).Error
}

// ContactHasConversations reports whether any conversation references the
// contact (application-layer referential integrity guard).
func ContactHasConversations(ctx context.Context, db *gorm.DB, contactID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("contact_id = ?", contactID).
		Count(&n).Error
	return n > 0, err
}

// GetTeam fetches a team by ID, or ErrNotFound.
func GetTeam(ctx context.Context, db *gorm.DB, id uint) (*domain.Team, error) {
	var t domain.Team
	if err := db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// GetUser fetches a user by ID, or ErrNotFound. Assignment events read the
// target user fresh through this so broadcast payloads never carry stale
// display fields.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

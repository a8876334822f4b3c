// Package domain defines the core persistence models for the application.
package domain

import "time"

// Idempotency records the result of a previously processed outbound send,
// keyed by (user_id, conversation_id, key). Retried POSTs with the same
// Idempotency-Key return the original message instead of sending twice.
type Idempotency struct {
	ID             string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID         uint      `gorm:"not null;uniqueIndex:ux_user_conv_key,priority:1"`
	ConversationID uint      `gorm:"not null;uniqueIndex:ux_user_conv_key,priority:2"`
	Key            string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_conv_key,priority:3"`
	MessageID      uint      `gorm:"not null"`
	Status         int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt      time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt      time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }

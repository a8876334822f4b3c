// Package domain defines the persistence models for contacts, conversations,
// messages, and the supporting entities (teams, channels, deals). These types
// are mapped with GORM and form the core data layer of the platform.
package domain

import (
	"time"
)

// Channel platform tags. A conversation belongs to exactly one platform.
const (
	ChannelWhatsApp  = "whatsapp"
	ChannelMessenger = "facebook-messenger"
	ChannelInstagram = "instagram-direct"
	ChannelManychat  = "manychat"
)

// Conversation lifecycle statuses.
const (
	StatusOpen     = "open"
	StatusPending  = "pending"
	StatusClosed   = "closed"
	StatusResolved = "resolved"
)

// Assignment methods.
const (
	AssignManual    = "manual"
	AssignAutomatic = "automatic"
)

// Message types.
const (
	MessageTypeText     = "text"
	MessageTypeImage    = "image"
	MessageTypeAudio    = "audio"
	MessageTypeVideo    = "video"
	MessageTypeDocument = "document"
	MessageTypeReminder = "reminder"
)

// Contact represents a person reachable on one or more channels. Phone
// uniqueness is advisory only: the same real person may legitimately exist as
// multiple rows across channels, and duplicate detection never blocks writes.
//
// Fields:
//   - ID: numeric primary key.
//   - Name / Phone / Email / AvatarURL: display essentials.
//   - Online / LastSeenAt: presence as last reported by the channel.
//   - Origin: platform tag of the channel that first created the row.
//   - Tags: free-form labels, stored as JSON.
type Contact struct {
	ID         uint       `json:"id"          gorm:"primaryKey"`
	Name       string     `json:"name"        gorm:"type:varchar(255);not null;index"`
	Phone      string     `json:"phone"       gorm:"type:varchar(32);index"`
	Email      string     `json:"email"       gorm:"type:varchar(255);index"`
	AvatarURL  string     `json:"avatar_url"  gorm:"type:text"`
	Online     bool       `json:"online"      gorm:"not null;default:false"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	Origin     string     `json:"origin"      gorm:"type:varchar(32)"`
	Tags       []string   `json:"tags"        gorm:"serializer:json"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Contact.
func (Contact) TableName() string { return "contacts" }

// Conversation is a thread of messages with a single contact on a single
// channel. Conversations are never hard-deleted; lifecycle is expressed via
// Status transitions.
//
// UnreadCount is derived state: it must always equal the number of
// non-deleted, contact-originated messages with no read timestamp. Writers
// recompute it transactionally (see repo.RecomputeUnread) rather than
// adjusting it incrementally, so it cannot drift.
//
// LastMessageAt drives the one supported list ordering. It mutates on every
// message, which makes offset pagination intentionally non-stable under
// concurrent writes.
type Conversation struct {
	ID         uint   `json:"id"          gorm:"primaryKey"`
	ContactID  uint   `json:"contact_id"  gorm:"not null;index:idx_contact_channel,priority:1"`
	Channel    string `json:"channel"     gorm:"type:varchar(32);not null;index:idx_contact_channel,priority:2"`
	ChannelRef string `json:"channel_ref" gorm:"type:varchar(128);index"`
	ChannelID  *uint  `json:"channel_id,omitempty"`

	Status      string `json:"status"       gorm:"type:varchar(16);not null;default:'open';index"`
	Priority    string `json:"priority"     gorm:"type:varchar(16)"`
	UnreadCount int    `json:"unread_count" gorm:"not null;default:0"`

	AssignedTeamID   *uint      `json:"assigned_team_id,omitempty" gorm:"index"`
	AssignedUserID   *uint      `json:"assigned_user_id,omitempty" gorm:"index"`
	AssignmentMethod string     `json:"assignment_method"          gorm:"type:varchar(16)"`
	AssignedAt       *time.Time `json:"assigned_at,omitempty"`

	LastMessageAt *time.Time     `json:"last_message_at,omitempty" gorm:"index:idx_conv_last_msg,sort:desc"`
	Tags          []string       `json:"tags"     gorm:"serializer:json"`
	Metadata      map[string]any `json:"metadata" gorm:"serializer:json"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	// Contact is the owning contact; loaded for list assembly.
	Contact Contact `json:"-" gorm:"foreignKey:ContactID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message is a single utterance within a conversation, authored either by the
// contact (FromContact) or by an agent. Rows are never hard-deleted.
//
// Deletion semantics:
//   - IsDeleted marks the message globally inactive (excluded from previews
//     and unread counts).
//   - IsDeletedByUser is a per-user hide and must never be conflated with
//     global deletion; hidden messages still count and display for others.
//   - Global deletion is only allowed within a grace window from SentAt,
//     enforced at the service layer for both delete paths.
type Message struct {
	ID             uint   `json:"id"              gorm:"primaryKey"`
	ConversationID uint   `json:"conversation_id" gorm:"not null;index:idx_conv_msgs,priority:1"`
	Content        string `json:"content"         gorm:"type:text;not null"`
	FromContact    bool   `json:"from_contact"    gorm:"not null;index"`
	Type           string `json:"type"            gorm:"type:varchar(16);not null;default:'text'"`

	SentAt      time.Time  `json:"sent_at" gorm:"not null;index:idx_conv_msgs,priority:2"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`

	IsDeleted       bool       `json:"is_deleted"         gorm:"not null;default:false;index"`
	IsDeletedByUser bool       `json:"is_deleted_by_user" gorm:"not null;default:false"`
	DeletedByID     *uint      `json:"deleted_by_id,omitempty"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`

	IsInternalNote bool     `json:"is_internal_note"        gorm:"not null;default:false"`
	NotePriority   string   `json:"note_priority,omitempty" gorm:"type:varchar(16)"`
	NoteTags       []string `json:"note_tags,omitempty"     gorm:"serializer:json"`
	IsPrivate      bool     `json:"is_private"              gorm:"not null;default:false"`

	Metadata MessageMetadata `json:"metadata" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Conversation is the parent thread.
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Active reports whether the message is countable and displayable.
func (m *Message) Active() bool { return !m.IsDeleted }

// Team groups agents for routing. TeamType is the coarse routing category
// (comercial, suporte, cobranca, ...) used by automatic assignment.
type Team struct {
	ID        uint      `json:"id"        gorm:"primaryKey"`
	Name      string    `json:"name"      gorm:"type:varchar(128);not null"`
	TeamType  string    `json:"team_type" gorm:"type:varchar(32);index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Team.
func (Team) TableName() string { return "teams" }

// User is an agent account. Only the display essentials the core needs are
// modeled here; authentication lives outside this module.
type User struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null"`
	Email     string    `json:"email"      gorm:"type:varchar(255);uniqueIndex"`
	AvatarURL string    `json:"avatar_url" gorm:"type:text"`
	TeamID    *uint     `json:"team_id,omitempty" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// ChannelConfig is a configured messaging channel instance (one Z-API
// instance, one Facebook page, ...). The core only cares about identity,
// platform type, and whether credentials are present.
type ChannelConfig struct {
	ID             uint      `json:"id"   gorm:"primaryKey"`
	Name           string    `json:"name" gorm:"type:varchar(128);not null"`
	Type           string    `json:"type" gorm:"type:varchar(32);not null;index"`
	HasCredentials bool      `json:"has_credentials" gorm:"not null;default:false"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for ChannelConfig.
func (ChannelConfig) TableName() string { return "channels" }

// Deal is a CRM deal linked to a contact. The core only needs it for the
// contact delete guard.
type Deal struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	ContactID uint      `json:"contact_id" gorm:"not null;index"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null"`
	Stage     string    `json:"stage"      gorm:"type:varchar(32)"`
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Deal.
func (Deal) TableName() string { return "deals" }

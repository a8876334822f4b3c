// Package services - AssignmentService
//
// Reassigns a conversation's owning team and/or user. Precondition order is
// deliberate: authentication, then permission, then conversation existence,
// then target existence, so an unauthorized caller cannot discover which
// conversations or users exist.
//
// Assigning the same target twice is not an error; assigned_at is re-stamped
// on every call.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/repo"
)

// Permissions accepted for assignment; holding any one is enough.
var assignPermissions = []string{
	"conversations:transfer",
	"conversations:assign",
	"teams:manage",
}

// PermissionEvaluator is the opaque authorization collaborator. The
// coordinator never re-implements policy.
type PermissionEvaluator interface {
	HasAnyPermission(ctx context.Context, userID uint, permissions []string) (bool, error)
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

// AssignmentRequest describes the desired ownership. Nil team/user means
// unassign that dimension.
type AssignmentRequest struct {
	TeamID *uint
	UserID *uint
	Method string // manual | automatic
}

// AssignmentEvent is the broadcast payload for an ownership change. Target
// user display fields are read fresh at event time so clients never render a
// stale name.
type AssignmentEvent struct {
	ConversationID uint      `json:"conversation_id"`
	TeamID         *uint     `json:"team_id,omitempty"`
	UserID         *uint     `json:"user_id,omitempty"`
	UserName       string    `json:"user_name,omitempty"`
	UserAvatarURL  string    `json:"user_avatar_url,omitempty"`
	Method         string    `json:"method"`
	AssignedAt     time.Time `json:"assigned_at"`
}

// AssignmentService mutates conversation ownership.
type AssignmentService struct {
	DB     *gorm.DB
	Perms  PermissionEvaluator
	Notify Notifier

	Now func() time.Time
}

// NewAssignmentService constructs the coordinator.
func NewAssignmentService(db *gorm.DB, perms PermissionEvaluator, notify Notifier) *AssignmentService {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &AssignmentService{DB: db, Perms: perms, Notify: notify, Now: time.Now}
}

// Assign sets the conversation's team/user ownership and re-stamps
// assigned_at, then broadcasts the change.
func (s *AssignmentService) Assign(ctx context.Context, actorID, conversationID uint, req AssignmentRequest) (*domain.Conversation, error) {
	tr := otel.Tracer("services/AssignmentService")
	ctx, span := tr.Start(ctx, "Assign",
		trace.WithAttributes(
			attribute.Int("conversation.id", int(conversationID)),
			attribute.Int("actor.id", int(actorID)),
		),
	)
	defer span.End()

	if actorID == 0 {
		return nil, ErrUnauthenticated
	}
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}

	if _, err := repo.GetConversation(ctx, s.DB, conversationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	// Validate targets before touching the row; a bad target must leave the
	// conversation exactly as it was.
	var targetUser *domain.User
	if req.TeamID != nil {
		if _, err := repo.GetTeam(ctx, s.DB, *req.TeamID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTargetNotFound
			}
			return nil, err
		}
	}
	if req.UserID != nil {
		u, err := repo.GetUser(ctx, s.DB, *req.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTargetNotFound
			}
			return nil, err
		}
		targetUser = u
	}

	method := req.Method
	if method != domain.AssignAutomatic {
		method = domain.AssignManual
	}
	at := s.now()
	if err := repo.UpdateAssignment(ctx, s.DB, conversationID, req.TeamID, req.UserID, method, at); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	ev := AssignmentEvent{
		ConversationID: conversationID,
		TeamID:         req.TeamID,
		UserID:         req.UserID,
		Method:         method,
		AssignedAt:     at,
	}
	if targetUser != nil {
		ev.UserName = targetUser.Name
		ev.UserAvatarURL = targetUser.AvatarURL
	}
	s.Notify.Broadcast(conversationID, Event{Type: EventConversationMoved, ConversationID: conversationID, Payload: ev})
	s.Notify.BroadcastToAll(Event{Type: EventConversationMoved, ConversationID: conversationID})

	return repo.GetConversation(ctx, s.DB, conversationID)
}

// authorize admits admins and holders of any assignment permission.
func (s *AssignmentService) authorize(ctx context.Context, actorID uint) error {
	if s.Perms == nil {
		return ErrPermissionDenied
	}
	if admin, err := s.Perms.IsAdmin(ctx, actorID); err == nil && admin {
		return nil
	}
	ok, err := s.Perms.HasAnyPermission(ctx, actorID, assignPermissions)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

func (s *AssignmentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

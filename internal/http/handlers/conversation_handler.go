// Conversation HTTP handlers.
//
// This file exposes REST endpoints for the conversation list and its
// mutations:
//   - GET  /conversations              (filtered, paginated list)
//   - GET  /conversations/search      (contact name/phone/email search)
//   - GET  /conversations/unassigned  (assignment queue)
//   - GET  /conversations/{id}        (single-conversation detail)
//   - PATCH /conversations/{id}/status (lifecycle status change)
//   - POST /conversations/{id}/assign (team/user ownership)
//   - POST /conversations/{id}/read   (mark read)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Filter leniency lives in the
// service layer; the handlers pass filter values through as raw strings.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/services"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/utils"
)

//
// Service contracts (context-aware)
//

// ConversationService defines the list assembly operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use.
type ConversationService interface {
	// ListPage returns one page of summaries matching the filter plus the
	// total match count.
	ListPage(ctx context.Context, limit, offset int, f services.ConversationFilter) ([]services.ConversationSummary, int64, error)
	// Search returns summaries whose contact matches the term.
	Search(ctx context.Context, term string, limit, offset int) ([]services.ConversationSummary, int64, error)
	// Unassigned returns the queue of conversations without an owner.
	Unassigned(ctx context.Context, limit, offset int) ([]services.ConversationSummary, error)
	// Get returns the detail summary for one conversation.
	Get(ctx context.Context, id uint) (*services.ConversationSummary, error)
	// UpdateStatus moves the conversation through its lifecycle.
	UpdateStatus(ctx context.Context, id uint, status string) error
}

// MessageService defines the message lifecycle operations consumed by HTTP
// handlers.
type MessageService interface {
	RecordInbound(ctx context.Context, ev services.InboundEvent) (*domain.Message, error)
	Send(ctx context.Context, agentID, conversationID uint, in services.OutboundMessage) (*services.SendResult, error)
	History(ctx context.Context, conversationID, viewerID uint, offset, limit int) ([]domain.Message, error)
	MarkRead(ctx context.Context, conversationID uint) error
	Delete(ctx context.Context, actorID, messageID uint, forEveryone bool) error
	HideForMe(ctx context.Context, userID, messageID uint) error
	ConfirmDelivery(ctx context.Context, channel string, messageID uint, at time.Time) error
}

// AssignmentService defines conversation ownership changes.
type AssignmentService interface {
	Assign(ctx context.Context, actorID, conversationID uint, req services.AssignmentRequest) (*domain.Conversation, error)
}

// ContactService defines contact management operations.
type ContactService interface {
	Get(ctx context.Context, id uint) (*domain.Contact, error)
	UpdateProfile(ctx context.Context, id uint, name, email, avatarURL string) error
	Delete(ctx context.Context, id uint) error
	Duplicates(ctx context.Context, id uint) ([]domain.Contact, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for conversations, messages, and
// contacts. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	convSvc    ConversationService
	msgSvc     MessageService
	assignSvc  AssignmentService
	contactSvc ContactService

	// IdempotencyTTL is how long a stored Idempotency-Key tuple stays
	// replayable. Zero falls back to 24h.
	IdempotencyTTL time.Duration
}

// New constructs a Handlers instance bound to the given services.
func New(convSvc ConversationService, msgSvc MessageService, assignSvc AssignmentService, contactSvc ContactService) *Handlers {
	return &Handlers{convSvc: convSvc, msgSvc: msgSvc, assignSvc: assignSvc, contactSvc: contactSvc}
}

// userID extracts the authenticated agent id set by upstream middleware,
// falling back to the "X-User-ID" header (tests use it). Zero means
// unauthenticated; the services reject that where it matters.
func userID(c *gin.Context) uint {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(uint); ok && id != 0 {
			return id
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			if id, err := strconv.ParseUint(h, 10, 64); err == nil {
				return uint(id)
			}
		}
	}
	return 0
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListConversationsResponse wraps a page of conversation summaries.
type ListConversationsResponse struct {
	Conversations []services.ConversationSummary `json:"conversations"`
	Pagination    Pagination                     `json:"pagination"`
}

// AssignRequest is the JSON payload for changing conversation ownership.
// Null team/user unassigns that dimension.
type AssignRequest struct {
	TeamID *uint  `json:"team_id"`
	UserID *uint  `json:"user_id"`
	Method string `json:"method" example:"manual"`
}

// UpdateStatusRequest is the JSON payload for a lifecycle status change.
type UpdateStatusRequest struct {
	Status string `json:"status" example:"resolved"`
}

//
// Helpers
//

// clampPagination parses page/page_size into (limit, offset, page, pageSize).
// The endpoint's default page size is resolved first so the offset math and
// the row limit always agree; the services still apply their caps on top.
func clampPagination(c *gin.Context, defaultSize int) (limit, offset, page, pageSize int) {
	page = utils.AtoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultSize)
	if pageSize < 1 {
		pageSize = defaultSize
	}
	return pageSize, (page - 1) * pageSize, page, pageSize
}

func paginationOf(page, pageSize int, total int64, returned int) Pagination {
	if pageSize <= 0 {
		pageSize = returned
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// pathID parses the :id path segment.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

//
// Handlers
//

// ListConversations godoc
// @ID          listConversations
// @Summary     List conversations (filtered, paginated)
// @Description Returns one page of conversation summaries ordered by most recent activity. Malformed filter values are ignored, never rejected.
// @Tags        Conversations
// @Produce     json
//
// @Param       period     query  string  false "today | yesterday | week | month | all"
// @Param       team       query  string  false "Assigned team id"
// @Param       status     query  string  false "open | pending | closed | resolved"
// @Param       agent      query  string  false "Assigned user id"
// @Param       page       query  int     false "Page number"      minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"   minimum(1) maximum(100) default(30)
//
// @Success     200  {object}  handlers.ListConversationsResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	limit, offset, page, pageSize := clampPagination(c, services.DefaultPageSize)
	f := services.ConversationFilter{
		Period: c.Query("period"),
		Team:   c.Query("team"),
		Status: c.Query("status"),
		Agent:  c.Query("agent"),
	}

	items, total, err := h.convSvc.ListPage(c.Request.Context(), limit, offset, f)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, ListConversationsResponse{
		Conversations: items,
		Pagination:    paginationOf(page, pageSize, total, len(items)),
	})
}

// SearchConversations godoc
// @ID          searchConversations
// @Summary     Search conversations by contact
// @Description Case-insensitive substring match against contact name, phone, and email. Same response shape as the list.
// @Tags        Conversations
// @Produce     json
//
// @Param       q          query  string  true  "Search term"
// @Param       page       query  int     false "Page number" minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page" minimum(1) maximum(500)
//
// @Success     200  {object}  handlers.ListConversationsResponse
// @Failure     400  {object}  handlers.ErrorResponse "Missing term"
// @Router      /conversations/search [get]
func (h *Handlers) SearchConversations(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
		return
	}
	limit, offset, page, pageSize := clampPagination(c, services.SearchPageSize)

	items, total, err := h.convSvc.Search(c.Request.Context(), term, limit, offset)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, ListConversationsResponse{
		Conversations: items,
		Pagination:    paginationOf(page, pageSize, total, len(items)),
	})
}

// ListUnassigned godoc
// @ID          listUnassigned
// @Summary     List unassigned conversations
// @Description Returns conversations with neither a team nor an agent, newest activity first.
// @Tags        Conversations
// @Produce     json
//
// @Param       page       query  int  false "Page number" minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page" minimum(1) maximum(100)
//
// @Success     200  {object}  handlers.ListConversationsResponse
// @Router      /conversations/unassigned [get]
func (h *Handlers) ListUnassigned(c *gin.Context) {
	limit, offset, page, pageSize := clampPagination(c, services.DefaultPageSize)
	items, err := h.convSvc.Unassigned(c.Request.Context(), limit, offset)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, ListConversationsResponse{
		Conversations: items,
		Pagination:    paginationOf(page, pageSize, int64(len(items)), len(items)),
	})
}

// GetConversation godoc
// @ID          getConversation
// @Summary     Get one conversation
// @Description Returns the summary for a single conversation: conversation fields, contact essentials, and the latest-message preview.
// @Tags        Conversations
// @Produce     json
//
// @Param       id  path  int  true  "Conversation ID"
//
// @Success     200  {object}  services.ConversationSummary
// @Failure     404  {object}  handlers.ErrorResponse "Conversation not found"
// @Router      /conversations/{id} [get]
func (h *Handlers) GetConversation(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	item, err := h.convSvc.Get(c.Request.Context(), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, item)
}

// AssignConversation godoc
// @ID          assignConversation
// @Summary     Assign a conversation
// @Description Sets the owning team and/or agent. Re-assigning the same target succeeds and re-stamps assigned_at. Requires an assignment permission.
// @Tags        Conversations
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                 true  "Acting agent id"
// @Param       id         path    int                    true  "Conversation ID"
// @Param       body       body    handlers.AssignRequest true  "Assignment payload"
//
// @Success     200  {object}  domain.Conversation
// @Failure     401  {object}  handlers.ErrorResponse "Unauthenticated"
// @Failure     403  {object}  handlers.ErrorResponse "Permission denied"
// @Failure     404  {object}  handlers.ErrorResponse "Conversation not found"
// @Failure     422  {object}  handlers.ErrorResponse "Target team/user not found"
// @Router      /conversations/{id}/assign [post]
func (h *Handlers) AssignConversation(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	conv, err := h.assignSvc.Assign(c.Request.Context(), userID(c), id, services.AssignmentRequest{
		TeamID: req.TeamID,
		UserID: req.UserID,
		Method: req.Method,
	})
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, conv)
}

// UpdateConversationStatus godoc
// @ID          updateConversationStatus
// @Summary     Change a conversation's status
// @Description Moves the conversation through its lifecycle: open, pending, closed, resolved.
// @Tags        Conversations
// @Accept      json
// @Produce     json
//
// @Param       id    path  int                            true  "Conversation ID"
// @Param       body  body  handlers.UpdateStatusRequest   true  "New status"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse "Unknown status"
// @Failure     404  {object}  handlers.ErrorResponse "Conversation not found"
// @Router      /conversations/{id}/status [patch]
func (h *Handlers) UpdateConversationStatus(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.convSvc.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}

// MarkConversationRead godoc
// @ID          markConversationRead
// @Summary     Mark a conversation read
// @Description Stamps every unread contact message and resets the unread counter.
// @Tags        Conversations
// @Produce     json
//
// @Param       id  path  int  true  "Conversation ID"
//
// @Success     204  {string}  string "No Content"
// @Failure     404  {object}  handlers.ErrorResponse "Conversation not found"
// @Router      /conversations/{id}/read [post]
func (h *Handlers) MarkConversationRead(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	if err := h.msgSvc.MarkRead(c.Request.Context(), id); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}

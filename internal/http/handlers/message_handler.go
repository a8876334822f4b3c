// Message HTTP handlers.
//
// This file exposes REST endpoints for the message lifecycle:
//   - GET    /conversations/{id}/messages  (history, paginated)
//   - POST   /conversations/{id}/messages  (agent send, idempotent)
//   - DELETE /messages/{id}                (soft delete under the grace window)
//   - POST   /messages/{id}/hide           (per-user hide)
//   - POST   /webhooks/{channel}/messages  (normalized inbound event)
//   - POST   /webhooks/{channel}/receipts  (normalized delivery receipt)
//
// The webhook endpoint expects provider adapters to have already normalized
// their payloads; raw provider shapes never reach this API.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/http/middleware"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/repo"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/services"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/utils"
)

// defaultMessagesPageSize is the history page size when the client sends none.
const defaultMessagesPageSize = 50

//
// DTOs
//

// SendMessageRequest is the JSON payload for an agent send.
type SendMessageRequest struct {
	Content        string          `json:"content" example:"Segue o boleto, qualquer dúvida me chama."`
	Type           string          `json:"type" example:"text"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	IsInternalNote bool            `json:"is_internal_note"`
	NotePriority   string          `json:"note_priority,omitempty" example:"high"`
	IsPrivate      bool            `json:"is_private"`
}

// InboundMessageRequest is the normalized webhook payload.
type InboundMessageRequest struct {
	ExternalID   string          `json:"external_id,omitempty"`
	SenderPhone  string          `json:"sender_phone" example:"5511999998888"`
	SenderName   string          `json:"sender_name,omitempty" example:"Maria Silva"`
	SenderAvatar string          `json:"sender_avatar,omitempty"`
	Content      string          `json:"content"`
	Type         string          `json:"type" example:"text"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	SentAt       *time.Time      `json:"sent_at,omitempty"`
}

// ListMessagesResponse wraps a page of messages.
type ListMessagesResponse struct {
	Messages []domain.Message `json:"messages"`
}

// DeliveryReceiptRequest is the normalized delivery receipt payload. Adapters
// translate the provider's own message reference to the core message id they
// received when sending.
type DeliveryReceiptRequest struct {
	MessageID   uint       `json:"message_id"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

//
// Handlers
//

// ListMessages godoc
// @ID          listMessages
// @Summary     List a conversation's messages
// @Description Returns messages oldest first, excluding globally deleted rows and rows the viewer hid for themselves.
// @Tags        Messages
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Viewing agent id"
// @Param       id         path    int     true  "Conversation ID"
// @Param       page       query   int     false "Page number"    minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page" minimum(1) maximum(100) default(50)
//
// @Success     200  {object}  handlers.ListMessagesResponse
// @Failure     404  {object}  handlers.ErrorResponse "Conversation not found"
// @Router      /conversations/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	limit, offset, _, _ := clampPagination(c, defaultMessagesPageSize)
	limit = utils.ClampInt(limit, 1, 100)

	msgs, err := h.msgSvc.History(c.Request.Context(), id, userID(c), offset, limit)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{Messages: msgs})
}

// PostMessage godoc
// @ID          postMessage
// @Summary     Send an agent message
// @Description Persists the message first, then attempts provider delivery. A provider failure still returns 201 with provider_error set. Supports Idempotency-Key for safe retries.
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string                       true  "Sending agent id"
// @Param       Idempotency-Key  header  string                       false "Client retry token"
// @Param       id               path    int                          true  "Conversation ID"
// @Param       body             body    handlers.SendMessageRequest  true  "Message payload"
//
// @Success     201  {object}  services.SendResult
// @Failure     400  {object}  handlers.ErrorResponse "Empty content"
// @Failure     401  {object}  handlers.ErrorResponse "Unauthenticated"
// @Failure     404  {object}  handlers.ErrorResponse "Conversation not found"
// @Router      /conversations/{id}/messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()
	id, okID := pathID(c)
	if !okID {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	meta, err := domain.ParseMetadata(req.Metadata)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid metadata")
		return
	}

	actor := userID(c)

	// Idempotency (replay path) - a retried key returns the stored message
	// without re-sending to the contact's phone.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" {
		if svc, okSvc := h.msgSvc.(*services.MessageService); okSvc && svc.DB != nil {
			if rec, lookupErr := repo.GetIdempotency(ctx, svc.DB, actor, id, idemKey, time.Now().UTC()); lookupErr == nil && rec != nil {
				if prev, getErr := repo.GetMessage(ctx, svc.DB, rec.MessageID); getErr == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusCreated, services.SendResult{Message: prev})
					return
				}
			}
		}
	}

	res, err := h.msgSvc.Send(ctx, actor, id, services.OutboundMessage{
		Content:        req.Content,
		Type:           req.Type,
		Metadata:       meta,
		IsInternalNote: req.IsInternalNote,
		NotePriority:   req.NotePriority,
		IsPrivate:      req.IsPrivate,
	})
	if err != nil {
		failFromService(c, err)
		return
	}

	// Idempotency (store path) - best effort; a concurrent duplicate insert
	// just means the other request already recorded the tuple.
	if idemKey != "" && res != nil && res.Message != nil {
		if svc, okSvc := h.msgSvc.(*services.MessageService); okSvc && svc.DB != nil {
			ttl := h.IdempotencyTTL
			if ttl <= 0 {
				ttl = 24 * time.Hour
			}
			_, _ = repo.CreateIdempotency(ctx, svc.DB, actor, id, idemKey, res.Message.ID, http.StatusCreated, ttl)
		}
	}

	ok(c, http.StatusCreated, res)
}

// DeleteMessage godoc
// @ID          deleteMessage
// @Summary     Delete a message
// @Description Soft-deletes a message. Only allowed within seven minutes of sending; scope=everyone additionally revokes agent messages at the provider.
// @Tags        Messages
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Acting agent id"
// @Param       id         path    int     true  "Message ID"
// @Param       scope      query   string  false "me | everyone" default(me)
//
// @Success     204  {string}  string "No Content"
// @Failure     404  {object}  handlers.ErrorResponse "Message not found"
// @Failure     422  {object}  handlers.ErrorResponse "Grace window expired"
// @Router      /messages/{id} [delete]
func (h *Handlers) DeleteMessage(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	forEveryone := c.Query("scope") == "everyone"
	if err := h.msgSvc.Delete(c.Request.Context(), userID(c), id, forEveryone); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}

// HideMessage godoc
// @ID          hideMessage
// @Summary     Hide a message for the current agent
// @Description Per-user hide. Never affects other viewers, previews, or unread counters, and has no time window.
// @Tags        Messages
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Acting agent id"
// @Param       id         path    int     true  "Message ID"
//
// @Success     204  {string}  string "No Content"
// @Failure     404  {object}  handlers.ErrorResponse "Message not found"
// @Router      /messages/{id}/hide [post]
func (h *Handlers) HideMessage(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	if err := h.msgSvc.HideForMe(c.Request.Context(), userID(c), id); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}

// ReceiveInbound godoc
// @ID          receiveInbound
// @Summary     Record a normalized inbound message
// @Description Entry point for channel adapters. Finds or creates the contact and conversation, stores the message, and updates unread state.
// @Tags        Webhooks
// @Accept      json
// @Produce     json
//
// @Param       channel  path  string                          true  "whatsapp | facebook-messenger | instagram-direct | manychat"
// @Param       body     body  handlers.InboundMessageRequest  true  "Normalized event"
//
// @Success     201  {object}  domain.Message
// @Failure     400  {object}  handlers.ErrorResponse "Unknown channel or empty content"
// @Router      /webhooks/{channel}/messages [post]
func (h *Handlers) ReceiveInbound(c *gin.Context) {
	var req InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	meta, err := domain.ParseMetadata(req.Metadata)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid metadata")
		return
	}

	ev := services.InboundEvent{
		Channel:      c.Param("channel"),
		ExternalID:   req.ExternalID,
		SenderPhone:  req.SenderPhone,
		SenderName:   req.SenderName,
		SenderAvatar: req.SenderAvatar,
		Content:      req.Content,
		Type:         req.Type,
		Metadata:     meta,
	}
	if req.SentAt != nil {
		ev.SentAt = *req.SentAt
	}

	msg, err := h.msgSvc.RecordInbound(c.Request.Context(), ev)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, msg)
}

// ReceiveDeliveryReceipt godoc
// @ID          receiveDeliveryReceipt
// @Summary     Record a delivery receipt
// @Description Stamps delivered_at on an agent message. Duplicate receipts are acknowledged without changing the original stamp.
// @Tags        Webhooks
// @Accept      json
// @Produce     json
//
// @Param       channel  path  string                           true  "whatsapp | facebook-messenger | instagram-direct | manychat"
// @Param       body     body  handlers.DeliveryReceiptRequest  true  "Normalized receipt"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse "Unknown channel or missing message id"
// @Failure     404  {object}  handlers.ErrorResponse "Message not found"
// @Router      /webhooks/{channel}/receipts [post]
func (h *Handlers) ReceiveDeliveryReceipt(c *gin.Context) {
	var req DeliveryReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.MessageID == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message_id is required")
		return
	}
	var at time.Time
	if req.DeliveredAt != nil {
		at = *req.DeliveredAt
	}
	if err := h.msgSvc.ConfirmDelivery(c.Request.Context(), c.Param("channel"), req.MessageID, at); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}

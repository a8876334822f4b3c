// Package handlers defines the HTTP-layer error codes used across the API and
// the mapping from service sentinel errors to HTTP responses.
//
// Conventions:
//   - Codes are lowercase snake_case and stable; clients branch on them.
//   - Generic codes mirror HTTP status semantics; domain-specific codes exist
//     only where status alone cannot convey the failure (e.g. the delete grace
//     window).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeEmptyContent        = "empty_content"
	ErrCodeInvalidChannel      = "invalid_channel"
	ErrCodeInvalidStatus       = "invalid_status"
	ErrCodeDeleteWindowExpired = "delete_window_expired"
	ErrCodeTargetNotFound      = "target_not_found"
	ErrCodeContactInUse        = "contact_in_use"
	ErrCodeMethodNotAllowed    = "method_not_allowed"
)

// failFromService translates a service-layer error into the HTTP envelope.
// Unknown errors become an opaque 500; sentinel details never leak raw
// database errors to clients.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	case errors.Is(err, services.ErrPermissionDenied):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "permission denied")
	case errors.Is(err, services.ErrConversationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
	case errors.Is(err, services.ErrMessageNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "message not found")
	case errors.Is(err, services.ErrContactNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "contact not found")
	case errors.Is(err, services.ErrTargetNotFound):
		fail(c, http.StatusUnprocessableEntity, ErrCodeTargetNotFound, "assignment target not found")
	case errors.Is(err, services.ErrEmptyContent):
		fail(c, http.StatusBadRequest, ErrCodeEmptyContent, "message content is empty")
	case errors.Is(err, services.ErrInvalidChannel):
		fail(c, http.StatusBadRequest, ErrCodeInvalidChannel, "unknown channel")
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, "unknown status")
	case errors.Is(err, services.ErrDeleteWindowExpired):
		fail(c, http.StatusUnprocessableEntity, ErrCodeDeleteWindowExpired, "message can no longer be deleted")
	case errors.Is(err, services.ErrContactInUse):
		fail(c, http.StatusConflict, ErrCodeContactInUse, "contact still has conversations or deals")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

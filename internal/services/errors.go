// Package services defines the business logic for conversations, messages,
// contacts, and assignment. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer. The taxonomy keeps validation, not-found, and authorization
// failures distinguishable: the UI must be able to show "not allowed" vs
// "not found" vs "bad request".
package services

import "errors"

var (
	// ErrConversationNotFound indicates that the referenced conversation
	// does not exist.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrMessageNotFound indicates that the referenced message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrContactNotFound indicates that the referenced contact does not exist.
	ErrContactNotFound = errors.New("contact not found")

	// ErrTargetNotFound indicates that an assignment target (team or user)
	// does not exist. Distinct from ErrConversationNotFound so callers can
	// tell which reference was bad; the conversation is left untouched.
	ErrTargetNotFound = errors.New("assignment target not found")

	// ErrUnauthenticated is returned when no caller identity is present.
	// Checked before any lookup.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrPermissionDenied is returned when the caller lacks every accepted
	// permission. Checked before target existence so unauthorized callers
	// learn nothing about what exists.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrEmptyContent is returned when a message has no content.
	ErrEmptyContent = errors.New("message content is empty")

	// ErrDeleteWindowExpired is returned when a delete is attempted after
	// the grace window from the message's send time. The same window applies
	// to received-message soft delete and sent-message delete-for-everyone.
	ErrDeleteWindowExpired = errors.New("delete window expired")

	// ErrContactInUse blocks contact deletion while conversations or deals
	// still reference the row.
	ErrContactInUse = errors.New("contact has conversations or deals")

	// ErrInvalidChannel is returned for an unknown platform tag on inbound
	// events.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrInvalidStatus is returned for a status value outside the
	// conversation lifecycle set.
	ErrInvalidStatus = errors.New("invalid status")
)

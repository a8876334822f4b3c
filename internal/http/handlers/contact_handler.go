// Contact HTTP handlers.
//
//   - GET    /contacts/{id}             (fetch)
//   - PATCH  /contacts/{id}             (profile update)
//   - DELETE /contacts/{id}             (guarded delete)
//   - GET    /contacts/{id}/duplicates  (advisory duplicate listing)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
)

// UpdateContactRequest is the JSON payload for a profile update. Empty fields
// are left untouched.
type UpdateContactRequest struct {
	Name      string `json:"name,omitempty" example:"Maria Silva"`
	Email     string `json:"email,omitempty" example:"maria@example.com"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// GetContact godoc
// @ID          getContact
// @Summary     Fetch a contact
// @Tags        Contacts
// @Produce     json
//
// @Param       id  path  int  true  "Contact ID"
//
// @Success     200  {object}  domain.Contact
// @Failure     404  {object}  handlers.ErrorResponse "Contact not found"
// @Router      /contacts/{id} [get]
func (h *Handlers) GetContact(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	contact, err := h.contactSvc.Get(c.Request.Context(), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, contact)
}

// UpdateContact godoc
// @ID          updateContact
// @Summary     Update contact profile fields
// @Tags        Contacts
// @Accept      json
// @Produce     json
//
// @Param       id    path  int                             true  "Contact ID"
// @Param       body  body  handlers.UpdateContactRequest   true  "Fields to update"
//
// @Success     204  {string}  string "No Content"
// @Failure     404  {object}  handlers.ErrorResponse "Contact not found"
// @Router      /contacts/{id} [patch]
func (h *Handlers) UpdateContact(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.contactSvc.UpdateProfile(c.Request.Context(), id, req.Name, req.Email, req.AvatarURL); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}

// DeleteContact godoc
// @ID          deleteContact
// @Summary     Delete a contact
// @Description Fails with 409 while any conversation or deal still references the contact.
// @Tags        Contacts
// @Produce     json
//
// @Param       id  path  int  true  "Contact ID"
//
// @Success     204  {string}  string "No Content"
// @Failure     404  {object}  handlers.ErrorResponse "Contact not found"
// @Failure     409  {object}  handlers.ErrorResponse "Contact still referenced"
// @Router      /contacts/{id} [delete]
func (h *Handlers) DeleteContact(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	if err := h.contactSvc.Delete(c.Request.Context(), id); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}

// ListContactDuplicates godoc
// @ID          listContactDuplicates
// @Summary     List possible duplicates of a contact
// @Description Matches other contact rows by Brazilian phone variants (with and without the ninth digit). Advisory only.
// @Tags        Contacts
// @Produce     json
//
// @Param       id  path  int  true  "Contact ID"
//
// @Success     200  {array}   domain.Contact
// @Failure     404  {object}  handlers.ErrorResponse "Contact not found"
// @Router      /contacts/{id}/duplicates [get]
func (h *Handlers) ListContactDuplicates(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	dups, err := h.contactSvc.Duplicates(c.Request.Context(), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	if dups == nil {
		dups = []domain.Contact{}
	}
	ok(c, http.StatusOK, dups)
}

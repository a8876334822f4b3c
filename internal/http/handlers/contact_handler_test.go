package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/services"
)

func TestGetContact_OK_And_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)

	contact := stubContactSvc{
		get: func(_ context.Context, id uint) (*domain.Contact, error) {
			return &domain.Contact{ID: id, Name: "Maria Silva", Phone: "5511999998888"}, nil
		},
	}
	r := gin.New()
	r.GET("/contacts/:id", newHandlers(nil, nil, nil, contact).GetContact)

	w := perform(r, http.MethodGet, "/contacts/12", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got domain.Contact
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != 12 || got.Name != "Maria Silva" {
		t.Fatalf("contact = %+v", got)
	}

	missing := stubContactSvc{
		get: func(context.Context, uint) (*domain.Contact, error) { return nil, services.ErrContactNotFound },
	}
	r = gin.New()
	r.GET("/contacts/:id", newHandlers(nil, nil, nil, missing).GetContact)
	w = perform(r, http.MethodGet, "/contacts/12", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestGetContact_BadID_400(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/contacts/:id", newHandlers(nil, nil, nil, nil).GetContact)

	for _, id := range []string{"abc", "0", "-3"} {
		w := perform(r, http.MethodGet, "/contacts/"+id, nil, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("id %q: status = %d", id, w.Code)
		}
	}
}

func TestUpdateContact_NoContent_PassesFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var gotName, gotEmail, gotAvatar string
	contact := stubContactSvc{
		update: func(_ context.Context, _ uint, name, email, avatarURL string) error {
			gotName, gotEmail, gotAvatar = name, email, avatarURL
			return nil
		},
	}
	r := gin.New()
	r.PATCH("/contacts/:id", newHandlers(nil, nil, nil, contact).UpdateContact)

	body := []byte(`{"name":"Maria S.","email":"maria@example.com","avatar_url":"https://cdn/x.png"}`)
	w := perform(r, http.MethodPatch, "/contacts/12", body, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if gotName != "Maria S." || gotEmail != "maria@example.com" || gotAvatar != "https://cdn/x.png" {
		t.Fatalf("fields = %q %q %q", gotName, gotEmail, gotAvatar)
	}
}

func TestUpdateContact_BadBody_400(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PATCH("/contacts/:id", newHandlers(nil, nil, nil, nil).UpdateContact)

	w := perform(r, http.MethodPatch, "/contacts/12", []byte(`{broken`), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestDeleteContact_Guarded_409(t *testing.T) {
	gin.SetMode(gin.TestMode)

	contact := stubContactSvc{
		del: func(context.Context, uint) error { return services.ErrContactInUse },
	}
	r := gin.New()
	r.DELETE("/contacts/:id", newHandlers(nil, nil, nil, contact).DeleteContact)

	w := perform(r, http.MethodDelete, "/contacts/12", nil, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Code != ErrCodeContactInUse {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestDeleteContact_NoContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.DELETE("/contacts/:id", newHandlers(nil, nil, nil, nil).DeleteContact)

	w := perform(r, http.MethodDelete, "/contacts/12", nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListContactDuplicates_EmptySliceNotNull(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// nil from the service must serialize as [], never null.
	r := gin.New()
	r.GET("/contacts/:id/duplicates", newHandlers(nil, nil, nil, stubContactSvc{}).ListContactDuplicates)

	w := perform(r, http.MethodGet, "/contacts/12/duplicates", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body := w.Body.String(); body != "[]" {
		t.Fatalf("body = %q", body)
	}
}

func TestListContactDuplicates_ReturnsMatches(t *testing.T) {
	gin.SetMode(gin.TestMode)

	contact := stubContactSvc{
		duplicates: func(context.Context, uint) ([]domain.Contact, error) {
			return []domain.Contact{
				{ID: 40, Phone: "5511999998888"},
				{ID: 41, Phone: "551199998888"}, // without ninth digit
			}, nil
		},
	}
	r := gin.New()
	r.GET("/contacts/:id/duplicates", newHandlers(nil, nil, nil, contact).ListContactDuplicates)

	w := perform(r, http.MethodGet, "/contacts/12/duplicates", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got []domain.Contact
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("duplicates = %+v", got)
	}
}

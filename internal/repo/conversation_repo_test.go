package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
)

func seedContact(t *testing.T, db *gorm.DB, name, phone string) *domain.Contact {
	t.Helper()
	c := &domain.Contact{Name: name, Phone: phone}
	if err := CreateContact(context.Background(), db, c); err != nil {
		t.Fatalf("seed contact: %v", err)
	}
	return c
}

func seedConversation(t *testing.T, db *gorm.DB, contactID uint, channel string, lastAt *time.Time) *domain.Conversation {
	t.Helper()
	c := &domain.Conversation{ContactID: contactID, Channel: channel, LastMessageAt: lastAt}
	if err := CreateConversation(context.Background(), db, c); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	return c
}

func TestCreateConversation_DefaultsStatusOpen(t *testing.T) {
	db := newRepoDB(t)
	contact := seedContact(t, db, "Maria", "5511999998888")

	conv := seedConversation(t, db, contact.ID, domain.ChannelWhatsApp, nil)
	if conv.Status != domain.StatusOpen {
		t.Fatalf("status = %q", conv.Status)
	}

	got, err := GetConversation(context.Background(), db, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if got.ContactID != contact.ID || got.Channel != domain.ChannelWhatsApp {
		t.Fatalf("conversation = %+v", got)
	}
}

func TestGetConversationWithContact_Preloads(t *testing.T) {
	db := newRepoDB(t)
	contact := seedContact(t, db, "Maria", "5511999998888")
	conv := seedConversation(t, db, contact.ID, domain.ChannelWhatsApp, nil)

	got, err := GetConversationWithContact(context.Background(), db, conv.ID)
	if err != nil {
		t.Fatalf("GetConversationWithContact: %v", err)
	}
	if got.Contact.Name != "Maria" {
		t.Fatalf("contact not preloaded: %+v", got.Contact)
	}
	if _, err := GetConversationWithContact(context.Background(), db, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestGetConversation_NotFound(t *testing.T) {
	db := newRepoDB(t)
	if _, err := GetConversation(context.Background(), db, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestFindConversationByContactChannel_OneThreadPerPlatform(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	contact := seedContact(t, db, "Maria", "5511999998888")

	wa := seedConversation(t, db, contact.ID, domain.ChannelWhatsApp, nil)
	ig := seedConversation(t, db, contact.ID, domain.ChannelInstagram, nil)

	got, err := FindConversationByContactChannel(ctx, db, contact.ID, domain.ChannelWhatsApp)
	if err != nil {
		t.Fatalf("find whatsapp: %v", err)
	}
	if got.ID != wa.ID {
		t.Fatalf("got %d, want %d", got.ID, wa.ID)
	}

	got, err = FindConversationByContactChannel(ctx, db, contact.ID, domain.ChannelInstagram)
	if err != nil {
		t.Fatalf("find instagram: %v", err)
	}
	if got.ID != ig.ID {
		t.Fatalf("got %d, want %d", got.ID, ig.ID)
	}

	if _, err := FindConversationByContactChannel(ctx, db, contact.ID, domain.ChannelManychat); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing channel err = %v", err)
	}
}

func TestListConversationsPage_OrderingAndPreload(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	contact := seedContact(t, db, "Maria", "5511999998888")

	now := time.Now().Truncate(time.Second)
	older := now.Add(-time.Hour)
	// Two with the same last_message_at (id DESC tie-break), one older, one NULL.
	tieA := seedConversation(t, db, contact.ID, domain.ChannelWhatsApp, &now)
	tieB := seedConversation(t, db, contact.ID, domain.ChannelInstagram, &now)
	old := seedConversation(t, db, contact.ID, domain.ChannelMessenger, &older)
	nullAt := seedConversation(t, db, contact.ID, domain.ChannelManychat, nil)

	page, err := ListConversationsPage(ctx, db, nil, 10, 0)
	if err != nil {
		t.Fatalf("ListConversationsPage: %v", err)
	}
	wantOrder := []uint{tieB.ID, tieA.ID, old.ID, nullAt.ID}
	if len(page) != len(wantOrder) {
		t.Fatalf("len = %d", len(page))
	}
	for i, want := range wantOrder {
		if page[i].ID != want {
			t.Fatalf("position %d: got %d, want %d", i, page[i].ID, want)
		}
	}
	// Contact preloaded in the same page query.
	if page[0].Contact.Name != "Maria" {
		t.Fatalf("contact not preloaded: %+v", page[0].Contact)
	}

	// Offset pagination slices the same ordering.
	page, err = ListConversationsPage(ctx, db, nil, 2, 2)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(page) != 2 || page[0].ID != old.ID || page[1].ID != nullAt.ID {
		t.Fatalf("page 2 = %+v", page)
	}
}

func TestCountConversations_WithScopes(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	contact := seedContact(t, db, "Maria", "5511999998888")
	seedConversation(t, db, contact.ID, domain.ChannelWhatsApp, nil)
	conv := seedConversation(t, db, contact.ID, domain.ChannelInstagram, nil)
	if err := UpdateStatus(ctx, db, conv.ID, domain.StatusClosed); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	total, err := CountConversations(ctx, db, nil)
	if err != nil {
		t.Fatalf("count all: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d", total)
	}

	closedOnly := []Scope{func(q *gorm.DB) *gorm.DB { return q.Where("status = ?", domain.StatusClosed) }}
	total, err = CountConversations(ctx, db, closedOnly)
	if err != nil {
		t.Fatalf("count closed: %v", err)
	}
	if total != 1 {
		t.Fatalf("closed total = %d", total)
	}
}

func TestListUnassigned_FiltersBothDimensions(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	contact := seedContact(t, db, "Maria", "5511999998888")

	free := seedConversation(t, db, contact.ID, domain.ChannelWhatsApp, nil)
	teamOnly := seedConversation(t, db, contact.ID, domain.ChannelInstagram, nil)
	userOnly := seedConversation(t, db, contact.ID, domain.ChannelMessenger, nil)

	team := uint(4)
	agent := uint(9)
	if err := UpdateAssignment(ctx, db, teamOnly.ID, &team, nil, domain.AssignManual, time.Now()); err != nil {
		t.Fatalf("assign team: %v", err)
	}
	if err := UpdateAssignment(ctx, db, userOnly.ID, nil, &agent, domain.AssignManual, time.Now()); err != nil {
		t.Fatalf("assign user: %v", err)
	}

	queue, err := ListUnassigned(ctx, db, 10, 0)
	if err != nil {
		t.Fatalf("ListUnassigned: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != free.ID {
		t.Fatalf("queue = %+v", queue)
	}
}

func TestUpdateAssignment_RestampsAndUnassigns(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	contact := seedContact(t, db, "Maria", "5511999998888")
	conv := seedConversation(t, db, contact.ID, domain.ChannelWhatsApp, nil)

	team := uint(4)
	first := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	if err := UpdateAssignment(ctx, db, conv.ID, &team, nil, domain.AssignManual, first); err != nil {
		t.Fatalf("assign: %v", err)
	}

	// Same target again: valid, with a fresh stamp.
	second := first.Add(time.Hour)
	if err := UpdateAssignment(ctx, db, conv.ID, &team, nil, domain.AssignManual, second); err != nil {
		t.Fatalf("re-assign: %v", err)
	}
	got, err := GetConversation(ctx, db, conv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AssignedTeamID == nil || *got.AssignedTeamID != team {
		t.Fatalf("team = %v", got.AssignedTeamID)
	}
	if got.AssignedAt == nil || !got.AssignedAt.Equal(second) {
		t.Fatalf("assigned_at = %v", got.AssignedAt)
	}

	// Nil/nil unassigns both dimensions.
	if err := UpdateAssignment(ctx, db, conv.ID, nil, nil, domain.AssignManual, second.Add(time.Hour)); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	got, _ = GetConversation(ctx, db, conv.ID)
	if got.AssignedTeamID != nil || got.AssignedUserID != nil {
		t.Fatalf("still assigned: %+v", got)
	}

	// Missing conversation.
	if err := UpdateAssignment(ctx, db, 999, &team, nil, domain.AssignManual, second); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestUpdateStatus_And_TouchLastMessage(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	contact := seedContact(t, db, "Maria", "5511999998888")
	conv := seedConversation(t, db, contact.ID, domain.ChannelWhatsApp, nil)

	if err := UpdateStatus(ctx, db, conv.ID, domain.StatusResolved); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := UpdateStatus(ctx, db, 999, domain.StatusResolved); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}

	at := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)
	if err := TouchLastMessage(ctx, db, conv.ID, at); err != nil {
		t.Fatalf("TouchLastMessage: %v", err)
	}
	got, _ := GetConversation(ctx, db, conv.ID)
	if got.Status != domain.StatusResolved || got.LastMessageAt == nil || !got.LastMessageAt.Equal(at) {
		t.Fatalf("conversation = %+v", got)
	}
}

func TestContactHasConversations(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	with := seedContact(t, db, "Maria", "5511999998888")
	without := seedContact(t, db, "João", "5521988887777")
	seedConversation(t, db, with.ID, domain.ChannelWhatsApp, nil)

	has, err := ContactHasConversations(ctx, db, with.ID)
	if err != nil || !has {
		t.Fatalf("has = %v err = %v", has, err)
	}
	has, err = ContactHasConversations(ctx, db, without.ID)
	if err != nil || has {
		t.Fatalf("has = %v err = %v", has, err)
	}
}

func TestGetTeamAndGetUser(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	if err := db.Create(&domain.Team{ID: 4, Name: "Comercial", TeamType: "comercial"}).Error; err != nil {
		t.Fatalf("seed team: %v", err)
	}
	if err := db.Create(&domain.User{ID: 9, Name: "Ana", Email: "ana@example.com"}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	team, err := GetTeam(ctx, db, 4)
	if err != nil || team.Name != "Comercial" {
		t.Fatalf("team = %+v err = %v", team, err)
	}
	if _, err := GetTeam(ctx, db, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing team err = %v", err)
	}

	user, err := GetUser(ctx, db, 9)
	if err != nil || user.Name != "Ana" {
		t.Fatalf("user = %+v err = %v", user, err)
	}
	if _, err := GetUser(ctx, db, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user err = %v", err)
	}
}

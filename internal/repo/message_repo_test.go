package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
)

func seedMessage(t *testing.T, db *gorm.DB, convID uint, content string, fromContact bool, sentAt time.Time) *domain.Message {
	t.Helper()
	m := &domain.Message{
		ConversationID: convID,
		Content:        content,
		FromContact:    fromContact,
		SentAt:         sentAt,
	}
	if err := CreateMessage(context.Background(), db, m); err != nil {
		t.Fatalf("seed message: %v", err)
	}
	return m
}

func newMessageFixture(t *testing.T) (*gorm.DB, *domain.Conversation) {
	t.Helper()
	db := newRepoDB(t)
	contact := seedContact(t, db, "Maria", "5511999998888")
	conv := seedConversation(t, db, contact.ID, domain.ChannelWhatsApp, nil)
	return db, conv
}

func TestCreateMessage_Defaults(t *testing.T) {
	db, conv := newMessageFixture(t)

	m := &domain.Message{ConversationID: conv.ID, Content: "oi"}
	if err := CreateMessage(context.Background(), db, m); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if m.SentAt.IsZero() {
		t.Fatalf("sent_at not defaulted")
	}
	if m.Type != domain.MessageTypeText {
		t.Fatalf("type = %q", m.Type)
	}
}

func TestGetMessage_NotFound(t *testing.T) {
	db := newRepoDB(t)
	if _, err := GetMessage(context.Background(), db, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestListMessagesPage_ExcludesDeletedAndViewerHidden(t *testing.T) {
	db, conv := newMessageFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	visible := seedMessage(t, db, conv.ID, "fica", true, base)
	deleted := seedMessage(t, db, conv.ID, "apagada", true, base.Add(time.Minute))
	hidden := seedMessage(t, db, conv.ID, "escondida", false, base.Add(2*time.Minute))

	const viewer = uint(7)
	if err := SoftDeleteMessage(ctx, db, deleted.ID, viewer, base.Add(3*time.Minute)); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if err := HideMessageForUser(ctx, db, hidden.ID, viewer, base.Add(3*time.Minute)); err != nil {
		t.Fatalf("hide: %v", err)
	}

	// The hider sees neither the deleted nor their hidden message.
	page, err := ListMessagesPage(ctx, db, conv.ID, viewer, 0, 10)
	if err != nil {
		t.Fatalf("ListMessagesPage: %v", err)
	}
	if len(page) != 1 || page[0].ID != visible.ID {
		t.Fatalf("viewer page = %+v", page)
	}

	// A different viewer still sees the hidden message; hide is per-user.
	page, err = ListMessagesPage(ctx, db, conv.ID, 99, 0, 10)
	if err != nil {
		t.Fatalf("ListMessagesPage other: %v", err)
	}
	if len(page) != 2 || page[0].ID != visible.ID || page[1].ID != hidden.ID {
		t.Fatalf("other viewer page = %+v", page)
	}
}

func TestListMessagesPage_OrderOldestFirst(t *testing.T) {
	db, conv := newMessageFixture(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	third := seedMessage(t, db, conv.ID, "c", true, base.Add(2*time.Minute))
	first := seedMessage(t, db, conv.ID, "a", true, base)
	second := seedMessage(t, db, conv.ID, "b", false, base.Add(time.Minute))

	page, err := ListMessagesPage(context.Background(), db, conv.ID, 0, 0, 10)
	if err != nil {
		t.Fatalf("ListMessagesPage: %v", err)
	}
	want := []uint{first.ID, second.ID, third.ID}
	for i, id := range want {
		if page[i].ID != id {
			t.Fatalf("position %d: got %d, want %d", i, page[i].ID, id)
		}
	}
}

func TestLatestActivePerConversation_TieBreakAndDeleted(t *testing.T) {
	db, conv := newMessageFixture(t)
	ctx := context.Background()

	contact2 := seedContact(t, db, "João", "5521988887777")
	conv2 := seedConversation(t, db, contact2.ID, domain.ChannelWhatsApp, nil)
	emptyConv := seedConversation(t, db, contact2.ID, domain.ChannelInstagram, nil)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedMessage(t, db, conv.ID, "primeira", true, base)
	// Same sent_at: the higher id must win.
	seedMessage(t, db, conv.ID, "empate-a", true, base.Add(time.Minute))
	tieWinner := seedMessage(t, db, conv.ID, "empate-b", false, base.Add(time.Minute))

	// conv2's newest is deleted; preview falls back to the older one.
	seedMessage(t, db, conv2.ID, "antiga", true, base)
	newest := seedMessage(t, db, conv2.ID, "nova-apagada", true, base.Add(time.Hour))
	if err := SoftDeleteMessage(ctx, db, newest.ID, 1, base.Add(2*time.Hour)); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	rows, err := LatestActivePerConversation(ctx, db, []uint{conv.ID, conv2.ID, emptyConv.ID})
	if err != nil {
		t.Fatalf("LatestActivePerConversation: %v", err)
	}
	byConv := map[uint]PreviewRow{}
	for _, r := range rows {
		byConv[r.ConversationID] = r
	}
	if len(byConv) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if byConv[conv.ID].Content != tieWinner.Content {
		t.Fatalf("tie-break preview = %q", byConv[conv.ID].Content)
	}
	if byConv[conv2.ID].Content != "antiga" {
		t.Fatalf("deleted fallback preview = %q", byConv[conv2.ID].Content)
	}
	if _, ok := byConv[emptyConv.ID]; ok {
		t.Fatalf("empty conversation should be absent")
	}
}

func TestLatestActivePerConversation_EmptyInput(t *testing.T) {
	db := newRepoDB(t)
	rows, err := LatestActivePerConversation(context.Background(), db, nil)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if rows != nil {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestUnreadLifecycle_CountRecomputeMarkRead(t *testing.T) {
	db, conv := newMessageFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	seedMessage(t, db, conv.ID, "oi", true, base)
	seedMessage(t, db, conv.ID, "tudo bem?", true, base.Add(time.Minute))
	seedMessage(t, db, conv.ID, "resposta do agente", false, base.Add(2*time.Minute))
	del := seedMessage(t, db, conv.ID, "apagada", true, base.Add(3*time.Minute))
	if err := SoftDeleteMessage(ctx, db, del.ID, 1, base.Add(4*time.Minute)); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	// Agent replies and deleted rows never count.
	n, err := CountUnread(ctx, db, conv.ID)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if n != 2 {
		t.Fatalf("unread = %d", n)
	}

	got, err := RecomputeUnread(ctx, db, conv.ID)
	if err != nil {
		t.Fatalf("RecomputeUnread: %v", err)
	}
	if got != 2 {
		t.Fatalf("recompute = %d", got)
	}
	c, _ := GetConversation(ctx, db, conv.ID)
	if c.UnreadCount != 2 {
		t.Fatalf("stored unread = %d", c.UnreadCount)
	}

	// Mark read stamps every unread contact message, then recompute lands on 0.
	readAt := base.Add(time.Hour)
	if err := MarkConversationRead(ctx, db, conv.ID, readAt); err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}
	if got, err = RecomputeUnread(ctx, db, conv.ID); err != nil || got != 0 {
		t.Fatalf("after read: %d err=%v", got, err)
	}

	var stamped []domain.Message
	if err := db.Where("conversation_id = ? AND from_contact = ? AND is_deleted = ?", conv.ID, true, false).Find(&stamped).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	for _, m := range stamped {
		if m.ReadAt == nil {
			t.Fatalf("message %d missing read stamp", m.ID)
		}
	}
}

func TestSoftDeleteAndHide_NotFound(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	now := time.Now()

	if err := SoftDeleteMessage(ctx, db, 999, 1, now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("soft delete err = %v", err)
	}
	if err := HideMessageForUser(ctx, db, 999, 1, now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("hide err = %v", err)
	}
}

func TestMarkDelivered_OnlyFirstStampSticks(t *testing.T) {
	db, conv := newMessageFixture(t)
	ctx := context.Background()

	m := seedMessage(t, db, conv.ID, "entregue", false, time.Now())
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := MarkDelivered(ctx, db, m.ID, first); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	// Second receipt is ignored; the original stamp stands.
	if err := MarkDelivered(ctx, db, m.ID, first.Add(time.Hour)); err != nil {
		t.Fatalf("MarkDelivered again: %v", err)
	}

	got, err := GetMessage(ctx, db, m.ID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if got.DeliveredAt == nil || !got.DeliveredAt.Equal(first) {
		t.Fatalf("delivered_at = %v", got.DeliveredAt)
	}
}

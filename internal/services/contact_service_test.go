package services

import (
	"context"
	"errors"
	"testing"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
)

func TestFindOrCreate_NormalizesAndReusesByPhoneVariant(t *testing.T) {
	db := newSvcDB(t, &domain.Contact{})
	ctx := context.Background()
	s := NewContactService(db)

	// Raw local format with ninth digit.
	res, err := s.FindOrCreate(ctx, ContactIdentity{
		Phone: "(11) 99999-8888", Name: "Maria Silva", Channel: domain.ChannelWhatsApp,
	})
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	if !res.Created {
		t.Fatal("first sight must create")
	}
	if res.Contact.Phone != "5511999998888" {
		t.Fatalf("stored phone = %q, want 5511999998888", res.Contact.Phone)
	}
	if res.Contact.Origin != domain.ChannelWhatsApp {
		t.Fatalf("origin = %q", res.Contact.Origin)
	}

	// Same number without the ninth digit resolves to the same row.
	again, err := s.FindOrCreate(ctx, ContactIdentity{
		Phone: "551199998888", Name: "Maria", Channel: domain.ChannelWhatsApp,
	})
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	if again.Created {
		t.Fatal("variant of a known number must not create a second row")
	}
	if again.Contact.ID != res.Contact.ID {
		t.Fatalf("resolved contact %d, want %d", again.Contact.ID, res.Contact.ID)
	}
}

func TestFindOrCreate_DisplayNameFallbacksAndCasing(t *testing.T) {
	db := newSvcDB(t, &domain.Contact{})
	ctx := context.Background()
	s := NewContactService(db)

	// All-caps provider push-name gets title-cased.
	res, err := s.FindOrCreate(ctx, ContactIdentity{
		Phone: "5521988887777", Name: "JOÃO DA SILVA", Channel: domain.ChannelWhatsApp,
	})
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	if res.Contact.Name != "João Da Silva" {
		t.Fatalf("name = %q, want João Da Silva", res.Contact.Name)
	}

	// No name falls back to the phone.
	res2, err := s.FindOrCreate(ctx, ContactIdentity{
		Phone: "5531977776666", Channel: domain.ChannelWhatsApp,
	})
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	if res2.Contact.Name != "5531977776666" {
		t.Fatalf("fallback name = %q", res2.Contact.Name)
	}

	// Mixed-case names pass through untouched.
	res3, err := s.FindOrCreate(ctx, ContactIdentity{
		Phone: "5541966665555", Name: "Ana de Souza", Channel: domain.ChannelInstagram,
	})
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	if res3.Contact.Name != "Ana de Souza" {
		t.Fatalf("name = %q, want unchanged", res3.Contact.Name)
	}
}

func TestFindOrCreate_DuplicateDetectionIsAdvisory(t *testing.T) {
	db := newSvcDB(t, &domain.Contact{})
	ctx := context.Background()
	s := NewContactService(db)

	// A pre-existing row created by another channel with the 12-digit form.
	older := &domain.Contact{Name: "Maria (Manychat)", Phone: "551199998888", Origin: domain.ChannelManychat}
	if err := db.Create(older).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := s.FindOrCreate(ctx, ContactIdentity{
		Phone: "5511999998888", Name: "Maria", Channel: domain.ChannelWhatsApp,
	})
	if err != nil {
		t.Fatalf("duplicates must never block resolution: %v", err)
	}
	// The variant match finds the existing row rather than creating one.
	if res.Created || res.Contact.ID != older.ID {
		t.Fatalf("resolved created=%v id=%d, want existing %d", res.Created, res.Contact.ID, older.ID)
	}
}

func TestFindOrCreate_NonPhoneIdentity(t *testing.T) {
	db := newSvcDB(t, &domain.Contact{})
	ctx := context.Background()
	s := NewContactService(db)

	res, err := s.FindOrCreate(ctx, ContactIdentity{
		Phone: "ig:maria.silva", Name: "maria.silva", Channel: domain.ChannelInstagram,
	})
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	if !res.Created {
		t.Fatal("expected creation")
	}

	again, err := s.FindOrCreate(ctx, ContactIdentity{
		Phone: "ig:maria.silva", Name: "maria.silva", Channel: domain.ChannelInstagram,
	})
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	if again.Created || again.Contact.ID != res.Contact.ID {
		t.Fatal("raw identifier must match on second sight")
	}
}

func TestContactDelete_GuardedByReferences(t *testing.T) {
	db := newSvcDB(t, &domain.Contact{}, &domain.Conversation{}, &domain.Deal{})
	ctx := context.Background()
	s := NewContactService(db)

	inConv := seedContact(t, db)
	if err := db.Create(&domain.Conversation{ContactID: inConv.ID, Channel: domain.ChannelWhatsApp, Status: domain.StatusOpen}).Error; err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	if err := s.Delete(ctx, inConv.ID); !errors.Is(err, ErrContactInUse) {
		t.Fatalf("expected ErrContactInUse, got %v", err)
	}

	inDeal := &domain.Contact{Name: "Com Negócio", Phone: "5551955554444"}
	if err := db.Create(inDeal).Error; err != nil {
		t.Fatalf("seed contact: %v", err)
	}
	if err := db.Create(&domain.Deal{ContactID: inDeal.ID, Name: "Matrícula"}).Error; err != nil {
		t.Fatalf("seed deal: %v", err)
	}
	if err := s.Delete(ctx, inDeal.ID); !errors.Is(err, ErrContactInUse) {
		t.Fatalf("expected ErrContactInUse, got %v", err)
	}

	clean := &domain.Contact{Name: "Sem Vínculos", Phone: "5561944443333"}
	if err := db.Create(clean).Error; err != nil {
		t.Fatalf("seed contact: %v", err)
	}
	if err := s.Delete(ctx, clean.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, clean.ID); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound after delete, got %v", err)
	}

	if err := s.Delete(ctx, 9999); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	db := newSvcDB(t, &domain.Contact{})
	ctx := context.Background()
	s := NewContactService(db)
	c := seedContact(t, db)

	if err := s.UpdateProfile(ctx, c.ID, "", "MARIA@Example.COM", ""); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	got, err := s.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Email != "maria@example.com" {
		t.Fatalf("email = %q, want lowercased", got.Email)
	}
	if got.Name != c.Name {
		t.Fatal("empty name must not overwrite the existing one")
	}

	// No fields is a no-op, not an error.
	if err := s.UpdateProfile(ctx, c.ID, "", "", ""); err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if err := s.UpdateProfile(ctx, 9999, "X", "", ""); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
}

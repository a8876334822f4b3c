// Package services - ContactService
//
// Find-or-create for inbound identities, advisory duplicate detection over
// Brazilian phone variants, profile updates, and the application-layer
// delete guard. Duplicate detection is deliberately non-blocking: it warns
// and reports, but never prevents a contact row from being created; the
// platform tolerates one person existing on several channels.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/phone"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/repo"
)

// ContactIdentity is what a channel knows about a sender.
type ContactIdentity struct {
	Phone     string
	Name      string
	AvatarURL string
	Channel   string
}

// FindOrCreateResult carries the resolved contact plus any advisory
// duplicates found for the same normalized phone.
type FindOrCreateResult struct {
	Contact    *domain.Contact  `json:"contact"`
	Created    bool             `json:"created"`
	Duplicates []domain.Contact `json:"duplicates,omitempty"`
}

// ContactService manages contact rows.
type ContactService struct {
	DB *gorm.DB

	// nameCaser normalizes shouty provider push-names for display.
	nameCaser cases.Caser
}

// NewContactService constructs the service with Brazilian Portuguese casing.
func NewContactService(db *gorm.DB) *ContactService {
	return &ContactService{
		DB:        db,
		nameCaser: cases.Title(language.BrazilianPortuguese, cases.NoLower),
	}
}

// FindOrCreate resolves an inbound identity to a contact row, creating one
// lazily on first sight. The duplicate check runs after resolution and is
// advisory only.
func (s *ContactService) FindOrCreate(ctx context.Context, id ContactIdentity) (*FindOrCreateResult, error) {
	variants, err := phone.Variants(id.Phone)
	if err != nil {
		// Channels without phone identity (Instagram handles etc.) still get
		// a contact row; matching then relies on the raw identifier.
		variants = nil
		if p := strings.TrimSpace(id.Phone); p != "" {
			variants = []string{p}
		}
	}

	if len(variants) > 0 {
		existing, err := repo.FindContactByPhones(ctx, s.DB, variants)
		if err == nil {
			dups := s.duplicates(ctx, variants, existing.ID)
			return &FindOrCreateResult{Contact: existing, Duplicates: dups}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	c := &domain.Contact{
		Name:      s.displayName(id),
		AvatarURL: id.AvatarURL,
		Origin:    id.Channel,
	}
	if len(variants) > 0 {
		c.Phone = variants[0]
	}
	if err := repo.CreateContact(ctx, s.DB, c); err != nil {
		return nil, err
	}

	dups := s.duplicates(ctx, variants, c.ID)
	if len(dups) > 0 {
		log.Warn().
			Uint("contact_id", c.ID).
			Str("phone", c.Phone).
			Int("duplicates", len(dups)).
			Msg("possible duplicate contact created; advisory only")
	}
	return &FindOrCreateResult{Contact: c, Created: true, Duplicates: dups}, nil
}

// Get fetches a contact.
func (s *ContactService) Get(ctx context.Context, id uint) (*domain.Contact, error) {
	c, err := repo.GetContact(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContactNotFound
	}
	return c, err
}

// UpdateProfile applies channel-reported display fields.
func (s *ContactService) UpdateProfile(ctx context.Context, id uint, name, email, avatarURL string) error {
	fields := map[string]any{}
	if n := strings.TrimSpace(name); n != "" {
		fields["name"] = n
	}
	if e := strings.TrimSpace(email); e != "" {
		fields["email"] = strings.ToLower(e)
	}
	if avatarURL != "" {
		fields["avatar_url"] = avatarURL
	}
	if len(fields) == 0 {
		return nil
	}
	err := repo.UpdateContactProfile(ctx, s.DB, id, fields)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrContactNotFound
	}
	return err
}

// Delete removes a contact unless any conversation or deal still references
// it. The guard is enforced here, not left to database constraints.
func (s *ContactService) Delete(ctx context.Context, id uint) error {
	if _, err := repo.GetContact(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrContactNotFound
		}
		return err
	}

	inConvs, err := repo.ContactHasConversations(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if inConvs {
		return ErrContactInUse
	}
	inDeals, err := repo.ContactHasDeals(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if inDeals {
		return ErrContactInUse
	}

	err = repo.DeleteContact(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrContactNotFound
	}
	return err
}

// Duplicates lists advisory duplicate rows for an existing contact.
func (s *ContactService) Duplicates(ctx context.Context, id uint) ([]domain.Contact, error) {
	c, err := repo.GetContact(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	variants, verr := phone.Variants(c.Phone)
	if verr != nil {
		return nil, nil
	}
	return repo.ListContactsByPhones(ctx, s.DB, variants, c.ID)
}

// duplicates is the best-effort advisory lookup; failures are logged and
// swallowed because duplicate detection must never break the write path.
func (s *ContactService) duplicates(ctx context.Context, variants []string, excludeID uint) []domain.Contact {
	if len(variants) == 0 {
		return nil
	}
	dups, err := repo.ListContactsByPhones(ctx, s.DB, variants, excludeID)
	if err != nil {
		log.Debug().Err(err).Msg("duplicate contact lookup failed")
		return nil
	}
	return dups
}

// displayName picks a usable display name, title-casing all-caps provider
// push-names.
func (s *ContactService) displayName(id ContactIdentity) string {
	name := strings.TrimSpace(id.Name)
	if name == "" {
		if p := strings.TrimSpace(id.Phone); p != "" {
			return p
		}
		return "Desconhecido"
	}
	if name == strings.ToUpper(name) && name != strings.ToLower(name) {
		return s.nameCaser.String(strings.ToLower(name))
	}
	return name
}

// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Contact
// model.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
)

// CreateContact inserts a new contact row.
func CreateContact(ctx context.Context, db *gorm.DB, c *domain.Contact) error {
	return db.WithContext(ctx).Create(c).Error
}

// GetContact fetches a contact by ID, or ErrNotFound.
func GetContact(ctx context.Context, db *gorm.DB, id uint) (*domain.Contact, error) {
	var c domain.Contact
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindContactByPhones returns the first contact whose phone matches any of
// the given normalized variants, or ErrNotFound.
func FindContactByPhones(ctx context.Context, db *gorm.DB, phones []string) (*domain.Contact, error) {
	if len(phones) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var c domain.Contact
	err := db.WithContext(ctx).
		Where("phone IN ?", phones).
		Order("id ASC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListContactsByPhones returns every contact matching any phone variant.
// Used by the advisory duplicate check; it can return rows from other
// channels for the same real person.
func ListContactsByPhones(ctx context.Context, db *gorm.DB, phones []string, excludeID uint) ([]domain.Contact, error) {
	if len(phones) == 0 {
		return nil, nil
	}
	var out []domain.Contact
	err := db.WithContext(ctx).
		Where("phone IN ? AND id <> ?", phones, excludeID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// UpdateContactProfile updates display fields reported by the channel.
func UpdateContactProfile(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteContact removes the row. Callers must run the referential guards
// (ContactHasConversations, ContactHasDeals) first; the database constraint
// is a backstop, not the policy.
func DeleteContact(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Contact{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ContactHasDeals reports whether any deal references the contact.
func ContactHasDeals(ctx context.Context, db *gorm.DB, contactID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Deal{}).
		Where("contact_id = ?", contactID).
		Count(&n).Error
	return n > 0, err
}

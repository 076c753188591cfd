package recipient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reportdash/internal/models"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// List returns every persisted recipient.
func (s *Store) List() ([]models.Recipient, error) {
	var recipients []models.Recipient
	if err := s.db.Order("email").Find(&recipients).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipients: %v", err)
	}
	return recipients, nil
}

// ListPMs returns recipients flagged as project managers.
func (s *Store) ListPMs() ([]models.Recipient, error) {
	var recipients []models.Recipient
	if err := s.db.Where("is_pm = ?", true).Order("email").Find(&recipients).Error; err != nil {
		return nil, fmt.Errorf("failed to load PM recipients: %v", err)
	}
	return recipients, nil
}

// Upsert inserts a recipient or merges into the existing row keyed by
// email (lowercased).
func (s *Store) Upsert(in UpsertInput) (*models.Recipient, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" {
		return nil, fmt.Errorf("recipient email is required")
	}

	var existing models.Recipient
	err := s.db.Where("email = ?", in.Email).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load recipient %s: %v", in.Email, err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		existing = models.Recipient{Email: in.Email}
	}

	merged := Merge(existing, in)
	if err := s.db.Save(&merged).Error; err != nil {
		return nil, fmt.Errorf("failed to save recipient %s: %v", in.Email, err)
	}
	return &merged, nil
}

// Delete removes a recipient by email.
func (s *Store) Delete(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	result := s.db.Where("email = ?", email).Delete(&models.Recipient{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete recipient %s: %v", email, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

package schedule

import (
	"errors"
	"fmt"

	"github.com/reportdash/internal/models"
	"gorm.io/gorm"
)

// Store owns the singleton schedule configuration row.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get returns the schedule row, or ErrNotConfigured when none exists.
func (s *Store) Get() (*models.ReportSchedule, error) {
	var cfg models.ReportSchedule
	if err := s.db.First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("failed to load report schedule: %v", err)
	}
	return &cfg, nil
}

// GetOrCreate returns the schedule row, creating it with defaults when
// it does not exist yet.
func (s *Store) GetOrCreate() (*models.ReportSchedule, error) {
	cfg, err := s.Get()
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, ErrNotConfigured) {
		return nil, err
	}

	cfg = &models.ReportSchedule{
		Frequency:           models.FrequencyMonthly,
		SendTime:            DefaultSendTime,
		Enabled:             true,
		PMFinalReminderDays: 1,
		PMStartWeeksBefore:  2,
	}
	if err := s.db.Create(cfg).Error; err != nil {
		return nil, fmt.Errorf("failed to create default report schedule: %v", err)
	}
	return cfg, nil
}

// Upsert replaces the mutable fields of the singleton row, creating it
// when absent. The row is never deleted.
func (s *Store) Upsert(in *models.ReportSchedule) (*models.ReportSchedule, error) {
	existing, err := s.Get()
	if errors.Is(err, ErrNotConfigured) {
		if err := s.db.Create(in).Error; err != nil {
			return nil, fmt.Errorf("failed to create report schedule: %v", err)
		}
		return in, nil
	}
	if err != nil {
		return nil, err
	}

	existing.Frequency = in.Frequency
	existing.DayOfWeek = in.DayOfWeek
	existing.SendTime = in.SendTime
	existing.SendDate = in.SendDate
	existing.Enabled = in.Enabled
	existing.PMReminderDay = in.PMReminderDay
	existing.PMFinalReminderDays = in.PMFinalReminderDays
	existing.PMStartWeeksBefore = in.PMStartWeeksBefore

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("failed to update report schedule: %v", err)
	}
	return existing, nil
}

// SetSendDate persists a rolled-forward send date override.
func (s *Store) SetSendDate(date string) error {
	cfg, err := s.Get()
	if err != nil {
		return err
	}
	cfg.SendDate = date
	return s.db.Save(cfg).Error
}

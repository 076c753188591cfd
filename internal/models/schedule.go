package models

import (
	"gorm.io/gorm"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ReportSchedule is the singleton schedule configuration row. It is
// created lazily with defaults on first read and replaced whole on
// update; it is never deleted.
type ReportSchedule struct {
	gorm.Model
	Frequency Frequency `json:"frequency" gorm:"not null;default:monthly"`
	DayOfWeek string    `json:"day_of_week"` // weekday name, weekly frequency only
	SendTime  string    `json:"time"`        // HH:MM, UTC
	SendDate  string    `json:"send_date"`   // YYYY-MM-DD override, rolled forward once passed
	Enabled   bool      `json:"enabled"`

	PMReminderDay       string `json:"pm_reminder_day"`        // weekday name, weekly reminders inside the window
	PMFinalReminderDays int    `json:"pm_final_reminder_days"` // days before send date closing the window
	PMStartWeeksBefore  int    `json:"pm_start_weeks_before"`  // weeks before send date opening the window
}

func IsValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

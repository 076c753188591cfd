package models

import (
	"time"

	"gorm.io/gorm"
)

type TriggerSource string

const (
	TriggerCron   TriggerSource = "cron"
	TriggerManual TriggerSource = "manual"
	TriggerDemo   TriggerSource = "demo"
)

// ReportHistory is the append-only audit trail: one row per dispatch
// run (report runs and reminder runs each log their own row).
type ReportHistory struct {
	gorm.Model
	SentAt      time.Time     `json:"sent_at"`
	Recipients  int           `json:"recipients"`
	Failures    int           `json:"failures"`
	TriggeredBy TriggerSource `json:"triggered_by"`
	TestEmail   string        `json:"test_email,omitempty"`
}

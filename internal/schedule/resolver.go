package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reportdash/internal/models"
)

// ErrNotConfigured means no schedule row exists yet. The caller is
// expected to create the default row first; resolution itself never
// writes anything.
var ErrNotConfigured = errors.New("report schedule not configured")

const (
	DateLayout      = "2006-01-02"
	DefaultSendTime = "08:00"
)

// Resolved is the schedule configuration plus the derived send instant
// and PM reminder window. Recomputed on every call, never persisted.
type Resolved struct {
	Config      models.ReportSchedule
	NextSend    time.Time
	WindowOpen  time.Time
	WindowClose time.Time

	// RolledSendDate holds the send date override pushed one month
	// ahead when the stored one already passed; empty when unchanged.
	RolledSendDate string
}

// Resolve computes the next send instant and reminder window from the
// stored configuration and now. It is a pure function of its inputs so
// tests can pin now to a fixed instant.
//
// The window spans whole days: it opens at midnight pmStartWeeksBefore
// weeks ahead of the send date and closes at the end of the day
// pmFinalReminderDays before it, clamped so that
// windowOpen <= windowClose <= nextSend always holds.
func Resolve(cfg *models.ReportSchedule, now time.Time) (*Resolved, error) {
	if cfg == nil {
		return nil, ErrNotConfigured
	}
	now = now.UTC()

	hour, minute, err := ParseSendTime(cfg.SendTime)
	if err != nil {
		return nil, err
	}

	resolved := &Resolved{Config: *cfg}

	if cfg.SendDate != "" {
		d, err := ParseDate(cfg.SendDate)
		if err != nil {
			return nil, fmt.Errorf("invalid send date: %v", err)
		}
		next := time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
		if next.Before(now) {
			// Explicit send date already passed: push it one calendar
			// month ahead, clamping the day-of-month at short months.
			next = addMonthsClamped(next, 1)
			resolved.RolledSendDate = next.Format(DateLayout)
		}
		resolved.NextSend = next
	} else {
		next, err := nextByFrequency(cfg, now, hour, minute)
		if err != nil {
			return nil, err
		}
		resolved.NextSend = next
	}

	weeks := cfg.PMStartWeeksBefore
	if weeks <= 0 {
		weeks = 2
	}
	days := cfg.PMFinalReminderDays
	if days <= 0 {
		days = 1
	}

	open := startOfDay(resolved.NextSend.AddDate(0, 0, -7*weeks))
	close := endOfDay(resolved.NextSend.AddDate(0, 0, -days))
	if close.After(resolved.NextSend) {
		close = resolved.NextSend
	}
	if open.After(close) {
		open = close
	}
	resolved.WindowOpen = open
	resolved.WindowClose = close

	return resolved, nil
}

func nextByFrequency(cfg *models.ReportSchedule, now time.Time, hour, minute int) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)

	switch cfg.Frequency {
	case models.FrequencyDaily:
		if today.After(now) {
			return today, nil
		}
		return today.AddDate(0, 0, 1), nil

	case models.FrequencyWeekly:
		wd, err := ParseWeekday(cfg.DayOfWeek)
		if err != nil {
			return time.Time{}, err
		}
		// Next occurrence whose instant is strictly after now; on the
		// send day itself this is today while the send time is ahead.
		next := today.AddDate(0, 0, (int(wd)-int(now.Weekday())+7)%7)
		if !next.After(now) {
			next = next.AddDate(0, 0, 7)
		}
		return next, nil

	case models.FrequencyMonthly:
		return time.Date(now.Year(), now.Month()+1, 1, hour, minute, 0, 0, time.UTC), nil
	}

	return time.Time{}, fmt.Errorf("invalid frequency %q", cfg.Frequency)
}

// PreviousSend returns the boundary of the prior reporting cycle: the
// next send instant minus one period of the given frequency.
func PreviousSend(nextSend time.Time, frequency models.Frequency) time.Time {
	switch frequency {
	case models.FrequencyDaily:
		return nextSend.AddDate(0, 0, -1)
	case models.FrequencyWeekly:
		return nextSend.AddDate(0, 0, -7)
	default:
		return addMonthsClamped(nextSend, -1)
	}
}

// ParseSendTime parses a wall-clock HH:MM value; an empty value falls
// back to the default send time.
func ParseSendTime(value string) (hour, minute int, err error) {
	if value == "" {
		value = DefaultSendTime
	}
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid send time %q: %v", value, err)
	}
	return t.Hour(), t.Minute(), nil
}

// ParseDate parses a YYYY-MM-DD value.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %v", value, err)
	}
	return t, nil
}

// ParseWeekday parses a weekday name, case-insensitively.
func ParseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return time.Sunday, fmt.Errorf("invalid weekday %q", name)
}

// SameDay reports whether two instants fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// SameWeekday reports whether now falls on the named weekday.
func SameWeekday(now time.Time, name string) bool {
	wd, err := ParseWeekday(name)
	if err != nil {
		return false
	}
	return now.UTC().Weekday() == wd
}

// addMonthsClamped shifts t by whole calendar months, clamping the
// day-of-month to the last day of the target month instead of letting
// it overflow the way time.AddDate does (Jan 31 + 1 month = Feb 28/29,
// not Mar 2/3).
func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
	day := t.Day()
	if last := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}

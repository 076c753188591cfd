package dispatch

import (
	"testing"
	"time"

	"github.com/reportdash/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedProject creates a project and pins its updated_at, bypassing the
// gorm auto-update timestamp.
func seedProject(t *testing.T, db *gorm.DB, p *models.Project, updatedAt time.Time) uint {
	t.Helper()
	require.NoError(t, db.Create(p).Error)
	require.NoError(t, db.Model(&models.Project{}).
		Where("id = ?", p.ID).
		UpdateColumn("updated_at", updatedAt).Error)
	return p.ID
}

func windowSchedule() *models.ReportSchedule {
	return &models.ReportSchedule{
		Frequency:           models.FrequencyMonthly,
		SendTime:            "08:00",
		SendDate:            "2024-06-10",
		Enabled:             true,
		PMFinalReminderDays: 1,
		PMStartWeeksBefore:  2,
	}
}

func TestRemindersListOnlyPendingProjects(t *testing.T) {
	db := newTestDB(t)
	transport := &fakeTransport{}
	seedSchedule(t, db, windowSchedule())

	// Last cycle boundary is 2024-05-10 (one month before the send
	// date). Project 1 was touched after it, project 2 was not.
	fresh := seedProject(t, db, &models.Project{Title: "Turbine overhaul", Plant: "alpha"},
		time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	stale := seedProject(t, db, &models.Project{Title: "Cooling tower repair", Plant: "bravo"},
		time.Date(2024, 4, 20, 10, 0, 0, 0, time.UTC))

	seedRecipient(t, db, &models.Recipient{
		Email:      "pm@x.com",
		IsPM:       true,
		ProjectIDs: []int{int(fresh), int(stale)},
	})
	// Non-PM recipients never get reminders.
	seedRecipient(t, db, &models.Recipient{Email: "viewer@x.com", Plants: []string{"alpha"}})

	// Final day of the window.
	engine := newTestEngine(db, transport, time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC))

	result, err := engine.DispatchReminders()
	require.NoError(t, err)

	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, transport.sent, 1)
	assert.Equal(t, "pm@x.com", transport.sent[0].To)
	assert.Contains(t, transport.sent[0].HTML, "Cooling tower repair")
	assert.Contains(t, transport.sent[0].HTML, "plant=bravo")
	assert.NotContains(t, transport.sent[0].HTML, "Turbine overhaul")

	rows := historyRows(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Recipients)
	assert.Equal(t, models.TriggerManual, rows[0].TriggeredBy)
}

func TestRemindersOutsideWindow(t *testing.T) {
	db := newTestDB(t)
	transport := &fakeTransport{}
	seedSchedule(t, db, windowSchedule())

	// Window opens 2024-05-27 and closes end of 2024-06-09.
	for _, now := range []time.Time{
		time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
	} {
		engine := newTestEngine(db, transport, now)
		result, err := engine.DispatchReminders()
		require.NoError(t, err)
		assert.True(t, result.Skipped, "expected skip at %s", now)
		assert.Equal(t, "Outside reminder window", result.Reason)
	}

	assert.Empty(t, transport.sent)
	assert.Empty(t, historyRows(t, db))
}

func TestRemindersNotReminderDay(t *testing.T) {
	db := newTestDB(t)
	transport := &fakeTransport{}
	cfg := windowSchedule()
	cfg.SendDate = "2024-06-20"
	cfg.PMReminderDay = "monday"
	seedSchedule(t, db, cfg)

	// Sunday inside the window but well before the final day.
	engine := newTestEngine(db, transport, time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC))

	result, err := engine.DispatchReminders()
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "Not reminder day", result.Reason)
	assert.Empty(t, historyRows(t, db))
}

func TestRemindersFireOnReminderDay(t *testing.T) {
	db := newTestDB(t)
	transport := &fakeTransport{}
	cfg := windowSchedule()
	cfg.SendDate = "2024-06-20"
	cfg.PMReminderDay = "sunday"
	seedSchedule(t, db, cfg)

	stale := seedProject(t, db, &models.Project{Title: "Substation refit"},
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	seedRecipient(t, db, &models.Recipient{
		Email:      "pm@x.com",
		IsPM:       true,
		ProjectIDs: []int{int(stale)},
	})

	// Sunday inside the window.
	engine := newTestEngine(db, transport, time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC))

	result, err := engine.DispatchReminders()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	require.Len(t, transport.sent, 1)
}

func TestRemindersFinalDayOverridesReminderDay(t *testing.T) {
	db := newTestDB(t)
	transport := &fakeTransport{}
	cfg := windowSchedule()
	cfg.PMReminderDay = "friday"
	seedSchedule(t, db, cfg)

	stale := seedProject(t, db, &models.Project{Title: "Pump replacement"},
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	seedRecipient(t, db, &models.Recipient{
		Email:      "pm@x.com",
		IsPM:       true,
		ProjectIDs: []int{int(stale)},
	})

	// 2024-06-09 is a Sunday, not the configured Friday, but it is the
	// final day of the window so the reminder fires anyway.
	engine := newTestEngine(db, transport, time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC))

	result, err := engine.DispatchReminders()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	require.Len(t, transport.sent, 1)
	assert.Contains(t, transport.sent[0].HTML, "Pump replacement")
}

func TestRemindersSkipPMsWithNothingPending(t *testing.T) {
	db := newTestDB(t)
	transport := &fakeTransport{}
	seedSchedule(t, db, windowSchedule())

	fresh := seedProject(t, db, &models.Project{Title: "Fresh project"},
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	seedRecipient(t, db, &models.Recipient{
		Email:      "uptodate@x.com",
		IsPM:       true,
		ProjectIDs: []int{int(fresh)},
	})
	// A PM without project IDs is out of scope entirely.
	seedRecipient(t, db, &models.Recipient{Email: "unscoped@x.com", IsPM: true})

	engine := newTestEngine(db, transport, time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC))

	result, err := engine.DispatchReminders()
	require.NoError(t, err)

	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 0, result.Failed)
	assert.False(t, result.Skipped)
	assert.Empty(t, transport.sent)

	// The run still completed, so it still logs exactly one row.
	rows := historyRows(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].Recipients)
}

func TestRemindersCountPerPMFailures(t *testing.T) {
	db := newTestDB(t)
	transport := &fakeTransport{failFor: map[string]bool{"broken@x.com": true}}
	seedSchedule(t, db, windowSchedule())

	stale := seedProject(t, db, &models.Project{Title: "Stale project"},
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	seedRecipient(t, db, &models.Recipient{
		Email:      "broken@x.com",
		IsPM:       true,
		ProjectIDs: []int{int(stale)},
	})
	seedRecipient(t, db, &models.Recipient{
		Email:      "working@x.com",
		IsPM:       true,
		ProjectIDs: []int{int(stale)},
	})

	engine := newTestEngine(db, transport, time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC))

	result, err := engine.DispatchReminders()
	require.NoError(t, err)

	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, transport.sent, 1)
	assert.Equal(t, "working@x.com", transport.sent[0].To)

	rows := historyRows(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Recipients)
	assert.Equal(t, 1, rows[0].Failures)
}

package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/reportdash/internal/database"
	"github.com/reportdash/internal/mailer"
	"github.com/reportdash/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testBaseURL = "http://dashboard.local/projects"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type fakeTransport struct {
	failFor map[string]bool
	sent    []*mailer.Message
	batches int
}

func (f *fakeTransport) Send(msg *mailer.Message) error {
	if f.failFor[msg.To] {
		return errors.New("smtp: recipient rejected")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) SendBatch(msgs []*mailer.Message) mailer.Outcome {
	f.batches++
	var out mailer.Outcome
	for _, msg := range msgs {
		if err := f.Send(msg); err != nil {
			out.Failed++
			continue
		}
		out.Sent++
	}
	return out
}

func newTestEngine(db *gorm.DB, transport mailer.Transport, now time.Time) *Engine {
	return NewEngine(db, transport, nil, Options{
		BaseURL:  testBaseURL,
		Throttle: time.Millisecond,
		Now:      func() time.Time { return now },
	})
}

func seedSchedule(t *testing.T, db *gorm.DB, cfg *models.ReportSchedule) {
	t.Helper()
	require.NoError(t, db.Create(cfg).Error)
}

func seedRecipient(t *testing.T, db *gorm.DB, rec *models.Recipient) {
	t.Helper()
	require.NoError(t, db.Create(rec).Error)
}

func historyRows(t *testing.T, db *gorm.DB) []models.ReportHistory {
	t.Helper()
	var rows []models.ReportHistory
	require.NoError(t, db.Find(&rows).Error)
	return rows
}

func TestDispatchReportScheduleDisabled(t *testing.T) {
	db := newTestDB(t)
	transport := &fakeTransport{}
	seedSchedule(t, db, &models.ReportSchedule{
		Frequency:           models.FrequencyDaily,
		SendTime:            "08:00",
		Enabled:             false,
		PMFinalReminderDays: 1,
		PMStartWeeksBefore:  2,
	})
	engine := newTestEngine(db, transport, time.Date(2024, 6, 5, 7, 0, 0, 0, time.UTC))

	result, err := engine.DispatchReport(nil, models.TriggerManual)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "Schedule disabled", result.Reason)

	reminders, err := engine.DispatchReminders()
	require.NoError(t, err)
	assert.True(t, reminders.Skipped)
	assert.Equal(t, "Schedule disabled", reminders.Reason)

	assert.Empty(t, transport.sent)
	assert.Zero(t, transport.batches)
	assert.Empty(t, historyRows(t, db))
}

func TestDispatchReportTestOverride(t *testing.T) {
	db := newTestDB(t)
	transport := &fakeTransport{failFor: map[string]bool{"b@y.com": true}}
	// The send date is far in the future: the test override must bypass
	// the send-day gate.
	seedSchedule(t, db, &models.ReportSchedule{
		Frequency: models.FrequencyMonthly,
		SendTime:  "08:00",
		SendDate:  "2030-01-15",
		Enabled:   true,
	})
	engine := newTestEngine(db, transport, time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC))

	result, err := engine.DispatchReport([]string{"a@x.com", "b@y.com"}, models.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)
	assert.False(t, result.Skipped)
	assert.Zero(t, transport.batches, "test sends go one at a time, not through the batch path")

	require.Len(t, transport.sent, 1)
	assert.Equal(t, "a@x.com", transport.sent[0].To)
	assert.Contains(t, transport.sent[0].HTML, testBaseURL)

	rows := historyRows(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Recipients)
	assert.Equal(t, 1, rows[0].Failures)
	assert.Equal(t, models.TriggerDemo, rows[0].TriggeredBy)
	assert.Equal(t, "a@x.com,b@y.com", rows[0].TestEmail)
}

func TestDispatchReportProductionOnSendDay(t *testing.T) {
	db := newTestDB(t)
	transport := &fakeTransport{}
	seedSchedule(t, db, &models.ReportSchedule{
		Frequency: models.FrequencyDaily,
		SendTime:  "08:00",
		Enabled:   true,
	})
	seedRecipient(t, db, &models.Recipient{
		Email:       "alice@x.com",
		Plants:      []string{"alpha", "bravo"},
		Disciplines: []string{"mechanical"},
	})
	seedRecipient(t, db, &models.Recipient{Email: "bob@y.com"})

	// Before the daily send time, today is the send day.
	engine := newTestEngine(db, transport, time.Date(2024, 6, 5, 7, 0, 0, 0, time.UTC))

	result, err := engine.DispatchReport(nil, models.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, transport.batches)
	require.Len(t, transport.sent, 2)

	// Recipients are ordered by email, so alice comes first with her
	// personalized filter link; bob is global and gets the bare URL.
	assert.Equal(t, "alice@x.com", transport.sent[0].To)
	assert.Contains(t, transport.sent[0].HTML, "plant=alpha")
	assert.NotContains(t, transport.sent[0].HTML, "bravo")
	assert.Equal(t, "bob@y.com", transport.sent[1].To)
	assert.NotContains(t, transport.sent[1].HTML, "plant=")

	rows := historyRows(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Recipients)
	assert.Equal(t, 0, rows[0].Failures)
	assert.Equal(t, models.TriggerManual, rows[0].TriggeredBy)
	assert.Empty(t, rows[0].TestEmail)
}

func TestDispatchReportNotSendDay(t *testing.T) {
	db := newTestDB(t)
	transport := &fakeTransport{}
	seedSchedule(t, db, &models.ReportSchedule{
		Frequency: models.FrequencyDaily,
		SendTime:  "08:00",
		Enabled:   true,
	})
	seedRecipient(t, db, &models.Recipient{Email: "alice@x.com"})

	// After the send time the next send rolls to tomorrow.
	engine := newTestEngine(db, transport, time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC))

	result, err := engine.DispatchReport(nil, models.TriggerCron)
	require.NoError(t, err)

	assert.True(t, result.Skipped)
	assert.Equal(t, "Not the scheduled send day", result.Reason)
	assert.Empty(t, transport.sent)
	assert.Empty(t, historyRows(t, db), "gated runs do not log history")
}

func TestDispatchReportPersistsRolledSendDate(t *testing.T) {
	db := newTestDB(t)
	transport := &fakeTransport{}
	seedSchedule(t, db, &models.ReportSchedule{
		Frequency: models.FrequencyMonthly,
		SendTime:  "08:00",
		SendDate:  "2024-05-31",
		Enabled:   true,
	})
	engine := newTestEngine(db, transport, time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC))

	result, err := engine.DispatchReport(nil, models.TriggerCron)
	require.NoError(t, err)
	assert.True(t, result.Skipped)

	var cfg models.ReportSchedule
	require.NoError(t, db.First(&cfg).Error)
	assert.Equal(t, "2024-06-30", cfg.SendDate, "passed send date rolls one month ahead, clamped")
}

func TestDispatchReportCreatesDefaultSchedule(t *testing.T) {
	db := newTestDB(t)
	transport := &fakeTransport{}
	engine := newTestEngine(db, transport, time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC))

	// No schedule row exists: the run bootstraps the default (enabled,
	// monthly) and then gates on the send day.
	result, err := engine.DispatchReport(nil, models.TriggerManual)
	require.NoError(t, err)
	assert.True(t, result.Skipped)

	var count int64
	require.NoError(t, db.Model(&models.ReportSchedule{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

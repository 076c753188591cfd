package mailer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildReportMessage(t *testing.T) {
	sendDate := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	msg := BuildReportMessage("alice@x.com", "http://dash.local/projects?plant=alpha", sendDate)

	assert.Equal(t, "alice@x.com", msg.To)
	assert.Equal(t, "Project Status Report (2024-06-10)", msg.Subject)
	assert.Contains(t, msg.HTML, `href="http://dash.local/projects?plant=alpha"`)
	assert.Contains(t, msg.HTML, "2024-06-10")
}

func TestBuildReminderMessage(t *testing.T) {
	sendDate := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	pending := []PendingProject{
		{
			Title:     "Turbine overhaul",
			Link:      "http://dash.local/projects?plant=alpha",
			UpdatedAt: time.Date(2024, 4, 20, 10, 0, 0, 0, time.UTC),
		},
		{
			Title:     "Cooling tower repair",
			Link:      "http://dash.local/projects?plant=bravo",
			UpdatedAt: time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC),
		},
	}

	msg := BuildReminderMessage("pm@x.com", pending, sendDate)

	assert.Equal(t, "pm@x.com", msg.To)
	assert.Equal(t, "Reminder: 2 project(s) need a status update before 2024-06-10", msg.Subject)
	assert.Contains(t, msg.HTML, "Turbine overhaul")
	assert.Contains(t, msg.HTML, "Cooling tower repair")
	assert.Contains(t, msg.HTML, "last updated 2024-04-20")
	assert.Contains(t, msg.HTML, `href="http://dash.local/projects?plant=bravo"`)
}

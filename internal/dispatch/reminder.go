package dispatch

import (
	"log"
	"time"

	"github.com/reportdash/internal/mailer"
	"github.com/reportdash/internal/models"
	"github.com/reportdash/internal/report"
	"github.com/reportdash/internal/schedule"
)

// DispatchReminders runs the PM reminder flow. Three gates short-circuit
// without transport calls or history: schedule disabled, now outside the
// reminder window, and not a reminder day. The final day of the window
// always fires regardless of the configured reminder weekday, so every
// cycle gets at least one mandatory last-chance reminder.
//
// Each PM with project IDs gets one email listing their projects not
// updated since the previous cycle boundary; PMs with nothing pending
// are skipped silently. Sends are throttled with a fixed delay. There is
// no same-day dedup on this path: invoking it twice on a reminder day
// sends twice.
func (e *Engine) DispatchReminders() (*Result, error) {
	now := e.now().UTC()

	cfg, err := e.schedules.GetOrCreate()
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return &Result{Skipped: true, Reason: "Schedule disabled"}, nil
	}

	resolved, err := schedule.Resolve(cfg, now)
	if err != nil {
		return nil, err
	}

	if now.Before(resolved.WindowOpen) || now.After(resolved.WindowClose) {
		return &Result{Skipped: true, Reason: "Outside reminder window"}, nil
	}

	isFinalDay := schedule.SameDay(now, resolved.WindowClose)
	if !isFinalDay && cfg.PMReminderDay != "" && !schedule.SameWeekday(now, cfg.PMReminderDay) {
		return &Result{Skipped: true, Reason: "Not reminder day"}, nil
	}

	pms, err := e.recipients.ListPMs()
	if err != nil {
		return nil, err
	}

	lastSend := schedule.PreviousSend(resolved.NextSend, cfg.Frequency)

	res := &Result{}
	sentAny := false
	for _, pm := range pms {
		if len(pm.ProjectIDs) == 0 {
			continue
		}

		pending, err := e.pendingProjects(pm.ProjectIDs, lastSend)
		if err != nil {
			log.Printf("dispatch: loading projects for %s failed: %v", pm.Email, err)
			res.Failed++
			continue
		}
		if len(pending) == 0 {
			// Everything up to date for this PM, no email.
			continue
		}

		if sentAny {
			time.Sleep(e.throttle)
		}
		sentAny = true

		msg := mailer.BuildReminderMessage(pm.Email, pending, resolved.NextSend)
		if err := e.transport.Send(msg); err != nil {
			log.Printf("dispatch: reminder to %s failed: %v", pm.Email, err)
			res.Failed++
			continue
		}
		res.Sent++
	}

	e.recordHistory(res, models.TriggerManual, "")
	e.notifyRun("reminder", res, models.TriggerManual)
	return res, nil
}

// pendingProjects returns the subset of the given projects whose last
// update predates the previous cycle boundary.
func (e *Engine) pendingProjects(projectIDs []int, lastSend time.Time) ([]mailer.PendingProject, error) {
	var projects []models.Project
	if err := e.db.Where("id IN ?", projectIDs).Find(&projects).Error; err != nil {
		return nil, err
	}

	var pending []mailer.PendingProject
	for _, p := range projects {
		if !p.UpdatedAt.Before(lastSend) {
			continue
		}
		var plants []string
		if p.Plant != "" {
			plants = []string{p.Plant}
		}
		pending = append(pending, mailer.PendingProject{
			Title:     p.Title,
			Link:      report.BuildLink(e.baseURL, plants, p.Disciplines),
			UpdatedAt: p.UpdatedAt,
		})
	}
	return pending, nil
}

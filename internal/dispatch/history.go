package dispatch

import (
	"log"

	"github.com/reportdash/internal/models"
)

// recordHistory appends the audit row for one dispatch run. Best-effort:
// a failed write is logged and never surfaces to the dispatch caller.
func (e *Engine) recordHistory(res *Result, trigger models.TriggerSource, testEmail string) {
	row := models.ReportHistory{
		SentAt:      e.now().UTC(),
		Recipients:  res.Sent,
		Failures:    res.Failed,
		TriggeredBy: trigger,
		TestEmail:   testEmail,
	}
	if err := e.db.Create(&row).Error; err != nil {
		log.Printf("dispatch: failed to record history: %v", err)
	}
}

// notifyRun posts the run summary to Slack. Best-effort as well.
func (e *Engine) notifyRun(run string, res *Result, trigger models.TriggerSource) {
	if err := e.notifier.NotifyRun(run, res.Sent, res.Failed, trigger); err != nil {
		log.Printf("dispatch: slack notification failed: %v", err)
	}
}

package jobs

import (
	"log"

	"github.com/reportdash/internal/dispatch"
	"github.com/reportdash/internal/models"
	"github.com/robfig/cron/v3"
)

// CronManager is the optional in-process trigger. It only invokes the
// dispatch engine; all gating (send day, reminder window) lives in the
// engine, so redundant firings are safe for the report path.
type CronManager struct {
	cron   *cron.Cron
	engine *dispatch.Engine
}

func NewCronManager(engine *dispatch.Engine) *CronManager {
	return &CronManager{
		cron:   cron.New(),
		engine: engine,
	}
}

// Setup registers the dispatch job on the given cron expression.
func (cm *CronManager) Setup(spec string) error {
	_, err := cm.cron.AddFunc(spec, func() {
		log.Println("cron: running scheduled dispatch")

		result, err := cm.engine.DispatchReport(nil, models.TriggerCron)
		if err != nil {
			log.Printf("cron: report dispatch failed: %v", err)
		} else if result.Skipped {
			log.Printf("cron: report skipped: %s", result.Reason)
		} else {
			log.Printf("cron: report sent=%d failed=%d", result.Sent, result.Failed)
		}

		reminders, err := cm.engine.DispatchReminders()
		if err != nil {
			log.Printf("cron: reminder dispatch failed: %v", err)
		} else if reminders.Skipped {
			log.Printf("cron: reminders skipped: %s", reminders.Reason)
		} else {
			log.Printf("cron: reminders sent=%d failed=%d", reminders.Sent, reminders.Failed)
		}
	})
	return err
}

func (cm *CronManager) Start() {
	cm.cron.Start()
}

func (cm *CronManager) Stop() {
	cm.cron.Stop()
}

package dispatch

import (
	"log"
	"strings"
	"time"

	"github.com/reportdash/internal/mailer"
	"github.com/reportdash/internal/models"
	"github.com/reportdash/internal/notify"
	"github.com/reportdash/internal/recipient"
	"github.com/reportdash/internal/report"
	"github.com/reportdash/internal/schedule"
	"gorm.io/gorm"
)

// Engine runs report and reminder dispatch. It is invoked per request
// (HTTP or cron trigger) and holds no mutable state of its own; the
// database is the sole source of truth. Report runs are idempotent by
// date thanks to the send-day gate; reminder runs carry no such dedup.
type Engine struct {
	db         *gorm.DB
	transport  mailer.Transport
	notifier   *notify.SlackNotifier
	schedules  *schedule.Store
	recipients *recipient.Store
	baseURL    string
	throttle   time.Duration
	now        func() time.Time
}

type Options struct {
	BaseURL  string
	Throttle time.Duration // delay between PM reminder sends
	Now      func() time.Time
}

func NewEngine(db *gorm.DB, transport mailer.Transport, notifier *notify.SlackNotifier, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Throttle == 0 {
		opts.Throttle = 600 * time.Millisecond
	}
	return &Engine{
		db:         db,
		transport:  transport,
		notifier:   notifier,
		schedules:  schedule.NewStore(db),
		recipients: recipient.NewStore(db),
		baseURL:    opts.BaseURL,
		throttle:   opts.Throttle,
		now:        opts.Now,
	}
}

// Result is the outcome of one report or reminder run. Skipped runs
// carry a reason and make no transport calls and no history record.
type Result struct {
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// DispatchReport runs the report fan-out. A non-empty testEmails list
// overrides the persisted recipients and bypasses the send-day gate;
// each test send is counted independently. The production path sends
// personalized links to every recipient through one batch transport
// call, gated on today being the resolved send day. Exactly one history
// row is appended per executed run.
func (e *Engine) DispatchReport(testEmails []string, trigger models.TriggerSource) (*Result, error) {
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
	e.persistRolledSendDate(resolved)

	if len(testEmails) > 0 {
		return e.dispatchTestReport(testEmails, resolved), nil
	}

	if !schedule.SameDay(now, resolved.NextSend) {
		return &Result{Skipped: true, Reason: "Not the scheduled send day"}, nil
	}

	recipients, err := e.recipients.List()
	if err != nil {
		return nil, err
	}

	msgs := make([]*mailer.Message, 0, len(recipients))
	for _, r := range recipients {
		link := report.BuildLink(e.baseURL, r.Plants, r.Disciplines)
		msgs = append(msgs, mailer.BuildReportMessage(r.Email, link, resolved.NextSend))
	}

	// The batch transport rate-limits internally; no throttling here.
	out := e.transport.SendBatch(msgs)
	res := &Result{Sent: out.Sent, Failed: out.Failed}

	e.recordHistory(res, trigger, "")
	e.notifyRun("report", res, trigger)
	return res, nil
}

// dispatchTestReport sends sequentially to the override list, one
// request at a time, each counted on its own.
func (e *Engine) dispatchTestReport(testEmails []string, resolved *schedule.Resolved) *Result {
	res := &Result{}
	link := report.BuildLink(e.baseURL, nil, nil)

	for _, to := range testEmails {
		msg := mailer.BuildReportMessage(to, link, resolved.NextSend)
		if err := e.transport.Send(msg); err != nil {
			log.Printf("dispatch: test send to %s failed: %v", to, err)
			res.Failed++
			continue
		}
		res.Sent++
	}

	e.recordHistory(res, models.TriggerDemo, strings.Join(testEmails, ","))
	e.notifyRun("report (test)", res, models.TriggerDemo)
	return res
}

// persistRolledSendDate writes a rolled-forward send date override back
// to the store. Best-effort: a failure is logged, the run continues.
func (e *Engine) persistRolledSendDate(resolved *schedule.Resolved) {
	if resolved.RolledSendDate == "" {
		return
	}
	if err := e.schedules.SetSendDate(resolved.RolledSendDate); err != nil {
		log.Printf("dispatch: failed to roll send date forward: %v", err)
	}
}

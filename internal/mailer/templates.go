package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"time"
)

// PendingProject is one stale project row in a PM reminder email.
type PendingProject struct {
	Title     string
	Link      string
	UpdatedAt time.Time
}

const reportHTML = `
<html>
<body style="font-family: sans-serif; color: #333;">
	<h2>Project Status Report</h2>
	<p>The project status report for {{.Date}} is ready.</p>
	<p><a href="{{.Link}}">Open your personalized dashboard view</a></p>
	<p style="color: #888; font-size: 12px;">You receive this report because you are subscribed on the ReportDash dashboard.</p>
</body>
</html>`

const reminderHTML = `
<html>
<body style="font-family: sans-serif; color: #333;">
	<h2>Status Update Reminder</h2>
	<p>The next status report goes out on {{.SendDate}}. The following projects have not been updated since the last reporting cycle:</p>
	<ul>
	{{range .Projects}}
		<li><a href="{{.Link}}">{{.Title}}</a> — last updated {{.UpdatedAt.Format "2006-01-02"}}</li>
	{{end}}
	</ul>
	<p>Please update their status before the report is sent.</p>
</body>
</html>`

var (
	reportTmpl   = template.Must(template.New("report").Parse(reportHTML))
	reminderTmpl = template.Must(template.New("reminder").Parse(reminderHTML))
)

// BuildReportMessage builds the personalized report email for one
// recipient.
func BuildReportMessage(to, link string, sendDate time.Time) *Message {
	date := sendDate.UTC().Format("2006-01-02")
	return &Message{
		To:      to,
		Subject: fmt.Sprintf("Project Status Report (%s)", date),
		HTML: render(reportTmpl, struct {
			Date string
			Link string
		}{Date: date, Link: link}),
	}
}

// BuildReminderMessage builds the pending-projects reminder email for
// one project manager.
func BuildReminderMessage(to string, projects []PendingProject, sendDate time.Time) *Message {
	date := sendDate.UTC().Format("2006-01-02")
	return &Message{
		To:      to,
		Subject: fmt.Sprintf("Reminder: %d project(s) need a status update before %s", len(projects), date),
		HTML: render(reminderTmpl, struct {
			SendDate string
			Projects []PendingProject
		}{SendDate: date, Projects: projects}),
	}
}

func render(tmpl *template.Template, data interface{}) string {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Printf("mailer: failed to render %s template: %v", tmpl.Name(), err)
	}
	return buf.String()
}

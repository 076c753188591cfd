package notify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/reportdash/internal/models"
	"github.com/slack-go/slack"
)

// SlackNotifier posts a run summary to a channel after each dispatch
// run. A nil notifier is valid and does nothing, so Slack stays
// optional.
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

func NewSlackNotifier(token, channel string) *SlackNotifier {
	if token == "" || channel == "" {
		return nil
	}
	return &SlackNotifier{
		client:  slack.New(token),
		channel: channel,
	}
}

// NotifyRun posts the outcome of one dispatch run.
func (n *SlackNotifier) NotifyRun(run string, sent, failed int, trigger models.TriggerSource) error {
	if n == nil {
		return nil
	}

	attachment := slack.Attachment{
		Color: runColor(failed),
		Title: fmt.Sprintf("ReportDash dispatch: %s", run),
		Fields: []slack.AttachmentField{
			{
				Title: "Sent",
				Value: strconv.Itoa(sent),
				Short: true,
			},
			{
				Title: "Failed",
				Value: strconv.Itoa(failed),
				Short: true,
			},
			{
				Title: "Triggered by",
				Value: string(trigger),
				Short: true,
			},
		},
		Footer: "ReportDash Dispatch",
		Ts:     json.Number(strconv.FormatInt(time.Now().Unix(), 10)),
	}

	_, _, err := n.client.PostMessage(
		n.channel,
		slack.MsgOptionAttachments(attachment),
	)
	return err
}

func runColor(failed int) string {
	if failed > 0 {
		return "#ffcc00"
	}
	return "#36a64f"
}

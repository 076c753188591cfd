package mailer

import (
	"log"

	"gopkg.in/gomail.v2"
)

// Mailer is the SMTP-backed Transport.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(smtpHost string, smtpPort int, from, password string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(smtpHost, smtpPort, from, password),
		from:   from,
	}
}

// Send delivers a single message over a fresh SMTP connection.
func (m *Mailer) Send(msg *Message) error {
	return m.dialer.DialAndSend(m.compose(msg))
}

// SendBatch delivers messages over one SMTP connection and returns the
// aggregate outcome. A failed send is counted and does not abort the
// rest of the batch; a failed dial fails the whole batch.
func (m *Mailer) SendBatch(msgs []*Message) Outcome {
	if len(msgs) == 0 {
		return Outcome{}
	}

	sender, err := m.dialer.Dial()
	if err != nil {
		log.Printf("mailer: SMTP dial failed: %v", err)
		return Outcome{Failed: len(msgs)}
	}
	defer sender.Close()

	var out Outcome
	for _, msg := range msgs {
		if err := gomail.Send(sender, m.compose(msg)); err != nil {
			log.Printf("mailer: send to %s failed: %v", msg.To, err)
			out.Failed++
			continue
		}
		out.Sent++
	}
	return out
}

func (m *Mailer) compose(msg *Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)
	return gm
}

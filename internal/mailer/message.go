package mailer

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Outcome is the aggregate result of a batch send.
type Outcome struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Transport sends report email. The production implementation dials
// SMTP via gomail; tests substitute a fake.
type Transport interface {
	Send(msg *Message) error
	SendBatch(msgs []*Message) Outcome
}

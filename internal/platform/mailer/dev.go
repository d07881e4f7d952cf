package mailer

import (
	"sync"

	"github.com/google/uuid"

	"github.com/diagnosis/lifesave-bloodbank/pkg/logger"
)

// Message is a mail captured by DevMailer.
type Message struct {
	ID      string
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// DevMailer logs messages instead of sending them and keeps them for inspection.
type DevMailer struct {
	mu   sync.Mutex
	sent []Message
}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	msg := Message{ID: uuid.NewString(), To: toEmail, ToName: toName, Subject: subject, Text: text, HTML: html}
	d.mu.Lock()
	d.sent = append(d.sent, msg)
	d.mu.Unlock()

	logger.Info("Email (dev mode)", "message_id", msg.ID, "to", toEmail, "subject", subject, "text", text)
	return msg.ID, nil
}

// Sent returns a copy of every captured message.
func (d *DevMailer) Sent() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Message, len(d.sent))
	copy(out, d.sent)
	return out
}

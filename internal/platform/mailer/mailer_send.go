package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

var ErrMailerDisabled = errors.New("mailer disabled (missing MAILERSEND_API_KEY or SMTP_FROM)")

// Mailer sends through the MailerSend HTTP API.
type Mailer struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	tags    []string
	timeout time.Duration
}

func NewMailer(apiKey, fromName, fromEmail string) *Mailer {
	m := &Mailer{
		from:    mailersend.From{Name: fromName, Email: fromEmail},
		tags:    []string{"lifesave"},
		timeout: 10 * time.Second,
	}
	if apiKey != "" && fromEmail != "" {
		m.client = mailersend.NewMailersend(apiKey)
	}
	return m
}

func (m *Mailer) Enabled() bool { return m.client != nil }

func (m *Mailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	if !m.Enabled() {
		return "", ErrMailerDisabled
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)
	msg.SetTags(m.tags)
	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("mailersend request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return res.Header.Get("X-Message-Id"), nil
}

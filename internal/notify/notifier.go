// Package notify emails donors when their application is reviewed.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/diagnosis/lifesave-bloodbank/internal/platform/mailer"
	"github.com/diagnosis/lifesave-bloodbank/pkg/events"
	"github.com/diagnosis/lifesave-bloodbank/pkg/logger"
	"github.com/diagnosis/lifesave-bloodbank/pkg/metrics"
)

const QueueGroup = "notify"

type Notifier struct {
	mail    mailer.Service
	metrics *metrics.Metrics
}

func New(mail mailer.Service, m *metrics.Metrics) *Notifier {
	return &Notifier{mail: mail, metrics: m}
}

// Start subscribes to review decisions. With NATS, every API instance joins
// the same queue group so each decision is mailed once.
func (n *Notifier) Start(sub events.Subscriber) error {
	for _, subject := range []string{events.DonorApproved, events.DonorRejected} {
		if err := sub.QueueSubscribe(subject, QueueGroup, n.handle); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
	}
	return nil
}

func (n *Notifier) handle(msg *events.Message) {
	ctx := context.WithValue(context.Background(), logger.ServiceKey, "notify")

	var ev events.DonorReviewedEvent
	if err := msg.Decode(&ev); err != nil {
		logger.ErrorContext(ctx, "Failed to decode review event", "subject", msg.Subject, "error", err)
		return
	}
	if strings.TrimSpace(ev.Email) == "" {
		logger.DebugContext(ctx, "Donor left no email, skipping notification", "donor_id", ev.DonorID)
		return
	}

	subject, text, body := compose(ev)
	id, err := n.mail.Send(ev.Email, ev.Name, subject, text, body)
	n.metrics.RecordEmail(err)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to send review notification", "donor_id", ev.DonorID, "status", ev.Status, "error", err)
		return
	}
	logger.InfoContext(ctx, "Review notification sent", "donor_id", ev.DonorID, "status", ev.Status, "message_id", id)
}

func compose(ev events.DonorReviewedEvent) (subject, text, htmlBody string) {
	name := html.EscapeString(ev.Name)
	if ev.Status == "approved" {
		subject = "Your LifeSave donor registration is approved"
		text = fmt.Sprintf("Hi %s,\n\nThank you for registering as a %s blood donor. Your registration has been approved and our team may contact you when a donation is needed.", ev.Name, ev.BloodGroup)
		htmlBody = fmt.Sprintf(`<p>Hi %s,</p><p>Thank you for registering as a <b>%s</b> blood donor. Your registration has been approved and our team may contact you when a donation is needed.</p>`, name, html.EscapeString(ev.BloodGroup))
		return
	}

	subject = "Update on your LifeSave donor registration"
	text = fmt.Sprintf("Hi %s,\n\nWe could not approve your donor registration at this time.", ev.Name)
	htmlBody = fmt.Sprintf(`<p>Hi %s,</p><p>We could not approve your donor registration at this time.</p>`, name)
	if ev.Reason != "" {
		text += "\nReason: " + ev.Reason
		htmlBody += fmt.Sprintf(`<p>Reason: %s</p>`, html.EscapeString(ev.Reason))
	}
	return
}

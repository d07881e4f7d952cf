package mailer

import (
	"github.com/diagnosis/lifesave-bloodbank/pkg/config"
	"github.com/diagnosis/lifesave-bloodbank/pkg/logger"
)

// Service sends one message and returns the provider's message id, if any.
type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
}

// New picks a transport from cfg: the dev logger when DevMode is set,
// MailerSend when an API key is present, SMTP otherwise.
func New(cfg config.EmailConfig) Service {
	switch {
	case cfg.DevMode:
		logger.Info("Email dev mode enabled, messages will be logged only")
		return NewDevMailer()
	case cfg.MailerSendKey != "":
		return NewMailer(cfg.MailerSendKey, cfg.FromName, cfg.SMTPFrom)
	default:
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	}
}

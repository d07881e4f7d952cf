package mailer

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultSMTPTimeout = 15 * time.Second

// SMTPMailer sends multipart/alternative mail over plain SMTP (Mailpit in
// development), STARTTLS, or implicit TLS on port 465. Timeout bounds the
// whole exchange, dial included.
type SMTPMailer struct {
	Host    string
	Port    int
	From    string
	User    string
	Pass    string
	UseTLS  bool
	Timeout time.Duration
}

func NewSMTPMailer(host string, port int, from, user, pass string, useTLS bool) *SMTPMailer {
	return &SMTPMailer{
		Host:    strings.TrimSpace(host),
		Port:    port,
		From:    strings.TrimSpace(from),
		User:    strings.TrimSpace(user),
		Pass:    strings.TrimSpace(pass),
		UseTLS:  useTLS,
		Timeout: defaultSMTPTimeout,
	}
}

func (s *SMTPMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return "", errors.New("empty recipient email")
	}

	id := uuid.NewString()
	msg := s.buildMessage(id, toEmail, toName, subject, text, html)
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}

	if err := s.deliver(addr, auth, toEmail, msg); err != nil {
		return "", fmt.Errorf("smtp send failed: %w", err)
	}
	return id, nil
}

func (s *SMTPMailer) buildMessage(id, toEmail, toName, subject, text, html string) []byte {
	boundary := "lifesave-" + strings.ReplaceAll(id, "-", "")
	to := (&mail.Address{Name: toName, Address: toEmail}).String()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.From)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Message-ID: <%s@%s>\r\n", id, s.Host)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	for _, part := range []struct{ ctype, body string }{
		{"text/plain", text},
		{"text/html", html},
	} {
		if strings.TrimSpace(part.body) == "" {
			continue
		}
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s; charset=utf-8\r\n\r\n", part.ctype)
		fmt.Fprintf(&buf, "%s\r\n\r\n", part.body)
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}

func (s *SMTPMailer) deliver(addr string, auth smtp.Auth, toEmail string, msg []byte) error {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}

	conn, err := (&net.Dialer{Timeout: timeout}).Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}

	tlsConfig := &tls.Config{ServerName: s.Host}
	if s.UseTLS {
		conn = tls.Client(conn, tlsConfig)
	}

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		return err
	}
	defer c.Close()

	if !s.UseTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				return err
			}
		}
	}
	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(s.From); err != nil {
		return err
	}
	if err := c.Rcpt(toEmail); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

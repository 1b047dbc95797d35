package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Mailer sends plain-text email.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	from string
}

// NewSMTPMailer creates a Mailer talking to host:port.
func NewSMTPMailer(host string, port int, from string) *SMTPMailer {
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
	}
}

// Send delivers a single message.
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg)); err != nil {
		log.Error().Err(err).Str("to", to).Msg("Failed to send email")
		return err
	}
	log.Info().Str("to", to).Str("subject", subject).Msg("Email sent")
	return nil
}

// LogMailer writes mail to the log instead of delivering it. Used in
// development and tests when no SMTP host is configured.
type LogMailer struct{}

// Send logs the message.
func (m *LogMailer) Send(to, subject, body string) error {
	log.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("Email (log only)")
	return nil
}

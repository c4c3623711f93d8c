package services

import (
	"fmt"
	"net/smtp"
	"os"

	"github.com/rs/zerolog"
)

// Mailer sends plain-text email over SMTP. When the SMTP environment is not
// configured it silently skips sends, so development setups work without an
// email account.
type Mailer struct {
	host     string
	port     string
	from     string
	password string
	log      *zerolog.Logger
}

func NewMailerFromEnv(log *zerolog.Logger) *Mailer {
	return &Mailer{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		from:     os.Getenv("SMTP_FROM"),
		password: os.Getenv("SMTP_PASSWORD"),
		log:      log,
	}
}

func (m *Mailer) configured() bool {
	return m.host != "" && m.port != "" && m.from != ""
}

func (m *Mailer) Send(recipient, subject, body string) error {
	if !m.configured() {
		m.log.Debug().Str("to", recipient).Str("subject", subject).Msg("smtp not configured, skipping email")
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.from, recipient, subject, body,
	)

	addr := m.host + ":" + m.port
	auth := smtp.PlainAuth("", m.from, m.password, m.host)

	if err := smtp.SendMail(addr, auth, m.from, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("to", recipient).Str("subject", subject).Msg("email sent")
	return nil
}

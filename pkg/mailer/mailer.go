package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/buildlink/crm-api/pkg/config"
)

// Mailer delivers plain-text email through SMTP.
type Mailer struct {
	cfg config.SMTPConfig
}

// New constructs a Mailer from SMTP configuration.
func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether the SMTP channel is configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.cfg.Enabled && m.cfg.Host != ""
}

// Send delivers a single message to the recipient address.
func (m *Mailer) Send(to, subject, body string) error {
	if !m.Enabled() {
		return fmt.Errorf("smtp channel disabled")
	}
	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// internal/app/system/mailer/mailer.go
package mailer

import (
	"errors"
	"fmt"
	"net/mail"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// ErrNoRecipient is returned when an Email has no To address.
var ErrNoRecipient = errors.New("mailer: email has no recipient")

// Email is a single outgoing message. HTMLBody is optional; when present it
// is sent as an alternative to TextBody.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds SMTP settings.
type Config struct {
	Host     string // e.g., localhost for Mailpit, email-smtp.us-east-1.amazonaws.com for SES
	Port     int    // e.g., 1025 for Mailpit, 587 for SES
	Username string // empty for unauthenticated relays
	Password string
	From     string // From email address
	FromName string // From display name
}

// dialer is the part of gomail.Dialer the Mailer uses.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends Email values over SMTP.
type Mailer struct {
	cfg Config
	d   dialer
	log *zap.Logger
}

// New builds a Mailer for cfg.
func New(cfg Config, logger *zap.Logger) *Mailer {
	return &Mailer{
		cfg: cfg,
		d:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		log: logger,
	}
}

// Send delivers e. A new SMTP connection is opened per message.
func (m *Mailer) Send(e Email) error {
	if e.To == "" {
		return ErrNoRecipient
	}
	msg := m.buildMessage(e)
	if err := m.d.DialAndSend(msg); err != nil {
		m.log.Warn("smtp send failed",
			zap.String("to", e.To),
			zap.String("host", m.cfg.Host),
			zap.Error(err))
		return fmt.Errorf("send mail to %s: %w", e.To, err)
	}
	m.log.Debug("mail sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}

func (m *Mailer) buildMessage(e Email) *gomail.Message {
	msg := gomail.NewMessage()
	from := (&mail.Address{Name: m.cfg.FromName, Address: m.cfg.From}).String()
	msg.SetHeader("From", from)
	msg.SetHeader("To", e.To)
	msg.SetHeader("Subject", e.Subject)
	msg.SetBody("text/plain", e.TextBody)
	if e.HTMLBody != "" {
		msg.AddAlternative("text/html", e.HTMLBody)
	}
	return msg
}

// Package notify delivers best-effort business emails.
package notify

import (
	"context"
	"errors"
	"fmt"

	"freelancedesk/internal/config"
	"freelancedesk/internal/log"
)

// Message is a rendered email.
type Message struct {
	To      string
	ToName  string
	ReplyTo string
	Subject string
	HTML    string
}

// Mailer sends one message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNoRecipient = errors.New("message has no recipient")

// New picks the mailer configured by MAIL_PROVIDER.
func New(cfg *config.Config, logger *log.Logger) (Mailer, error) {
	switch cfg.MailProvider {
	case "", "log":
		return NewLogMailer(logger), nil
	case "smtp":
		return NewSMTPMailer(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}), nil
	case "resend":
		return NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.MailProvider)
	}
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger *log.Logger
}

func NewLogMailer(logger *log.Logger) *LogMailer {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentNotify})
	}
	return &LogMailer{logger: logger.WithComponent(log.ComponentNotify)}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	m.logger.InfoContext(ctx, "Email not sent, log provider active",
		"to", msg.To,
		"subject", msg.Subject)
	return nil
}

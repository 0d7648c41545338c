package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/NICOLA-200/pms-restful/pkg/config"
	"github.com/NICOLA-200/pms-restful/pkg/logger"
	"gopkg.in/gomail.v2"
)

// Sender is the outbound mail surface used by the notification worker.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers mail over SMTP via gomail.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logg   *logger.Logger
}

// New builds an SMTP mailer from configuration.
func New(cfg config.SMTPConfig, logg *logger.Logger) (*Mailer, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logg:   logg,
	}, nil
}

// Send delivers the message, honoring context cancellation before dialing.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient is required")
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", m.from)
	mail.SetHeader("To", msg.To)
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/html", msg.HTML)

	if err := m.dialer.DialAndSend(mail); err != nil {
		return fmt.Errorf("sending mail to %s: %w", msg.To, err)
	}
	if m.logg != nil {
		logCtx := m.logg.WithField(ctx, "recipient", msg.To)
		m.logg.Info(logCtx, "email delivered")
	}
	return nil
}

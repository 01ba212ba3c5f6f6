package mail

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Config SMTP settings, an empty host disables sending
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

// Message outgoing e-mail
type Message struct {
	To        string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer SMTP sender
type Mailer struct {
	config Config
	dialer *gomail.Dialer
	logger *zap.Logger
}

// NewMailer creates a mailer
func NewMailer(config Config, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Mailer{config: config, logger: logger}
	if config.Host != "" {
		m.dialer = gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	}
	return m
}

// Enabled reports whether an SMTP host is configured
func (m *Mailer) Enabled() bool {
	return m.dialer != nil
}

// Send delivers msg; without SMTP configuration the message is only logged.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if !m.Enabled() {
		m.logger.Info("smtp not configured, e-mail skipped", zap.String("to", msg.To), zap.String("subject", msg.Subject))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	if m.config.FromName != "" {
		gm.SetAddressHeader("From", m.config.FromAddress, m.config.FromName)
	} else {
		gm.SetHeader("From", m.config.FromAddress)
	}
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.PlainBody)
	if msg.HTMLBody != "" {
		gm.AddAlternative("text/html", msg.HTMLBody)
	}

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	m.logger.Info("e-mail sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

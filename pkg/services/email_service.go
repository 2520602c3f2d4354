package services

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/go-mail/mail/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EmailConfig configures SMTP delivery
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Sender   string
	Enabled  bool
}

// dialer opens an SMTP connection that can carry several messages
type dialer interface {
	Dial() (mail.SendCloser, error)
}

// EmailService sends plain-text messages to customers over SMTP
type EmailService struct {
	dialer  dialer
	from    string
	enabled bool
	logger  *logrus.Logger
}

// NewEmailService builds the SMTP dialer. Delivery is skipped when disabled.
func NewEmailService(cfg EmailConfig, logger *logrus.Logger) *EmailService {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	from := cfg.Sender
	if from == "" {
		from = cfg.User
	}
	return &EmailService{dialer: d, from: from, enabled: cfg.Enabled, logger: logger}
}

// Enabled reports whether messages are actually delivered
func (s *EmailService) Enabled() bool {
	return s.enabled
}

// Send delivers one message
func (s *EmailService) Send(ctx context.Context, to, subject, body string) error {
	failed, err := s.SendAll(ctx, []string{to}, subject, body)
	if err != nil {
		return err
	}
	return failed[to]
}

// SendAll delivers the same message to every recipient over a single SMTP
// connection. Per-recipient failures are returned keyed by address; the error
// is set only when nothing could be sent.
func (s *EmailService) SendAll(ctx context.Context, to []string, subject, body string) (map[string]error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	failed := make(map[string]error)
	if !s.enabled {
		s.logger.WithField("recipients", len(to)).Warn("Email sending is disabled")
		return failed, nil
	}
	if len(to) == 0 {
		return failed, nil
	}

	conn, err := s.dialer.Dial()
	if err != nil {
		s.logger.WithError(err).Error("Failed to connect to SMTP server")
		return nil, fmt.Errorf("smtp dial: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			s.logger.WithError(cerr).Warn("Closing SMTP connection failed")
		}
	}()

	for _, addr := range to {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		if err := mail.Send(conn, s.message(addr, subject, body)); err != nil {
			s.logger.WithError(err).WithField("to", addr).Error("Failed to send email")
			failed[addr] = fmt.Errorf("send email to %s: %w", addr, err)
			continue
		}
		s.logger.WithField("to", addr).Info("Email sent")
	}
	return failed, nil
}

func (s *EmailService) message(to, subject, body string) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-ID", fmt.Sprintf("<%s@merchant-chat-api>", uuid.NewString()))
	m.SetBody("text/plain", body)
	return m
}

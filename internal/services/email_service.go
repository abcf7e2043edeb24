package services

import (
	"context"
	"fmt"
	"net/smtp"

	"pathgo/internal/config"
)

// EmailService delivers transactional mail (login codes, receipts).
type EmailService interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type smtpEmailService struct {
	config *config.SMTPConfig
}

func NewEmailService(config *config.SMTPConfig) EmailService {
	return &smtpEmailService{config: config}
}

func (s *smtpEmailService) SendEmail(ctx context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s\r\n",
		s.config.FromName, s.config.FromEmail, to, subject, body))

	if err := smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/spikeapp/spike-server/internal/config"
	appErr "github.com/spikeapp/spike-server/internal/pkg/errors"
)

// EmailSender delivers transactional mail. Resend is the default provider;
// SMTP remains available for self-hosted deployments.
type EmailSender interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

func NewEmailSender(cfg config.MailConfig) EmailSender {
	from := fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
	if cfg.Provider == "smtp" {
		return &smtpSender{cfg: cfg.SMTP, from: from, fromEmail: cfg.FromEmail}
	}
	return &resendSender{client: resend.NewClient(cfg.APIKey), from: from}
}

type resendSender struct {
	client *resend.Client
	from   string
}

func (s *resendSender) Send(ctx context.Context, to, subject, html, text string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
		Text:    text,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	return err
}

type smtpSender struct {
	cfg       config.SMTPConfig
	from      string
	fromEmail string
}

func (s *smtpSender) Send(ctx context.Context, to, subject, html, text string) error {
	if s.cfg.Host == "" || s.cfg.Port == 0 {
		return appErr.ErrInternal
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	body := html
	contentType := "text/html"
	if strings.TrimSpace(body) == "" {
		body = text
		contentType = "text/plain"
	}
	msg := []byte("From: " + s.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: " + contentType + "; charset=UTF-8\r\n" +
		"\r\n" + body)
	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg)
}

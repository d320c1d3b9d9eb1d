// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/canonical/invitation-service/internal/logging"
	"github.com/canonical/invitation-service/internal/monitoring"
	"github.com/canonical/invitation-service/internal/tracing"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

var _ EmailSenderInterface = (*SMTPSender)(nil)

// SMTPSender sends mail over plain SMTP with PLAIN auth.
type SMTPSender struct {
	cfg Config

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewSMTPSender(cfg Config, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *SMTPSender {
	s := new(SMTPSender)

	s.cfg = cfg

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	_, span := s.tracer.Start(ctx, "mail.SMTPSender.Send")
	defer span.End()

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	if err := smtp.SendMail(s.addr(), auth, s.cfg.From, []string{to}, message(s.cfg.From, to, subject, body)); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}

func (s *SMTPSender) addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

func message(from, to, subject, body string) []byte {
	headers := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n",
		from, to, subject,
	)
	return []byte(headers + body)
}

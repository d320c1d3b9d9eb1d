// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"golang.org/x/oauth2"

	"github.com/canonical/invitation-service/internal/logging"
	"github.com/canonical/invitation-service/internal/monitoring"
	"github.com/canonical/invitation-service/internal/tracing"
)

const googleTokenURL = "https://oauth2.googleapis.com/token"

type GmailConfig struct {
	Host         string
	Port         int
	Username     string
	From         string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

var _ EmailSenderInterface = (*GmailSender)(nil)

// GmailSender authenticates against Gmail SMTP with XOAUTH2, refreshing the
// access token through the standard OAuth2 refresh-token flow.
type GmailSender struct {
	cfg    GmailConfig
	tokens oauth2.TokenSource

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewGmailSender(cfg GmailConfig, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *GmailSender {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: googleTokenURL},
	}

	s := new(GmailSender)

	s.cfg = cfg
	// TokenSource caches the access token and refreshes it when expired.
	s.tokens = conf.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}

func (s *GmailSender) Send(ctx context.Context, to, subject, body string) error {
	_, span := s.tracer.Start(ctx, "mail.GmailSender.Send")
	defer span.End()

	token, err := s.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to obtain access token: %w", err)
	}

	auth := &xoauth2Auth{username: s.cfg.Username, token: token.AccessToken}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, message(s.cfg.From, to, subject, body)); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}

// xoauth2Auth implements the SASL XOAUTH2 mechanism used by Gmail.
type xoauth2Auth struct {
	username string
	token    string
}

func (a *xoauth2Auth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS {
		return "", nil, fmt.Errorf("xoauth2 requires a TLS connection")
	}
	resp := []byte("user=" + a.username + "\x01auth=Bearer " + a.token + "\x01\x01")
	return "XOAUTH2", resp, nil
}

func (a *xoauth2Auth) Next(fromServer []byte, more bool) ([]byte, error) {
	if more {
		// Server sent an error challenge, reply with an empty line to get
		// the final SMTP error back.
		return []byte(""), nil
	}
	return nil, nil
}

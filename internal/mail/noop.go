// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"context"

	"github.com/canonical/invitation-service/internal/logging"
)

var _ EmailSenderInterface = (*NoopSender)(nil)

// NoopSender logs instead of sending, for local development and tests.
type NoopSender struct {
	logger logging.LoggerInterface
}

func NewNoopSender(logger logging.LoggerInterface) *NoopSender {
	return &NoopSender{logger: logger}
}

func (s *NoopSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.Infof("mail disabled, would send %q to %s", subject, to)
	return nil
}

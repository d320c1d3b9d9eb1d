// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/canonical/invitation-service/internal/logging"
	"github.com/canonical/invitation-service/internal/monitoring"
	"github.com/canonical/invitation-service/internal/storage"
	"github.com/canonical/invitation-service/internal/tracing"
	"github.com/canonical/invitation-service/internal/types"
)

// maxErrorMessageLen bounds the stored dispatch error message.
const maxErrorMessageLen = 250

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage  StorageInterface
	lifetime time.Duration

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	lifetime time.Duration,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:  storage,
		lifetime: lifetime,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

// GetByToken resolves an acceptance token. Expiry is reconciled lazily: an
// invitation past its expiry timestamp is written back as expired before it
// is returned.
func (s *Service) GetByToken(ctx context.Context, token string) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.GetByToken")
	defer span.End()

	inv, err := s.storage.GetInvitationByToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	if inv.Status != types.StatusExpired && inv.IsExpired(time.Now().UTC()) {
		if err := s.storage.MarkExpired(ctx, inv.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Errorf("failed to reconcile expired invitation %s: %v", inv.ID, err)
		}
		inv.Status = types.StatusExpired
	}

	return inv, nil
}

// Accept consumes an acceptance link: the token must resolve to a sent,
// unexpired invitation and the password must meet the strength policy.
func (s *Service) Accept(ctx context.Context, token, password string) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.Accept")
	defer span.End()

	inv, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if inv.Status == types.StatusUsed {
		return nil, ErrAlreadyUsed
	}
	if inv.Status == types.StatusExpired {
		s.logger.Security().InvitationExpiredAccess(inv.ID)
		return nil, ErrExpired
	}
	if !IsStrongPassword(password) {
		return nil, ErrWeakPassword
	}

	if err := s.MarkUsed(ctx, inv.ID); err != nil {
		return nil, err
	}

	s.logger.Security().InvitationAccepted(inv.ID)

	used, err := s.storage.GetInvitationByID(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload invitation: %w", err)
	}
	return used, nil
}

// MarkSent is valid only from PENDING or FAILED. It records the sent
// timestamp and clears any previous dispatch error.
func (s *Service) MarkSent(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.MarkSent")
	defer span.End()

	inv, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if inv.Status != types.StatusPending && inv.Status != types.StatusFailed {
		return ErrInvalidTransition
	}

	if err := s.storage.MarkSent(ctx, id, time.Now().UTC()); err != nil {
		// The guarded update lost a race with a concurrent transition.
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidTransition
		}
		return fmt.Errorf("failed to mark invitation sent: %w", err)
	}

	return nil
}

// MarkFailed is valid from any non-terminal state. The message is truncated
// before storing.
func (s *Service) MarkFailed(ctx context.Context, id, message string) error {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.MarkFailed")
	defer span.End()

	inv, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if inv.Status.Terminal() {
		return ErrInvalidTransition
	}

	if err := s.storage.MarkFailed(ctx, id, truncate(message, maxErrorMessageLen)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidTransition
		}
		return fmt.Errorf("failed to mark invitation failed: %w", err)
	}

	return nil
}

// MarkUsed is valid only from SENT. Calling it on an already used or expired
// invitation fails with ErrInvalidTransition.
func (s *Service) MarkUsed(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.MarkUsed")
	defer span.End()

	inv, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if inv.IsExpired(now) {
		if err := s.storage.MarkExpired(ctx, inv.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Errorf("failed to reconcile expired invitation %s: %v", inv.ID, err)
		}
		return ErrInvalidTransition
	}
	if inv.Status != types.StatusSent {
		return ErrInvalidTransition
	}

	if err := s.storage.MarkUsed(ctx, id, now); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidTransition
		}
		return fmt.Errorf("failed to mark invitation used: %w", err)
	}

	return nil
}

func (s *Service) ListByInstitution(ctx context.Context, institutionID string, page, size int64) ([]*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.ListByInstitution")
	defer span.End()

	invitations, err := s.storage.ListInvitationsByInstitution(ctx, institutionID, page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	return invitations, nil
}

func (s *Service) get(ctx context.Context, id string) (*types.Invitation, error) {
	inv, err := s.storage.GetInvitationByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

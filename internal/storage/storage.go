// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/canonical/invitation-service/internal/db"
	"github.com/canonical/invitation-service/internal/logging"
	"github.com/canonical/invitation-service/internal/monitoring"
	"github.com/canonical/invitation-service/internal/tracing"
	"github.com/canonical/invitation-service/internal/types"
)

// tokenInsertRetries bounds the retry loop on token unique-constraint collisions.
const tokenInsertRetries = 3

var invitationColumns = []string{
	"id", "institution_id", "email", "first_name", "last_name",
	"filiere", "level", "academic_year", "status", "token",
	"expires_at", "sent_at", "used_at", "error_message", "created_at",
}

var _ StorageInterface = (*Storage)(nil)

type Storage struct {
	db db.DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func NewStorage(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}

// CreateInvitation inserts a new pending invitation, generating its ID and
// token. Token collisions are resolved by regenerating and retrying, the
// unique index makes the insert strict under concurrent uploads.
func (s *Storage) CreateInvitation(ctx context.Context, inv *types.Invitation) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateInvitation")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invitation ID: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < tokenInsertRetries; attempt++ {
		token, err := NewToken()
		if err != nil {
			return nil, err
		}

		var created types.Invitation
		err = s.db.Statement(ctx).
			Insert("invitations").
			Columns("id", "institution_id", "email", "first_name", "last_name",
				"filiere", "level", "academic_year", "status", "token", "expires_at").
			Values(id.String(), inv.InstitutionID, inv.Email, inv.FirstName, inv.LastName,
				inv.Filiere, inv.Level, inv.AcademicYear, types.StatusPending, token, inv.ExpiresAt).
			Suffix("RETURNING " + columnList()).
			QueryRowContext(ctx).
			Scan(scanTargets(&created)...)

		if err == nil {
			return &created, nil
		}
		if !IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to insert invitation: %w", err)
		}

		s.logger.Warnf("invitation token collision on attempt %d, regenerating", attempt+1)
		lastErr = err
	}

	return nil, WrapDuplicateKeyError(lastErr, "exhausted token collision retries")
}

func (s *Storage) GetInvitationByID(ctx context.Context, id string) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetInvitationByID")
	defer span.End()

	return s.getInvitation(ctx, sq.Eq{"id": id})
}

func (s *Storage) GetInvitationByToken(ctx context.Context, token string) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetInvitationByToken")
	defer span.End()

	return s.getInvitation(ctx, sq.Eq{"token": token})
}

func (s *Storage) getInvitation(ctx context.Context, pred sq.Eq) (*types.Invitation, error) {
	var inv types.Invitation
	err := s.db.Statement(ctx).
		Select(invitationColumns...).
		From("invitations").
		Where(pred).
		QueryRowContext(ctx).
		Scan(scanTargets(&inv)...)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return &inv, nil
}

func (s *Storage) ListInvitationsByInstitution(ctx context.Context, institutionID string, page, size int64) ([]*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListInvitationsByInstitution")
	defer span.End()

	pageSize := db.PageSize(size)
	query := s.db.Statement(ctx).
		Select(invitationColumns...).
		From("invitations").
		Where(sq.Eq{"institution_id": institutionID}).
		OrderBy("created_at DESC").
		Offset(db.Offset(page, pageSize)).
		Limit(pageSize)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*types.Invitation
	for rows.Next() {
		var inv types.Invitation
		if err := rows.Scan(scanTargets(&inv)...); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, &inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invitation rows: %w", err)
	}

	return invitations, nil
}

// HasLiveInvitation reports whether a non-used, non-expired invitation already
// exists for the (email, institution) pair. Email comparison is case-insensitive.
func (s *Storage) HasLiveInvitation(ctx context.Context, email, institutionID string, now time.Time) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "storage.HasLiveInvitation")
	defer span.End()

	var count int
	err := s.db.Statement(ctx).
		Select("COUNT(1)").
		From("invitations").
		Where(sq.Eq{"institution_id": institutionID}).
		Where("LOWER(email) = LOWER(?)", email).
		Where(sq.NotEq{"status": []types.InvitationStatus{types.StatusUsed, types.StatusExpired}}).
		Where(sq.Gt{"expires_at": now}).
		QueryRowContext(ctx).
		Scan(&count)

	if err != nil {
		return false, fmt.Errorf("failed to check live invitations: %w", err)
	}

	return count > 0, nil
}

// MarkSent persists the sent transition: status, sent_at and a cleared error
// message only, nothing else on the row is touched. The status guard makes
// the transition atomic, a row in the wrong state yields ErrNotFound.
func (s *Storage) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	ctx, span := s.tracer.Start(ctx, "storage.MarkSent")
	defer span.End()

	return s.transition(ctx, id,
		map[string]interface{}{
			"status":        types.StatusSent,
			"sent_at":       sentAt,
			"error_message": "",
		},
		[]types.InvitationStatus{types.StatusPending, types.StatusFailed},
	)
}

func (s *Storage) MarkFailed(ctx context.Context, id, message string) error {
	ctx, span := s.tracer.Start(ctx, "storage.MarkFailed")
	defer span.End()

	return s.transition(ctx, id,
		map[string]interface{}{
			"status":        types.StatusFailed,
			"error_message": message,
		},
		[]types.InvitationStatus{types.StatusPending, types.StatusSent, types.StatusFailed},
	)
}

func (s *Storage) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	ctx, span := s.tracer.Start(ctx, "storage.MarkUsed")
	defer span.End()

	return s.transition(ctx, id,
		map[string]interface{}{
			"status":  types.StatusUsed,
			"used_at": usedAt,
		},
		[]types.InvitationStatus{types.StatusSent},
	)
}

// MarkExpired reconciles the stored status with the expiry predicate. It is
// written lazily when an expired invitation is accessed.
func (s *Storage) MarkExpired(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.MarkExpired")
	defer span.End()

	return s.transition(ctx, id,
		map[string]interface{}{
			"status": types.StatusExpired,
		},
		[]types.InvitationStatus{types.StatusPending, types.StatusSent, types.StatusFailed},
	)
}

func (s *Storage) transition(ctx context.Context, id string, set map[string]interface{}, from []types.InvitationStatus) error {
	res, err := s.db.Statement(ctx).
		Update("invitations").
		SetMap(set).
		Where(sq.Eq{"id": id, "status": from}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func columnList() string {
	list := invitationColumns[0]
	for _, c := range invitationColumns[1:] {
		list += ", " + c
	}
	return list
}

func scanTargets(inv *types.Invitation) []interface{} {
	return []interface{}{
		&inv.ID, &inv.InstitutionID, &inv.Email, &inv.FirstName, &inv.LastName,
		&inv.Filiere, &inv.Level, &inv.AcademicYear, &inv.Status, &inv.Token,
		&inv.ExpiresAt, &inv.SentAt, &inv.UsedAt, &inv.ErrorMessage, &inv.CreatedAt,
	}
}

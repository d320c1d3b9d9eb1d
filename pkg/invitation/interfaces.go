// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"time"

	"github.com/canonical/invitation-service/internal/types"
)

type ServiceInterface interface {
	BulkInvite(ctx context.Context, institutionID string, rows []types.CsvRow) (*BulkReport, error)
	GetByToken(ctx context.Context, token string) (*types.Invitation, error)
	Accept(ctx context.Context, token, password string) (*types.Invitation, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, message string) error
	MarkUsed(ctx context.Context, id string) error
	ListByInstitution(ctx context.Context, institutionID string, page, size int64) ([]*types.Invitation, error)
}

// IngestorInterface parses an uploaded CSV file into rows.
type IngestorInterface interface {
	Ingest(ctx context.Context, raw []byte) ([]types.CsvRow, error)
}

// DispatcherInterface sends acceptance emails for freshly created
// invitations and records the outcome on each one.
type DispatcherInterface interface {
	Dispatch(ctx context.Context, invitations []*types.Invitation)
}

// StorageInterface is the subset of the internal storage interface this
// package depends on.
type StorageInterface interface {
	CreateInvitation(ctx context.Context, inv *types.Invitation) (*types.Invitation, error)
	GetInvitationByID(ctx context.Context, id string) (*types.Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (*types.Invitation, error)
	ListInvitationsByInstitution(ctx context.Context, institutionID string, page, size int64) ([]*types.Invitation, error)
	HasLiveInvitation(ctx context.Context, email, institutionID string, now time.Time) (bool, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id, message string) error
	MarkUsed(ctx context.Context, id string, usedAt time.Time) error
	MarkExpired(ctx context.Context, id string) error
}

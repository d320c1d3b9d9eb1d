// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"time"

	"github.com/canonical/invitation-service/internal/types"
)

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

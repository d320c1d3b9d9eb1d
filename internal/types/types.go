// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

type InvitationStatus string

const (
	StatusPending InvitationStatus = "pending"
	StatusSent    InvitationStatus = "sent"
	StatusFailed  InvitationStatus = "failed"
	StatusUsed    InvitationStatus = "used"
	StatusExpired InvitationStatus = "expired"
)

// Terminal reports whether no further lifecycle transition is allowed.
func (s InvitationStatus) Terminal() bool {
	return s == StatusUsed || s == StatusExpired
}

type Invitation struct {
	ID            string           `db:"id"`
	InstitutionID string           `db:"institution_id"`
	Email         string           `db:"email"`
	FirstName     string           `db:"first_name"`
	LastName      string           `db:"last_name"`
	Filiere       string           `db:"filiere"`
	Level         string           `db:"level"`
	AcademicYear  string           `db:"academic_year"`
	Status        InvitationStatus `db:"status"`
	Token         string           `db:"token"`
	ExpiresAt     time.Time        `db:"expires_at"`
	SentAt        *time.Time       `db:"sent_at"`
	UsedAt        *time.Time       `db:"used_at"`
	ErrorMessage  string           `db:"error_message"`
	CreatedAt     time.Time        `db:"created_at"`
}

// IsExpired is the read-side expiry predicate. The stored status may lag
// reality, callers consulting Status directly must also check this.
func (i *Invitation) IsExpired(now time.Time) bool {
	if i.Status == StatusUsed {
		return false
	}
	return !now.Before(i.ExpiresAt)
}

// CsvRow is a normalized record from an uploaded file: lower-cased, trimmed
// column names mapped to trimmed cell values. Never persisted.
type CsvRow map[string]string

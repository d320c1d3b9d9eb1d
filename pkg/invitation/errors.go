// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"errors"
)

var (
	// ErrNotFound means no invitation matches the given ID or token.
	ErrNotFound = errors.New("invitation not found")
	// ErrInvalidTransition signals lifecycle misuse, an internal invariant
	// violation rather than a user-facing error.
	ErrInvalidTransition = errors.New("invalid invitation state transition")
	// ErrExpired means the invitation's expiry timestamp has passed.
	ErrExpired = errors.New("invitation has expired")
	// ErrAlreadyUsed means the acceptance link was already consumed.
	ErrAlreadyUsed = errors.New("invitation has already been used")
	// ErrWeakPassword means the chosen password fails the strength policy.
	ErrWeakPassword = errors.New("password must be at least 8 characters with an uppercase letter, a lowercase letter and a special character")
)

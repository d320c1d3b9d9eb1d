// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"unicode"
)

// IsStrongPassword enforces the acceptance password policy: at least 8
// characters, one uppercase, one lowercase and one non-word character.
func IsStrongPassword(password string) bool {
	if len([]rune(password)) < 8 {
		return false
	}

	var upper, lower, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_':
			special = true
		}
	}

	return upper && lower && special
}

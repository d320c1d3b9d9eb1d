// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"strings"
	"testing"
)

func TestNewToken(t *testing.T) {
	token, err := NewToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(token) != 43 {
		t.Errorf("expected 43 characters, got %d", len(token))
	}
	if len(token) > 64 {
		t.Errorf("token exceeds the column limit: %d", len(token))
	}
	if strings.ContainsAny(token, "+/=") {
		t.Errorf("token is not URL safe: %s", token)
	}
}

func TestNewToken_Unique(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for n := 0; n < 10000; n++ {
		token, err := NewToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token after %d iterations", n)
		}
		seen[token] = true
	}
}

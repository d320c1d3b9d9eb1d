// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package dispatch

import (
	"context"
)

// LifecycleInterface is the slice of the invitation service used to record
// dispatch outcomes.
type LifecycleInterface interface {
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, message string) error
}

// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"context"
)

type EmailSenderInterface interface {
	Send(ctx context.Context, to, subject, body string) error
}

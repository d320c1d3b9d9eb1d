// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"context"
	"net/http"

	"github.com/canonical/invitation-service/internal/logging"
	"github.com/canonical/invitation-service/internal/monitoring"
	"github.com/canonical/invitation-service/internal/tracing"
)

const (
	// HeaderName carries the authenticated institution ID, set by the
	// authenticating proxy in front of this service.
	HeaderName = "X-Authenticated-Institution-Id"
)

type contextKey struct{}

var institutionContextKey contextKey

type Middleware struct {
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewMiddleware(tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (m *Middleware) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.Start(r.Context(), "identity.Middleware.HTTPMiddleware")
		defer span.End()

		institutionID := r.Header.Get(HeaderName)

		ctx = context.WithValue(ctx, institutionContextKey, institutionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetInstitutionID extracts the authenticated institution from the context.
func GetInstitutionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(institutionContextKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// ContextWithInstitutionID is used by tests and internal callers.
func ContextWithInstitutionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, institutionContextKey, id)
}

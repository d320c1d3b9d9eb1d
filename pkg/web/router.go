// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/canonical/invitation-service/internal/db"
	"github.com/canonical/invitation-service/internal/identity"
	"github.com/canonical/invitation-service/internal/logging"
	"github.com/canonical/invitation-service/internal/monitoring"
	"github.com/canonical/invitation-service/internal/tracing"
	"github.com/canonical/invitation-service/pkg/countries"
	"github.com/canonical/invitation-service/pkg/invitation"
	"github.com/canonical/invitation-service/pkg/metrics"
	"github.com/canonical/invitation-service/pkg/status"
)

func NewRouter(
	invitationAPI *invitation.API,
	identityMiddleware *identity.Middleware,
	dbClient db.DBClientInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS([]string{"*"}),
		identityMiddleware.HTTPMiddleware,
		db.TransactionMiddleware(dbClient, logger),
	)

	router.Use(middlewares...)

	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(tracer, logger).RegisterEndpoints(router)
	countries.NewAPI(countries.Default(), tracer, logger).RegisterEndpoints(router)
	invitationAPI.RegisterEndpoints(router)

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}

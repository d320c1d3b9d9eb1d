// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package countries

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/invitation-service/internal/logging"
	"github.com/canonical/invitation-service/internal/tracing"
)

type API struct {
	index *Index

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func NewAPI(index *Index, tracer tracing.TracingInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.index = index
	a.tracer = tracer
	a.logger = logger

	return a
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Get("/api/v0/countries", a.handleLookup)
}

// handleLookup resolves a free-text location query to matching country codes.
func (a *API) handleLookup(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "countries.API.handleLookup")
	defer span.End()

	query := r.URL.Query().Get("q")

	codes := a.index.AllCodes()
	if query != "" {
		codes = a.index.Lookup(query)
	}
	if codes == nil {
		codes = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(map[string][]string{"codes": codes}); err != nil {
		a.logger.Errorf("failed to encode countries response: %v", err)
	}
}

// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/invitation-service/internal/identity"
	"github.com/canonical/invitation-service/internal/logging"
	"github.com/canonical/invitation-service/internal/monitoring"
	"github.com/canonical/invitation-service/internal/tracing"
	"github.com/canonical/invitation-service/pkg/csvimport"
)

const uploadFieldName = "csv_file"

type API struct {
	service    ServiceInterface
	ingestor   IngestorInterface
	dispatcher DispatcherInterface

	maxUploadBytes int64

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewAPI(
	service ServiceInterface,
	ingestor IngestorInterface,
	dispatcher DispatcherInterface,
	maxUploadBytes int64,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *API {
	a := new(API)

	a.service = service
	a.ingestor = ingestor
	a.dispatcher = dispatcher
	a.maxUploadBytes = maxUploadBytes
	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Post("/api/v0/invitations/upload", a.handleUpload)
	mux.Get("/api/v0/invitations/template", a.handleTemplate)
	mux.Get("/api/v0/invitations", a.handleList)
	mux.Post("/api/v0/invitations/accept/{token}", a.handleAccept)
}

func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invitation.API.handleUpload")
	defer span.End()

	institutionID, ok := identity.GetInstitutionID(ctx)
	if !ok {
		a.writeError(w, http.StatusUnauthorized, "missing institution identity")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes)
	if err := r.ParseMultipartForm(a.maxUploadBytes); err != nil {
		a.writeError(w, http.StatusBadRequest, fmt.Sprintf("the file must not exceed %d bytes", a.maxUploadBytes))
		return
	}

	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, fmt.Sprintf("missing file field %q", uploadFieldName))
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		a.writeError(w, http.StatusBadRequest, "the file must have a .csv extension")
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "could not read the uploaded file")
		return
	}

	rows, err := a.ingestor.Ingest(ctx, raw)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, ingestErrorMessage(err))
		return
	}

	report, err := a.service.BulkInvite(ctx, institutionID, rows)
	if err != nil {
		a.logger.Errorf("bulk invite failed: %v", err)
		a.writeError(w, http.StatusInternalServerError, "failed to process invitations")
		return
	}

	a.dispatcher.Dispatch(ctx, report.Created)

	a.writeJSON(w, http.StatusOK, report)
}

func (a *API) handleTemplate(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "invitation.API.handleTemplate")
	defer span.End()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="invitations_template.csv"`)
	w.WriteHeader(http.StatusOK)

	fmt.Fprintln(w, strings.Join(csvimport.RequiredColumns, ";"))
	fmt.Fprintln(w, "etudiant@example.com;Jean;Dupont;Informatique;L3;2026-2027")
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invitation.API.handleList")
	defer span.End()

	institutionID, ok := identity.GetInstitutionID(ctx)
	if !ok {
		a.writeError(w, http.StatusUnauthorized, "missing institution identity")
		return
	}

	page := queryInt64(r, "page", 1)
	size := queryInt64(r, "size", 50)

	invitations, err := a.service.ListByInstitution(ctx, institutionID, page, size)
	if err != nil {
		a.logger.Errorf("failed to list invitations: %v", err)
		a.writeError(w, http.StatusInternalServerError, "failed to list invitations")
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{"invitations": invitations})
}

type acceptRequest struct {
	Password string `json:"password"`
}

func (a *API) handleAccept(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invitation.API.handleAccept")
	defer span.End()

	token := chi.URLParam(r, "token")

	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := a.service.Accept(ctx, token, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			a.writeError(w, http.StatusNotFound, "invitation not found")
		case errors.Is(err, ErrAlreadyUsed):
			a.writeError(w, http.StatusConflict, ErrAlreadyUsed.Error())
		case errors.Is(err, ErrExpired):
			a.writeError(w, http.StatusGone, ErrExpired.Error())
		case errors.Is(err, ErrWeakPassword):
			a.writeError(w, http.StatusBadRequest, ErrWeakPassword.Error())
		default:
			a.logger.Errorf("failed to accept invitation: %v", err)
			a.writeError(w, http.StatusInternalServerError, "failed to accept invitation")
		}
		return
	}

	a.writeJSON(w, http.StatusOK, inv)
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Errorf("failed to encode response: %v", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, map[string]string{"error": message})
}

// ingestErrorMessage turns a file-level ingest failure into a message the
// uploader can act on.
func ingestErrorMessage(err error) string {
	var missing *csvimport.MissingColumnsError
	var tooMany *csvimport.TooManyRowsError

	switch {
	case errors.As(err, &missing):
		return fmt.Sprintf("the file is missing required columns: %s", strings.Join(missing.Columns, ", "))
	case errors.As(err, &tooMany):
		return fmt.Sprintf("the file has %d rows, the maximum is %d", tooMany.Count, tooMany.Limit)
	case errors.Is(err, csvimport.ErrEmptyFile):
		return "the file contains no data rows"
	case errors.Is(err, csvimport.ErrUnsupportedEncoding):
		return "the file encoding is not supported, save it as UTF-8"
	default:
		return fmt.Sprintf("could not parse the file: %v", err)
	}
}

func queryInt64(r *http.Request, name string, fallback int64) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

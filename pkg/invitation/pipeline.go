// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/canonical/invitation-service/internal/types"
)

const (
	OutcomeCreated         = "created"
	OutcomeInvalid         = "skipped_invalid"
	OutcomeDuplicateInFile = "skipped_duplicate_in_file"
	OutcomeAlreadyInvited  = "skipped_already_invited"
)

// requiredFields are the row columns that must carry a non-empty value for a
// row to produce an invitation.
var requiredFields = []string{"email", "prenom", "nom", "filiere_ou_parcours", "niveau", "annee_academique"}

// RowResult records the fate of a single CSV row. Line is 1-based and counts
// data rows, excluding the header.
type RowResult struct {
	Line         int    `json:"line"`
	Email        string `json:"email"`
	Outcome      string `json:"outcome"`
	Reason       string `json:"reason,omitempty"`
	InvitationID string `json:"invitation_id,omitempty"`
}

// BulkReport summarizes a bulk invite run. Counts is keyed by outcome.
type BulkReport struct {
	Results []RowResult         `json:"results"`
	Created []*types.Invitation `json:"-"`
	Counts  map[string]int      `json:"counts"`
}

var rowValidator = validator.New(validator.WithRequiredStructEnabled())

// BulkInvite turns parsed CSV rows into pending invitations. Row failures
// never abort the run, each row lands in the report with its outcome. Emails
// already seen earlier in the file, or already holding a live invitation for
// the institution, are skipped.
func (s *Service) BulkInvite(ctx context.Context, institutionID string, rows []types.CsvRow) (*BulkReport, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.BulkInvite")
	defer span.End()

	report := &BulkReport{
		Results: make([]RowResult, 0, len(rows)),
		Counts:  make(map[string]int),
	}

	now := time.Now().UTC()
	seen := make(map[string]bool, len(rows))

	for i, row := range rows {
		result := RowResult{Line: i + 1, Email: strings.TrimSpace(row["email"])}

		if reason := validateRow(row); reason != "" {
			result.Outcome = OutcomeInvalid
			result.Reason = reason
			s.record(report, result)
			continue
		}

		key := strings.ToLower(result.Email)
		if seen[key] {
			result.Outcome = OutcomeDuplicateInFile
			result.Reason = "email appears earlier in the file"
			s.record(report, result)
			continue
		}
		seen[key] = true

		live, err := s.storage.HasLiveInvitation(ctx, result.Email, institutionID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing invitations: %w", err)
		}
		if live {
			result.Outcome = OutcomeAlreadyInvited
			result.Reason = "a live invitation already exists for this email"
			s.record(report, result)
			continue
		}

		inv, err := s.storage.CreateInvitation(ctx, &types.Invitation{
			InstitutionID: institutionID,
			Email:         result.Email,
			FirstName:     strings.TrimSpace(row["prenom"]),
			LastName:      strings.TrimSpace(row["nom"]),
			Filiere:       strings.TrimSpace(row["filiere_ou_parcours"]),
			Level:         strings.TrimSpace(row["niveau"]),
			AcademicYear:  strings.TrimSpace(row["annee_academique"]),
			Status:        types.StatusPending,
			ExpiresAt:     now.Add(s.lifetime),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create invitation for row %d: %w", result.Line, err)
		}

		result.Outcome = OutcomeCreated
		result.InvitationID = inv.ID
		report.Created = append(report.Created, inv)
		s.record(report, result)
	}

	s.logger.Infof(
		"bulk invite for institution %s: %d created, %d skipped",
		institutionID, report.Counts[OutcomeCreated], len(rows)-report.Counts[OutcomeCreated],
	)

	return report, nil
}

func (s *Service) record(report *BulkReport, result RowResult) {
	report.Results = append(report.Results, result)
	report.Counts[result.Outcome]++
	s.monitor.CountRowOutcome(result.Outcome)
}

func validateRow(row types.CsvRow) string {
	for _, field := range requiredFields {
		if strings.TrimSpace(row[field]) == "" {
			return fmt.Sprintf("missing value for %q", field)
		}
	}
	if err := rowValidator.Var(strings.TrimSpace(row["email"]), "email"); err != nil {
		return "invalid email address"
	}
	return ""
}

// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/invitation-service/internal/types"
)

func validRow(email string) types.CsvRow {
	return types.CsvRow{
		"email":               email,
		"prenom":              "Jean",
		"nom":                 "Dupont",
		"filiere_ou_parcours": "Informatique",
		"niveau":              "L3",
		"annee_academique":    "2026-2027",
	}
}

func TestService_BulkInvite(t *testing.T) {
	institutionID := "inst-1"

	testCases := []struct {
		name           string
		rows           []types.CsvRow
		setupMocks     func(*MockStorageInterface, *MockMonitorInterface)
		expectedCounts map[string]int
	}{
		{
			name: "all rows created",
			rows: []types.CsvRow{validRow("a@example.com"), validRow("b@example.com")},
			setupMocks: func(mockStorage *MockStorageInterface, mockMonitor *MockMonitorInterface) {
				mockStorage.EXPECT().HasLiveInvitation(gomock.Any(), "a@example.com", institutionID, gomock.Any()).Return(false, nil)
				mockStorage.EXPECT().HasLiveInvitation(gomock.Any(), "b@example.com", institutionID, gomock.Any()).Return(false, nil)
				mockStorage.EXPECT().CreateInvitation(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, inv *types.Invitation) (*types.Invitation, error) {
						if inv.Status != types.StatusPending {
							t.Errorf("expected pending status, got %s", inv.Status)
						}
						if inv.InstitutionID != institutionID {
							t.Errorf("expected institution %s, got %s", institutionID, inv.InstitutionID)
						}
						if inv.ExpiresAt.IsZero() {
							t.Error("expected expiry to be set")
						}
						inv.ID = "inv-" + inv.Email
						return inv, nil
					}).Times(2)
				mockMonitor.EXPECT().CountRowOutcome(OutcomeCreated).Times(2)
			},
			expectedCounts: map[string]int{OutcomeCreated: 2},
		},
		{
			name: "duplicate email in file keeps first occurrence",
			rows: []types.CsvRow{validRow("a@example.com"), validRow("A@Example.COM")},
			setupMocks: func(mockStorage *MockStorageInterface, mockMonitor *MockMonitorInterface) {
				mockStorage.EXPECT().HasLiveInvitation(gomock.Any(), "a@example.com", institutionID, gomock.Any()).Return(false, nil)
				mockStorage.EXPECT().CreateInvitation(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, inv *types.Invitation) (*types.Invitation, error) {
						inv.ID = "inv-1"
						return inv, nil
					})
				mockMonitor.EXPECT().CountRowOutcome(OutcomeCreated)
				mockMonitor.EXPECT().CountRowOutcome(OutcomeDuplicateInFile)
			},
			expectedCounts: map[string]int{OutcomeCreated: 1, OutcomeDuplicateInFile: 1},
		},
		{
			name: "invalid email and missing field are skipped",
			rows: []types.CsvRow{
				validRow("not-an-email"),
				{
					"email":               "c@example.com",
					"prenom":              "",
					"nom":                 "Dupont",
					"filiere_ou_parcours": "Informatique",
					"niveau":              "L3",
					"annee_academique":    "2026-2027",
				},
			},
			setupMocks: func(mockStorage *MockStorageInterface, mockMonitor *MockMonitorInterface) {
				mockMonitor.EXPECT().CountRowOutcome(OutcomeInvalid).Times(2)
			},
			expectedCounts: map[string]int{OutcomeInvalid: 2},
		},
		{
			name: "live invitation already exists",
			rows: []types.CsvRow{validRow("a@example.com")},
			setupMocks: func(mockStorage *MockStorageInterface, mockMonitor *MockMonitorInterface) {
				mockStorage.EXPECT().HasLiveInvitation(gomock.Any(), "a@example.com", institutionID, gomock.Any()).Return(true, nil)
				mockMonitor.EXPECT().CountRowOutcome(OutcomeAlreadyInvited)
			},
			expectedCounts: map[string]int{OutcomeAlreadyInvited: 1},
		},
		{
			name: "mixed batch",
			rows: []types.CsvRow{
				validRow("a@example.com"),
				validRow("bad-email"),
				validRow("a@example.com"),
				validRow("b@example.com"),
			},
			setupMocks: func(mockStorage *MockStorageInterface, mockMonitor *MockMonitorInterface) {
				mockStorage.EXPECT().HasLiveInvitation(gomock.Any(), "a@example.com", institutionID, gomock.Any()).Return(false, nil)
				mockStorage.EXPECT().HasLiveInvitation(gomock.Any(), "b@example.com", institutionID, gomock.Any()).Return(true, nil)
				mockStorage.EXPECT().CreateInvitation(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, inv *types.Invitation) (*types.Invitation, error) {
						inv.ID = "inv-1"
						return inv, nil
					})
				mockMonitor.EXPECT().CountRowOutcome(OutcomeCreated)
				mockMonitor.EXPECT().CountRowOutcome(OutcomeInvalid)
				mockMonitor.EXPECT().CountRowOutcome(OutcomeDuplicateInFile)
				mockMonitor.EXPECT().CountRowOutcome(OutcomeAlreadyInvited)
			},
			expectedCounts: map[string]int{
				OutcomeCreated:         1,
				OutcomeInvalid:         1,
				OutcomeDuplicateInFile: 1,
				OutcomeAlreadyInvited:  1,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)

			s := NewService(mockStorage, testLifetime, mockTracer, mockMonitor, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "invitation.Service.BulkInvite").Return(context.Background(), trace.SpanFromContext(context.Background()))
			mockLogger.EXPECT().Infof(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())
			tc.setupMocks(mockStorage, mockMonitor)

			report, err := s.BulkInvite(context.Background(), institutionID, tc.rows)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(report.Results) != len(tc.rows) {
				t.Errorf("expected %d results, got %d", len(tc.rows), len(report.Results))
			}
			for outcome, count := range tc.expectedCounts {
				if report.Counts[outcome] != count {
					t.Errorf("expected %d %s rows, got %d", count, outcome, report.Counts[outcome])
				}
			}
			if len(report.Created) != tc.expectedCounts[OutcomeCreated] {
				t.Errorf("expected %d created invitations, got %d", tc.expectedCounts[OutcomeCreated], len(report.Created))
			}
		})
	}
}

// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/invitation-service/internal/logging"
	"github.com/canonical/invitation-service/internal/storage"
	"github.com/canonical/invitation-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package invitation -destination ./mock_invitation.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package invitation -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package invitation -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package invitation -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

const testLifetime = 168 * time.Hour

func pendingInvitation(id string) *types.Invitation {
	return &types.Invitation{
		ID:        id,
		Email:     "etudiant@example.com",
		Status:    types.StatusPending,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
}

func TestService_MarkSent(t *testing.T) {
	id := "inv-123"

	testCases := []struct {
		name        string
		setupMocks  func(*MockStorageInterface)
		expectedErr error
	}{
		{
			name: "success from pending",
			setupMocks: func(mockStorage *MockStorageInterface) {
				inv := pendingInvitation(id)
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), id).Return(inv, nil)
				mockStorage.EXPECT().MarkSent(gomock.Any(), id, gomock.Any()).Return(nil)
			},
			expectedErr: nil,
		},
		{
			name: "success from failed clears previous error",
			setupMocks: func(mockStorage *MockStorageInterface) {
				inv := pendingInvitation(id)
				inv.Status = types.StatusFailed
				inv.ErrorMessage = "smtp timeout"
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), id).Return(inv, nil)
				mockStorage.EXPECT().MarkSent(gomock.Any(), id, gomock.Any()).Return(nil)
			},
			expectedErr: nil,
		},
		{
			name: "invalid from sent",
			setupMocks: func(mockStorage *MockStorageInterface) {
				inv := pendingInvitation(id)
				inv.Status = types.StatusSent
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), id).Return(inv, nil)
			},
			expectedErr: ErrInvalidTransition,
		},
		{
			name: "invalid from used",
			setupMocks: func(mockStorage *MockStorageInterface) {
				inv := pendingInvitation(id)
				inv.Status = types.StatusUsed
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), id).Return(inv, nil)
			},
			expectedErr: ErrInvalidTransition,
		},
		{
			name: "not found",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), id).Return(nil, storage.ErrNotFound)
			},
			expectedErr: ErrNotFound,
		},
		{
			name: "lost race maps to invalid transition",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), id).Return(pendingInvitation(id), nil)
				mockStorage.EXPECT().MarkSent(gomock.Any(), id, gomock.Any()).Return(storage.ErrNotFound)
			},
			expectedErr: ErrInvalidTransition,
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

			mockTracer.EXPECT().Start(gomock.Any(), "invitation.Service.MarkSent").Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockStorage)

			err := s.MarkSent(context.Background(), id)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestService_MarkFailed(t *testing.T) {
	id := "inv-123"

	testCases := []struct {
		name        string
		message     string
		setupMocks  func(*MockStorageInterface)
		expectedErr error
	}{
		{
			name:    "success from pending",
			message: "smtp timeout",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), id).Return(pendingInvitation(id), nil)
				mockStorage.EXPECT().MarkFailed(gomock.Any(), id, "smtp timeout").Return(nil)
			},
			expectedErr: nil,
		},
		{
			name:    "long message is truncated",
			message: strings.Repeat("x", 400),
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), id).Return(pendingInvitation(id), nil)
				mockStorage.EXPECT().MarkFailed(gomock.Any(), id, strings.Repeat("x", 250)).Return(nil)
			},
			expectedErr: nil,
		},
		{
			name:    "invalid from used",
			message: "smtp timeout",
			setupMocks: func(mockStorage *MockStorageInterface) {
				inv := pendingInvitation(id)
				inv.Status = types.StatusUsed
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), id).Return(inv, nil)
			},
			expectedErr: ErrInvalidTransition,
		},
		{
			name:    "invalid from expired",
			message: "smtp timeout",
			setupMocks: func(mockStorage *MockStorageInterface) {
				inv := pendingInvitation(id)
				inv.Status = types.StatusExpired
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), id).Return(inv, nil)
			},
			expectedErr: ErrInvalidTransition,
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

			mockTracer.EXPECT().Start(gomock.Any(), "invitation.Service.MarkFailed").Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockStorage)

			err := s.MarkFailed(context.Background(), id, tc.message)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestService_MarkUsed(t *testing.T) {
	id := "inv-123"

	testCases := []struct {
		name        string
		setupMocks  func(*MockStorageInterface)
		expectedErr error
	}{
		{
			name: "success from sent",
			setupMocks: func(mockStorage *MockStorageInterface) {
				inv := pendingInvitation(id)
				inv.Status = types.StatusSent
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), id).Return(inv, nil)
				mockStorage.EXPECT().MarkUsed(gomock.Any(), id, gomock.Any()).Return(nil)
			},
			expectedErr: nil,
		},
		{
			name: "invalid from pending",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), id).Return(pendingInvitation(id), nil)
			},
			expectedErr: ErrInvalidTransition,
		},
		{
			name: "expired sent is reconciled and rejected",
			setupMocks: func(mockStorage *MockStorageInterface) {
				inv := pendingInvitation(id)
				inv.Status = types.StatusSent
				inv.ExpiresAt = time.Now().UTC().Add(-time.Hour)
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), id).Return(inv, nil)
				mockStorage.EXPECT().MarkExpired(gomock.Any(), id).Return(nil)
			},
			expectedErr: ErrInvalidTransition,
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

			mockTracer.EXPECT().Start(gomock.Any(), "invitation.Service.MarkUsed").Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockStorage)

			err := s.MarkUsed(context.Background(), id)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestService_GetByToken(t *testing.T) {
	token := "tok-abc"

	testCases := []struct {
		name           string
		setupMocks     func(*MockStorageInterface)
		expectedStatus types.InvitationStatus
		expectedErr    error
	}{
		{
			name: "live invitation returned as is",
			setupMocks: func(mockStorage *MockStorageInterface) {
				inv := pendingInvitation("inv-1")
				inv.Status = types.StatusSent
				inv.Token = token
				mockStorage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(inv, nil)
			},
			expectedStatus: types.StatusSent,
		},
		{
			name: "lapsed invitation is written back expired",
			setupMocks: func(mockStorage *MockStorageInterface) {
				inv := pendingInvitation("inv-1")
				inv.Status = types.StatusSent
				inv.Token = token
				inv.ExpiresAt = time.Now().UTC().Add(-time.Minute)
				mockStorage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(inv, nil)
				mockStorage.EXPECT().MarkExpired(gomock.Any(), "inv-1").Return(nil)
			},
			expectedStatus: types.StatusExpired,
		},
		{
			name: "not found",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(nil, storage.ErrNotFound)
			},
			expectedErr: ErrNotFound,
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

			mockTracer.EXPECT().Start(gomock.Any(), "invitation.Service.GetByToken").Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockStorage)

			inv, err := s.GetByToken(context.Background(), token)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if inv.Status != tc.expectedStatus {
				t.Errorf("expected status %s, got %s", tc.expectedStatus, inv.Status)
			}
		})
	}
}

func TestService_Accept(t *testing.T) {
	token := "tok-abc"
	id := "inv-1"
	strongPassword := "Str0ng!Pass"

	sentInvitation := func() *types.Invitation {
		inv := pendingInvitation(id)
		inv.Status = types.StatusSent
		inv.Token = token
		return inv
	}

	securityLogger := logging.NewNoopLogger().Security()

	testCases := []struct {
		name        string
		password    string
		setupMocks  func(*MockStorageInterface, *MockLoggerInterface)
		expectedErr error
	}{
		{
			name:     "success",
			password: strongPassword,
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				used := sentInvitation()
				used.Status = types.StatusUsed

				mockStorage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(sentInvitation(), nil)
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), id).Return(sentInvitation(), nil)
				mockStorage.EXPECT().MarkUsed(gomock.Any(), id, gomock.Any()).Return(nil)
				mockLogger.EXPECT().Security().Return(securityLogger)
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), id).Return(used, nil)
			},
			expectedErr: nil,
		},
		{
			name:     "already used",
			password: strongPassword,
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				inv := sentInvitation()
				inv.Status = types.StatusUsed
				mockStorage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(inv, nil)
			},
			expectedErr: ErrAlreadyUsed,
		},
		{
			name:     "expired",
			password: strongPassword,
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				inv := sentInvitation()
				inv.ExpiresAt = time.Now().UTC().Add(-time.Minute)
				mockStorage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(inv, nil)
				mockStorage.EXPECT().MarkExpired(gomock.Any(), id).Return(nil)
				mockLogger.EXPECT().Security().Return(securityLogger)
			},
			expectedErr: ErrExpired,
		},
		{
			name:     "weak password",
			password: "short",
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				mockStorage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(sentInvitation(), nil)
			},
			expectedErr: ErrWeakPassword,
		},
		{
			name:     "unknown token",
			password: strongPassword,
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				mockStorage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(nil, storage.ErrNotFound)
			},
			expectedErr: ErrNotFound,
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

			mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).Return(context.Background(), trace.SpanFromContext(context.Background())).AnyTimes()
			tc.setupMocks(mockStorage, mockLogger)

			inv, err := s.Accept(context.Background(), token, tc.password)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if inv.Status != types.StatusUsed {
				t.Errorf("expected status %s, got %s", types.StatusUsed, inv.Status)
			}
		})
	}
}

func TestIsStrongPassword(t *testing.T) {
	testCases := []struct {
		password string
		strong   bool
	}{
		{"Str0ng!Pass", true},
		{"Abcdefg!", true},
		{"short!A", false},
		{"alllowercase1!", false},
		{"ALLUPPERCASE1!", false},
		{"NoSpecial123", false},
		{"Underscore_Only1", false},
	}

	for _, tc := range testCases {
		t.Run(tc.password, func(t *testing.T) {
			if got := IsStrongPassword(tc.password); got != tc.strong {
				t.Errorf("IsStrongPassword(%q) = %v, want %v", tc.password, got, tc.strong)
			}
		})
	}
}

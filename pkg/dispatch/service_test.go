// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/canonical/invitation-service/internal/logging"
	"github.com/canonical/invitation-service/internal/tracing"
	"github.com/canonical/invitation-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package dispatch -destination ./mock_dispatch.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package dispatch -destination ./mock_mail.go -source=../../internal/mail/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package dispatch -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go

func testInvitation(id, email string) *types.Invitation {
	return &types.Invitation{
		ID:           id,
		Email:        email,
		FirstName:    "Jean",
		LastName:     "Dupont",
		Filiere:      "Informatique",
		Level:        "L3",
		AcademicYear: "2026-2027",
		Token:        "tok-" + id,
		Status:       types.StatusPending,
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
	}
}

func TestService_Dispatch(t *testing.T) {
	sendErr := errors.New("smtp timeout")

	testCases := []struct {
		name        string
		invitations []*types.Invitation
		setupMocks  func(*MockLifecycleInterface, *MockEmailSenderInterface, *MockMonitorInterface)
	}{
		{
			name:        "all sent",
			invitations: []*types.Invitation{testInvitation("inv-1", "a@example.com"), testInvitation("inv-2", "b@example.com")},
			setupMocks: func(mockLifecycle *MockLifecycleInterface, mockSender *MockEmailSenderInterface, mockMonitor *MockMonitorInterface) {
				mockSender.EXPECT().Send(gomock.Any(), "a@example.com", gomock.Any(), gomock.Any()).Return(nil)
				mockSender.EXPECT().Send(gomock.Any(), "b@example.com", gomock.Any(), gomock.Any()).Return(nil)
				mockMonitor.EXPECT().CountDispatch("sent").Times(2)
				mockLifecycle.EXPECT().MarkSent(gomock.Any(), "inv-1").Return(nil)
				mockLifecycle.EXPECT().MarkSent(gomock.Any(), "inv-2").Return(nil)
			},
		},
		{
			name:        "failure does not abort the batch",
			invitations: []*types.Invitation{testInvitation("inv-1", "a@example.com"), testInvitation("inv-2", "b@example.com")},
			setupMocks: func(mockLifecycle *MockLifecycleInterface, mockSender *MockEmailSenderInterface, mockMonitor *MockMonitorInterface) {
				mockSender.EXPECT().Send(gomock.Any(), "a@example.com", gomock.Any(), gomock.Any()).Return(sendErr)
				mockMonitor.EXPECT().CountDispatch("failed")
				mockLifecycle.EXPECT().MarkFailed(gomock.Any(), "inv-1", sendErr.Error()).Return(nil)

				mockSender.EXPECT().Send(gomock.Any(), "b@example.com", gomock.Any(), gomock.Any()).Return(nil)
				mockMonitor.EXPECT().CountDispatch("sent")
				mockLifecycle.EXPECT().MarkSent(gomock.Any(), "inv-2").Return(nil)
			},
		},
		{
			name:        "empty batch sends nothing",
			invitations: nil,
			setupMocks:  func(*MockLifecycleInterface, *MockEmailSenderInterface, *MockMonitorInterface) {},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockLifecycle := NewMockLifecycleInterface(ctrl)
			mockSender := NewMockEmailSenderInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)

			s := NewService(
				mockLifecycle,
				mockSender,
				"https://example.com/invitations/accept",
				tracing.NewNoopTracer(),
				mockMonitor,
				logging.NewNoopLogger(),
			)

			tc.setupMocks(mockLifecycle, mockSender, mockMonitor)

			s.Dispatch(context.Background(), tc.invitations)
		})
	}
}

func TestService_EmailBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLifecycle := NewMockLifecycleInterface(ctrl)
	mockSender := NewMockEmailSenderInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)

	s := NewService(
		mockLifecycle,
		mockSender,
		// A trailing slash must not produce a double slash in the link.
		"https://example.com/invitations/accept/",
		tracing.NewNoopTracer(),
		mockMonitor,
		logging.NewNoopLogger(),
	)

	inv := testInvitation("inv-1", "a@example.com")

	var gotBody string
	mockSender.EXPECT().Send(gomock.Any(), "a@example.com", gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _, _, body string) error {
			gotBody = body
			return nil
		})
	mockMonitor.EXPECT().CountDispatch("sent")
	mockLifecycle.EXPECT().MarkSent(gomock.Any(), "inv-1").Return(nil)

	s.Dispatch(context.Background(), []*types.Invitation{inv})

	if !strings.Contains(gotBody, "https://example.com/invitations/accept/tok-inv-1") {
		t.Errorf("acceptance link missing from body:\n%s", gotBody)
	}
	if !strings.Contains(gotBody, "Jean Dupont") {
		t.Errorf("recipient name missing from body:\n%s", gotBody)
	}
	if !strings.Contains(gotBody, "Informatique") {
		t.Errorf("filiere missing from body:\n%s", gotBody)
	}
}

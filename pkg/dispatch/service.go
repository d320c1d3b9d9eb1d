// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package dispatch

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/canonical/invitation-service/internal/logging"
	"github.com/canonical/invitation-service/internal/mail"
	"github.com/canonical/invitation-service/internal/monitoring"
	"github.com/canonical/invitation-service/internal/tracing"
	"github.com/canonical/invitation-service/internal/types"
)

const (
	resultSent   = "sent"
	resultFailed = "failed"

	emailSubject = "Invitation à rejoindre la plateforme de stages"
)

var emailTemplate = template.Must(template.New("invitation").Parse(
	`Bonjour {{.FirstName}} {{.LastName}},

Votre établissement vous invite à créer votre compte étudiant.

Filière : {{.Filiere}}
Niveau : {{.Level}}
Année académique : {{.AcademicYear}}

Cliquez sur le lien suivant pour activer votre compte :

{{.AcceptURL}}

Ce lien expire le {{.ExpiresAt}}.
`))

type emailData struct {
	FirstName    string
	LastName     string
	Filiere      string
	Level        string
	AcademicYear string
	AcceptURL    string
	ExpiresAt    string
}

type Service struct {
	lifecycle LifecycleInterface
	sender    mail.EmailSenderInterface

	acceptBaseURL string

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	lifecycle LifecycleInterface,
	sender mail.EmailSenderInterface,
	acceptBaseURL string,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		lifecycle:     lifecycle,
		sender:        sender,
		acceptBaseURL: strings.TrimRight(acceptBaseURL, "/"),
		tracer:        tracer,
		monitor:       monitor,
		logger:        logger,
	}
}

// Dispatch sends the acceptance email for each invitation in order and
// records the outcome. A failed send marks the invitation failed and moves
// on, it never aborts the batch.
func (s *Service) Dispatch(ctx context.Context, invitations []*types.Invitation) {
	ctx, span := s.tracer.Start(ctx, "dispatch.Service.Dispatch")
	defer span.End()

	for _, inv := range invitations {
		if err := s.send(ctx, inv); err != nil {
			s.monitor.CountDispatch(resultFailed)
			s.logger.Errorf("failed to send invitation %s to %s: %v", inv.ID, inv.Email, err)

			if err := s.lifecycle.MarkFailed(ctx, inv.ID, err.Error()); err != nil {
				s.logger.Errorf("failed to record dispatch failure for %s: %v", inv.ID, err)
			}
			continue
		}

		s.monitor.CountDispatch(resultSent)

		if err := s.lifecycle.MarkSent(ctx, inv.ID); err != nil {
			s.logger.Errorf("failed to record dispatch success for %s: %v", inv.ID, err)
		}
	}
}

func (s *Service) send(ctx context.Context, inv *types.Invitation) error {
	var body strings.Builder

	data := emailData{
		FirstName:    inv.FirstName,
		LastName:     inv.LastName,
		Filiere:      inv.Filiere,
		Level:        inv.Level,
		AcademicYear: inv.AcademicYear,
		AcceptURL:    fmt.Sprintf("%s/%s", s.acceptBaseURL, inv.Token),
		ExpiresAt:    inv.ExpiresAt.Format("02/01/2006 15:04"),
	}

	if err := emailTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	return s.sender.Send(ctx, inv.Email, emailSubject, body.String())
}

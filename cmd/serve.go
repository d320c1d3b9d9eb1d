// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/canonical/invitation-service/internal/config"
	"github.com/canonical/invitation-service/internal/db"
	"github.com/canonical/invitation-service/internal/identity"
	"github.com/canonical/invitation-service/internal/logging"
	"github.com/canonical/invitation-service/internal/mail"
	"github.com/canonical/invitation-service/internal/monitoring/prometheus"
	"github.com/canonical/invitation-service/internal/storage"
	"github.com/canonical/invitation-service/internal/tracing"
	"github.com/canonical/invitation-service/pkg/csvimport"
	"github.com/canonical/invitation-service/pkg/dispatch"
	"github.com/canonical/invitation-service/pkg/invitation"
	"github.com/canonical/invitation-service/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the web application, list of environment variables is available in the readme`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		panic(fmt.Errorf("issues with environment sourcing: %s", err))
	}

	logger := logging.NewLogger(specs.LogLevel)
	logger.Debugf("env vars: %v", specs)
	defer logger.Sync()

	monitor := prometheus.NewMonitor("invitation-service", logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	dbConfig := db.Config{
		DSN:             specs.DSN,
		MaxConns:        specs.DBMaxConns,
		MinConns:        specs.DBMinConns,
		MaxConnLifetime: specs.DBMaxConnLifetime,
		MaxConnIdleTime: specs.DBMaxConnIdleTime,
		TracingEnabled:  specs.TracingEnabled,
	}
	dbClient, err := db.NewDBClient(dbConfig, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to create database client: %v", err)
	}
	defer dbClient.Close()
	s := storage.NewStorage(dbClient, tracer, monitor, logger)

	invitationService := invitation.NewService(
		s,
		specs.InvitationLifetime,
		tracer,
		monitor,
		logger,
	)

	sender := newEmailSender(specs, tracer, monitor, logger)

	dispatcher := dispatch.NewService(
		invitationService,
		sender,
		specs.AcceptBaseURL,
		tracer,
		monitor,
		logger,
	)

	ingestor := csvimport.NewIngestor(specs.CsvMaxRows, tracer, logger)

	invitationAPI := invitation.NewAPI(
		invitationService,
		ingestor,
		dispatcher,
		specs.UploadMaxBytes,
		tracer,
		monitor,
		logger,
	)

	identityMiddleware := identity.NewMiddleware(tracer, monitor, logger)

	router := web.NewRouter(
		invitationAPI,
		identityMiddleware,
		dbClient,
		tracer,
		monitor,
		logger,
	)
	logger.Infof("Starting HTTP server on port %v", specs.Port)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      router,
	}

	var serverError error
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Security().SystemStartup()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError = fmt.Errorf("server error: %w", err)
			c <- os.Interrupt
		}
	}()

	<-c

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Security().SystemShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		serverError = fmt.Errorf("server shutdown error: %w", err)
	}

	return serverError
}

// newEmailSender picks the mail backend. Gmail XOAUTH2 wins when a refresh
// token is configured, plain SMTP when mail is enabled, noop otherwise.
func newEmailSender(
	specs *config.EnvSpec,
	tracer tracing.TracingInterface,
	monitor *prometheus.Monitor,
	logger logging.LoggerInterface,
) mail.EmailSenderInterface {
	if !specs.MailEnabled {
		logger.Info("Mail is disabled, using noop sender")
		return mail.NewNoopSender(logger)
	}

	if specs.GmailRefreshToken != "" {
		return mail.NewGmailSender(
			mail.GmailConfig{
				Host:         specs.SMTPHost,
				Port:         specs.SMTPPort,
				Username:     specs.SMTPUsername,
				From:         specs.MailFrom,
				ClientID:     specs.GmailClientID,
				ClientSecret: specs.GmailClientSecret,
				RefreshToken: specs.GmailRefreshToken,
			},
			tracer,
			monitor,
			logger,
		)
	}

	return mail.NewSMTPSender(
		mail.Config{
			Host:     specs.SMTPHost,
			Port:     specs.SMTPPort,
			Username: specs.SMTPUsername,
			Password: specs.SMTPPassword,
			From:     specs.MailFrom,
		},
		tracer,
		monitor,
		logger,
	)
}

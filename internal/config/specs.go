// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	InvitationLifetime time.Duration `envconfig:"invitation_lifetime" default:"168h"`
	CsvMaxRows         int           `envconfig:"csv_max_rows" default:"500"`
	UploadMaxBytes     int64         `envconfig:"upload_max_bytes" default:"1000000"`
	AcceptBaseURL      string        `envconfig:"accept_base_url" default:"http://localhost:8080/invitations/accept"`

	MailEnabled  bool   `envconfig:"mail_enabled" default:"false"`
	SMTPHost     string `envconfig:"smtp_host"`
	SMTPPort     int    `envconfig:"smtp_port" default:"587"`
	SMTPUsername string `envconfig:"smtp_username"`
	SMTPPassword string `envconfig:"smtp_password"`
	MailFrom     string `envconfig:"mail_from"`

	GmailClientID     string `envconfig:"gmail_client_id"`
	GmailClientSecret string `envconfig:"gmail_client_secret"`
	GmailRefreshToken string `envconfig:"gmail_refresh_token"`
}

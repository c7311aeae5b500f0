// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package main

import (
	"context"
	"io"

	"github.com/claimwarden/claimwarden/internal/cftools"
	"github.com/claimwarden/claimwarden/internal/links"
	"github.com/claimwarden/claimwarden/internal/notify"
	"github.com/claimwarden/claimwarden/internal/observability"
	"github.com/claimwarden/claimwarden/internal/players"
	"github.com/claimwarden/claimwarden/internal/webhook"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// UpstreamFactory creates the game-server API client.
	// Default: cftools.New
	UpstreamFactory func(cfg cftools.Config) (Upstream, error)

	// LinkStoreFactory opens the platform link store.
	// Default: links.Open
	LinkStoreFactory func(ctx context.Context, dsn string) (links.Store, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker, registrars ...observability.Registrar) ObservabilityServer

	// WebhookServerFactory creates the webhook server.
	// Default: webhook.NewServer
	WebhookServerFactory func(addr string, h *webhook.Handler) WebhookServer

	// LogWriter receives log output.
	// Default: os.Stderr
	LogWriter io.Writer
}

// MigrateDeps contains injectable dependencies for the migrate command.
type MigrateDeps struct {
	// MigratorFactory creates a migrator for a PostgreSQL URL.
	// Default: links.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)
}

// Upstream is the game-server API used by serve.
type Upstream interface {
	players.Fetcher
	notify.Sender
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// WebhookServer interface wraps the methods used from webhook.Server.
type WebhookServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// Migrator interface wraps the methods used from links.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/claimwarden/claimwarden/internal/cftools"
	"github.com/claimwarden/claimwarden/internal/command"
	"github.com/claimwarden/claimwarden/internal/command/handlers"
	"github.com/claimwarden/claimwarden/internal/config"
	"github.com/claimwarden/claimwarden/internal/links"
	"github.com/claimwarden/claimwarden/internal/logging"
	"github.com/claimwarden/claimwarden/internal/notify"
	"github.com/claimwarden/claimwarden/internal/observability"
	"github.com/claimwarden/claimwarden/internal/players"
	"github.com/claimwarden/claimwarden/internal/poi"
	"github.com/claimwarden/claimwarden/internal/warden"
	"github.com/claimwarden/claimwarden/internal/webhook"
	"github.com/claimwarden/claimwarden/pkg/errutil"
)

// shutdownTimeout bounds each server's graceful stop.
const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd(deps *ServeDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server and claim enforcement",
		Long: `Start the webhook receiver, the player poller, the zone enforcement
engine, the outbound notifier and the metrics/health server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, deps)
		},
	}
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.UpstreamFactory == nil {
		out.UpstreamFactory = func(cfg cftools.Config) (Upstream, error) {
			client, err := cftools.New(cfg)
			if err != nil {
				return nil, err
			}
			return client, nil
		}
	}
	if out.LinkStoreFactory == nil {
		out.LinkStoreFactory = links.Open
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, registrars ...observability.Registrar) ObservabilityServer {
			return observability.NewServer(addr, version, ready, registrars...)
		}
	}
	if out.WebhookServerFactory == nil {
		out.WebhookServerFactory = func(addr string, h *webhook.Handler) WebhookServer {
			return webhook.NewServer(addr, h)
		}
	}
	if out.LogWriter == nil {
		out.LogWriter = os.Stderr
	}
	return &out
}

// runServeWithDeps runs the service until ctx is cancelled, a signal
// arrives or a server fails. If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.SetDefault(logging.Options{
		Service: "claimwarden",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   level,
		Writer:  deps.LogWriter,
	})

	catalog, err := loadCatalog(cfg.Catalog.File)
	if err != nil {
		return err
	}
	exclusions, err := command.NewExclusions(cfg.Catalog.Exclusions)
	if err != nil {
		return err
	}
	wardenCfg, err := cfg.Warden()
	if err != nil {
		return err
	}

	upstream, err := deps.UpstreamFactory(cfg.CFToolsClient())
	if err != nil {
		return oops.With("operation", "create game-server client").Wrap(err)
	}

	store, err := deps.LinkStoreFactory(ctx, cfg.Links.DSN)
	if err != nil {
		return oops.With("operation", "open link store").Wrap(err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("error closing link store", "error", closeErr)
		}
	}()

	cache := players.NewCache(cfg.Players.Liveness)
	linkService := links.NewService(store, links.WithServiceLogger(logger))
	notifier := notify.NewDispatcher(upstream,
		notify.WithQueueSize(cfg.Notify.QueueSize),
		notify.WithTimeout(cfg.Notify.Timeout),
		notify.WithIdentityLookup(linkService),
		notify.WithLogger(logger))
	engine := warden.New(wardenCfg, catalog, cache, notifier, warden.WithLogger(logger))
	poller := players.NewPoller(cache, upstream,
		players.WithInterval(cfg.Players.PollInterval),
		players.WithLogger(logger))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The limiter's gauge lives in the observability registry when one exists.
	var limiter *command.RateLimiter
	registrars := []observability.Registrar{
		command.RegisterMetrics,
		players.RegisterMetrics,
		warden.RegisterMetrics,
		notify.RegisterMetrics,
		links.RegisterMetrics,
		webhook.RegisterMetrics,
		func(reg prometheus.Registerer) {
			limiter = command.NewRateLimiterWithRegistry(cfg.RateLimiter(), reg)
		},
	}

	var obsServer ObservabilityServer
	if cfg.Server.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Server.MetricsAddr, cache.Ready, registrars...)
		obsErrChan, startErr := obsServer.Start()
		if startErr != nil {
			return oops.With("operation", "start observability server").Wrap(startErr)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	}
	if limiter == nil {
		limiter = command.NewRateLimiter(cfg.RateLimiter())
	}
	defer limiter.Close()

	deduper := command.NewDeduper(cfg.Commands.DedupeWindow, 0, nil)
	defer deduper.Close()

	registry := command.NewRegistry()
	handlers.RegisterAll(registry)
	dispatcher, err := command.NewDispatcher(registry, command.WithRateLimiter(limiter))
	if err != nil {
		return err
	}
	interpreter, err := command.NewInterpreter(dispatcher, &command.Services{
		Engine:     engine,
		Resolver:   poi.NewResolver(catalog, poi.WithThreshold(cfg.Catalog.MatchThreshold)),
		Links:      linkService,
		Exclusions: exclusions,
		Registry:   registry,
	}, notifier, command.WithDeduper(deduper), command.WithInterpreterLogger(logger))
	if err != nil {
		return err
	}

	hook, err := webhook.New(cfg.Webhook.Secret, interpreter,
		webhook.WithLogger(logger),
		webhook.WithTimeout(cfg.Webhook.Timeout))
	if err != nil {
		return err
	}

	// Background workers stop when runCtx is cancelled, after the webhook
	// server has stopped accepting deliveries.
	runCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorkers()
	var wg sync.WaitGroup
	start := func(name string, run func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(runCtx)
			logger.Debug("worker stopped", "worker", name)
		}()
	}
	start("notifier", notifier.Run)
	start("links", failFast(logger, "links", linkService.Run, cancel))
	start("engine", failFast(logger, "engine", engine.Run, cancel))
	start("poller", poller.Run)

	webhookServer := deps.WebhookServerFactory(cfg.Server.Addr, hook)
	webhookErrChan, err := webhookServer.Start()
	if err != nil {
		stopWorkers()
		wg.Wait()
		stopServer(obsServer, "observability")
		return oops.With("operation", "start webhook server").Wrap(err)
	}
	serveErr := make(chan error, 1)
	go func() {
		for e := range webhookErrChan {
			serveErr <- e
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("ClaimWarden started")
	logger.Info("claimwarden ready",
		"addr", webhookServer.Addr(),
		"metrics_addr", cfg.Server.MetricsAddr,
		"pois", catalog.Len())

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case e := <-serveErr:
		runErr = oops.With("operation", "serve webhook").Wrap(e)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")
	stopServer(webhookServer, "webhook")
	stopWorkers()
	wg.Wait()
	stopServer(obsServer, "observability")
	logger.Info("shutdown complete")
	return runErr
}

// loadCatalog reads path, or the built-in catalog when path is empty.
func loadCatalog(path string) (*poi.Catalog, error) {
	if path == "" {
		return poi.Default()
	}
	return poi.LoadFile(path)
}

// failFast adapts a worker that can fail: a failure is logged and cancel
// is called so serve shuts down.
func failFast(logger *slog.Logger, name string, run func(context.Context) error, cancel context.CancelFunc) func(context.Context) {
	return func(ctx context.Context) {
		if err := run(ctx); err != nil {
			errutil.LogError(logger, "worker stopped", err, "worker", name)
			cancel()
		}
	}
}

type stopper interface {
	Stop(ctx context.Context) error
}

func stopServer(s stopper, name string) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		slog.Warn("error stopping server", "server", name, "error", err)
	}
}

// monitorServerErrors cancels ctx when a server reports a failure.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			slog.Error("server failed", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}

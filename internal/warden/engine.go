// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

// Package warden runs the zone enforcement scheduler. A single loop owns the
// claim registry, the timer set, eviction countdowns and intrusion-warning
// state; commands reach that state only through Do.
package warden

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/samber/oops"

	"github.com/claimwarden/claimwarden/internal/claim"
	"github.com/claimwarden/claimwarden/internal/notify"
	"github.com/claimwarden/claimwarden/internal/players"
	"github.com/claimwarden/claimwarden/internal/poi"
	"github.com/claimwarden/claimwarden/internal/timer"
)

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("warden: engine stopped")

// CodeEngineStopped tags errors returned after shutdown.
const CodeEngineStopped = "ENGINE_STOPPED"

// Notifier delivers outbound messages. Calls must not block.
type Notifier interface {
	Broadcast(text string)
	Teleport(t notify.Teleport)
}

// PlayerSource provides consistent views of the online players.
type PlayerSource interface {
	View(now time.Time) *players.View
}

// Tx is the state handed to a function run inside the loop.
type Tx struct {
	Now     time.Time
	Roster  *players.View
	Claims  *claim.Registry
	Catalog *poi.Catalog
}

type request struct {
	fn   func(*Tx)
	done chan struct{}
}

type countdown struct {
	poi    string
	handle timer.Handle
}

type warnKey struct {
	player string
	poi    string
}

// Engine is the enforcement scheduler.
type Engine struct {
	cfg      Config
	catalog  *poi.Catalog
	players  PlayerSource
	notifier Notifier
	logger   *slog.Logger
	clock    func() time.Time

	timers     *timer.Set
	registry   *claim.Registry
	countdowns map[string]countdown
	warned     map[warnKey]time.Time
	nextReset  time.Time

	requests chan request
	stopped  chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine. Zero config fields take their defaults.
func New(cfg Config, catalog *poi.Catalog, source PlayerSource, notifier Notifier, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg.withDefaults(),
		catalog:    catalog,
		players:    source,
		notifier:   notifier,
		logger:     slog.Default(),
		clock:      time.Now,
		timers:     timer.NewSet(),
		countdowns: make(map[string]countdown),
		warned:     make(map[warnKey]time.Time),
		requests:   make(chan request),
		stopped:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registry = claim.NewRegistry(e.timers, e.cfg.Claims, e.logger)
	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Registry exposes the claim registry. It must only be used from inside
// the loop, or before Run starts.
func (e *Engine) Registry() *claim.Registry {
	return e.registry
}

// NextReset returns the next scheduled reset. Valid once Run has started.
func (e *Engine) NextReset() time.Time {
	return e.nextReset
}

// Run executes the loop until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.stopped)

	tick := time.NewTicker(e.cfg.TickInterval)
	defer tick.Stop()
	resolution := time.NewTicker(e.cfg.TimerResolution)
	defer resolution.Stop()

	start := e.clock()
	e.nextReset = NextReset(start, e.cfg.ResetInterval, e.cfg.ResetLocation)
	reset := time.NewTimer(e.nextReset.Sub(start))
	defer reset.Stop()

	e.logger.Info("enforcement engine started",
		"tick_interval", e.cfg.TickInterval,
		"pois", len(e.catalog.Zoned()),
		"next_reset", e.nextReset)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("enforcement engine stopped")
			return nil
		case req := <-e.requests:
			e.serve(req)
		case <-tick.C:
			e.Tick(e.clock())
		case <-resolution.C:
			e.FireDue(e.clock())
		case <-reset.C:
			now := e.clock()
			e.Reset(now)
			e.nextReset = now.Add(e.cfg.ResetInterval)
			reset.Reset(e.cfg.ResetInterval)
		}
	}
}

// Do runs fn inside the loop and waits for it to finish.
func (e *Engine) Do(ctx context.Context, fn func(*Tx)) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case e.requests <- req:
	case <-e.stopped:
		return oops.Code(CodeEngineStopped).Wrap(ErrStopped)
	case <-ctx.Done():
		return oops.Wrap(ctx.Err())
	}
	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return oops.Wrap(ctx.Err())
	}
}

func (e *Engine) serve(req request) {
	defer close(req.done)
	now := e.clock()
	e.guard("command", func() {
		req.fn(e.tx(now))
	})
}

func (e *Engine) tx(now time.Time) *Tx {
	return &Tx{
		Now:     now,
		Roster:  e.players.View(now),
		Claims:  e.registry,
		Catalog: e.catalog,
	}
}

// guard runs fn and turns a panic into a logged error so the loop survives.
func (e *Engine) guard(scope string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			panics.WithLabelValues(scope).Inc()
			e.logger.Error("recovered panic in enforcement loop",
				"scope", scope,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

func (e *Engine) broadcast(text string) {
	e.notifier.Broadcast(text)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

// Package notify delivers outbound broadcasts and teleports without the
// caller waiting on network I/O. Delivery is best-effort: failures are
// logged and counted, never returned.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/claimwarden/claimwarden/internal/geo"
	"github.com/claimwarden/claimwarden/pkg/errutil"
)

// Defaults for a Dispatcher.
const (
	DefaultQueueSize = 256
	DefaultTimeout   = 15 * time.Second
)

// Sender performs the outbound calls.
type Sender interface {
	SendMessage(ctx context.Context, text string) error
	TeleportPlayer(ctx context.Context, platformID string, target geo.Vec3) error
}

// IdentityLookup resolves a player name to a linked platform id.
type IdentityLookup interface {
	Lookup(ctx context.Context, player string) (string, bool, error)
}

// Teleport asks for a player to be moved.
type Teleport struct {
	Player     string // display name
	Name       string // normalized name, used to look up a linked id
	PlatformID string
	Target     geo.Vec3
	POI        string
	Reason     string
}

type job struct {
	text     string
	teleport *Teleport
}

// Dispatcher queues outbound work for a single worker goroutine.
type Dispatcher struct {
	sender  Sender
	links   IdentityLookup
	queue   chan job
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan job, n)
		}
	}
}

// WithTimeout bounds each outbound call.
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// WithIdentityLookup sets the fallback used when a teleport lacks a platform id.
func WithIdentityLookup(l IdentityLookup) Option {
	return func(d *Dispatcher) { d.links = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a dispatcher. Nothing is sent until Run is called.
func NewDispatcher(sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender:  sender,
		queue:   make(chan job, DefaultQueueSize),
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Broadcast queues a server-wide chat message.
func (d *Dispatcher) Broadcast(text string) {
	d.enqueue(job{text: text}, kindBroadcast)
}

// Teleport queues a teleport.
func (d *Dispatcher) Teleport(t Teleport) {
	d.enqueue(job{teleport: &t}, kindTeleport)
}

func (d *Dispatcher) enqueue(j job, kind string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		dropped.WithLabelValues(kind, "closed").Inc()
		return
	}
	select {
	case d.queue <- j:
		queued.Set(float64(len(d.queue)))
	default:
		dropped.WithLabelValues(kind, "full").Inc()
		d.logger.Warn("outbound queue full, dropping", "kind", kind)
	}
}

// Run delivers queued work until ctx is done, then drains what remains
// using a fresh deadline per call.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.close()
			d.drain()
			return
		case j := <-d.queue:
			d.deliver(ctx, j)
		}
	}
}

func (d *Dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

func (d *Dispatcher) drain() {
	for {
		select {
		case j := <-d.queue:
			d.deliver(context.Background(), j)
		default:
			queued.Set(0)
			return
		}
	}
}

func (d *Dispatcher) deliver(parent context.Context, j job) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.timeout)
	defer cancel()
	queued.Set(float64(len(d.queue)))

	if j.teleport != nil {
		d.teleport(ctx, *j.teleport)
		return
	}
	if err := d.sender.SendMessage(ctx, j.text); err != nil {
		failures.WithLabelValues(kindBroadcast).Inc()
		errutil.LogError(d.logger, "broadcast failed", err)
		return
	}
	delivered.WithLabelValues(kindBroadcast).Inc()
}

func (d *Dispatcher) teleport(ctx context.Context, t Teleport) {
	id := t.PlatformID
	if id == "" && d.links != nil {
		linked, ok, err := d.links.Lookup(ctx, t.Name)
		if err != nil {
			errutil.LogError(d.logger, "platform id lookup failed", err)
		}
		if ok {
			id = linked
		}
	}
	if id == "" {
		failures.WithLabelValues(kindTeleport).Inc()
		d.logger.Warn("cannot teleport player without a platform id",
			"player", t.Player, "poi", t.POI, "reason", t.Reason)
		return
	}

	if err := d.sender.TeleportPlayer(ctx, id, t.Target); err != nil {
		failures.WithLabelValues(kindTeleport).Inc()
		errutil.LogError(d.logger.With("player", t.Player, "poi", t.POI), "teleport failed", err)
		return
	}
	delivered.WithLabelValues(kindTeleport).Inc()
	d.logger.Info("player teleported", "player", t.Player, "poi", t.POI, "reason", t.Reason)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package players

import (
	"context"
	"log/slog"
	"time"

	"github.com/claimwarden/claimwarden/pkg/errutil"
)

// DefaultPollInterval is the refresh period of the player feed.
const DefaultPollInterval = time.Second

// Poller refreshes a Cache from a Fetcher on a fixed period.
type Poller struct {
	cache    *Cache
	fetcher  Fetcher
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger

	failures int
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the refresh period.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) { p.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) { p.logger = l }
}

// NewPoller creates a poller. It does nothing until Run is called.
func NewPoller(cache *Cache, fetcher Fetcher, opts ...PollerOption) *Poller {
	p := &Poller{
		cache:    cache,
		fetcher:  fetcher,
		interval: DefaultPollInterval,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	// A slow upstream must not stack refreshes.
	p.timeout = p.interval * 5
	return p
}

// Run refreshes immediately and then on every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	n, err := p.cache.Refresh(ctx, p.fetcher, p.now())
	if err != nil {
		if ctx.Err() != nil && ctx.Err() != context.DeadlineExceeded {
			return
		}
		p.failures++
		// Log the first failure of a streak and every 30th after it.
		if p.failures == 1 || p.failures%30 == 0 {
			errutil.LogError(p.logger, "player refresh failed, keeping cached snapshot", err)
		}
		return
	}
	if p.failures > 0 {
		p.logger.Info("player refresh recovered", "failed_attempts", p.failures, "players", n)
		p.failures = 0
	}
}

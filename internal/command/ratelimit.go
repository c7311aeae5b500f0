// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package command

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Default rate limiting values.
const (
	// DefaultBurstCapacity is the maximum number of commands a player can
	// issue in a burst before rate limiting kicks in.
	DefaultBurstCapacity = 5

	// DefaultSustainedRate is the number of commands per second allowed as
	// sustained rate (token refill rate).
	DefaultSustainedRate = 0.5

	// MinSustainedRate ensures sustained rate is at least 0.1 tokens/second.
	MinSustainedRate = 0.1

	// DefaultCleanupInterval is the interval at which the background goroutine
	// drops idle players.
	DefaultCleanupInterval = 5 * time.Minute

	// DefaultBucketMaxAge is the idle age after which a player's bucket is
	// eligible for cleanup.
	DefaultBucketMaxAge = time.Hour
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// BurstCapacity defaults to DefaultBurstCapacity if zero or negative.
	BurstCapacity int

	// SustainedRate defaults to DefaultSustainedRate if zero or negative.
	SustainedRate float64

	// CleanupInterval defaults to DefaultCleanupInterval if zero.
	CleanupInterval time.Duration

	// BucketMaxAge defaults to DefaultBucketMaxAge if zero.
	BucketMaxAge time.Duration

	// Clock overrides time.Now.
	Clock func() time.Time
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// RateLimiter implements per-player rate limiting using a token bucket algorithm.
// It is safe for concurrent use.
//
// The RateLimiter runs a background goroutine to periodically clean up idle
// players. Call Close() to stop the goroutine.
type RateLimiter struct {
	mu            sync.Mutex
	buckets       map[string]*bucket
	burstCapacity int
	sustainedRate float64
	maxAge        time.Duration
	now           func() time.Time

	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	sizeGauge prometheus.Gauge
}

// NewRateLimiter creates a new rate limiter with the given configuration.
// It starts a background goroutine for cleanup. Call Close() to stop it.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return newRateLimiter(cfg, nil)
}

// NewRateLimiterWithRegistry creates a new rate limiter and registers a
// tracked-player gauge with the provided Prometheus registry.
func NewRateLimiterWithRegistry(cfg RateLimiterConfig, reg prometheus.Registerer) *RateLimiter {
	return newRateLimiter(cfg, reg)
}

func newRateLimiter(cfg RateLimiterConfig, reg prometheus.Registerer) *RateLimiter {
	burstCapacity := cfg.BurstCapacity
	if burstCapacity <= 0 {
		burstCapacity = DefaultBurstCapacity
	}

	sustainedRate := cfg.SustainedRate
	if sustainedRate <= 0 {
		sustainedRate = DefaultSustainedRate
	}
	if sustainedRate < MinSustainedRate {
		sustainedRate = MinSustainedRate
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}

	maxAge := cfg.BucketMaxAge
	if maxAge <= 0 {
		maxAge = DefaultBucketMaxAge
	}

	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	rl := &RateLimiter{
		buckets:       make(map[string]*bucket),
		burstCapacity: burstCapacity,
		sustainedRate: sustainedRate,
		maxAge:        maxAge,
		now:           now,
		stopChan:      make(chan struct{}),
	}

	if reg != nil {
		rl.sizeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "claimwarden_ratelimiter_players",
			Help: "Current number of players tracked by the command rate limiter",
		})
		reg.MustRegister(rl.sizeGauge)
	}

	rl.wg.Add(1)
	go rl.cleanupLoop(cleanupInterval)

	return rl
}

// Allow checks if a command is allowed for the given player key.
// Returns (allowed, cooldownMs) where cooldownMs is the time until the next
// token is available (0 if allowed).
func (rl *RateLimiter) Allow(player string) (allowed bool, cooldownMs int64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	b, exists := rl.buckets[player]
	if !exists {
		b = &bucket{tokens: float64(rl.burstCapacity), lastCheck: now}
		rl.buckets[player] = b
	}

	elapsed := now.Sub(b.lastCheck).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * rl.sustainedRate
	}
	if b.tokens > float64(rl.burstCapacity) {
		b.tokens = float64(rl.burstCapacity)
	}
	b.lastCheck = now

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true, 0
	}

	deficit := 1.0 - b.tokens
	return false, int64(deficit / rl.sustainedRate * 1000)
}

// Len returns the number of tracked players.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Cleanup removes players not seen within maxAge.
func (rl *RateLimiter) Cleanup(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := rl.now().Add(-maxAge)
	for key, b := range rl.buckets {
		if b.lastCheck.Before(threshold) {
			delete(rl.buckets, key)
		}
	}

	if rl.sizeGauge != nil {
		rl.sizeGauge.Set(float64(len(rl.buckets)))
	}
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	defer rl.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			rl.Cleanup(rl.maxAge)
		}
	}
}

// Close stops the background cleanup goroutine. It blocks until the
// goroutine has stopped and is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
	rl.wg.Wait()
}

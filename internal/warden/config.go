// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package warden

import (
	"time"
	_ "time/tzdata" // reset zone must resolve on minimal images

	"github.com/claimwarden/claimwarden/internal/claim"
)

// Enforcement defaults.
const (
	DefaultTickInterval      = 5 * time.Second
	DefaultTimerResolution   = time.Second
	DefaultIntrusionRadius   = 350.0
	DefaultAbandonAfter      = 60 * time.Second
	DefaultCountdown         = 30 * time.Second
	DefaultIntrusionCooldown = 60 * time.Second
	DefaultGraceDuration     = 15 * time.Minute
	DefaultEvictionDelay     = 60 * time.Second
	DefaultResetInterval     = 3 * time.Hour
	DefaultResetZone         = "Etc/GMT-1"
)

// Config holds the engine's timings and thresholds.
type Config struct {
	TickInterval    time.Duration
	TimerResolution time.Duration

	// IntrusionRadius is the outer warning boundary shared by every POI.
	IntrusionRadius float64
	// AbandonAfter is how long an engaged claim may sit empty.
	AbandonAfter time.Duration
	// Countdown is the delay between an eviction warning and the teleport.
	Countdown         time.Duration
	IntrusionCooldown time.Duration
	GraceDuration     time.Duration
	// EvictionDelay is the warning period after a claim's hard cap.
	EvictionDelay  time.Duration
	SurvivorRadius float64

	ResetInterval time.Duration
	ResetLocation *time.Location

	Claims claim.Config
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	loc, err := time.LoadLocation(DefaultResetZone)
	if err != nil {
		loc = time.FixedZone("UTC+1", 60*60)
	}
	return Config{
		TickInterval:      DefaultTickInterval,
		TimerResolution:   DefaultTimerResolution,
		IntrusionRadius:   DefaultIntrusionRadius,
		AbandonAfter:      DefaultAbandonAfter,
		Countdown:         DefaultCountdown,
		IntrusionCooldown: DefaultIntrusionCooldown,
		GraceDuration:     DefaultGraceDuration,
		EvictionDelay:     DefaultEvictionDelay,
		SurvivorRadius:    claim.DefaultSurvivorRadius,
		ResetInterval:     DefaultResetInterval,
		ResetLocation:     loc,
		Claims:            claim.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.TimerResolution <= 0 {
		c.TimerResolution = d.TimerResolution
	}
	if c.IntrusionRadius <= 0 {
		c.IntrusionRadius = d.IntrusionRadius
	}
	if c.AbandonAfter <= 0 {
		c.AbandonAfter = d.AbandonAfter
	}
	if c.Countdown <= 0 {
		c.Countdown = d.Countdown
	}
	if c.IntrusionCooldown <= 0 {
		c.IntrusionCooldown = d.IntrusionCooldown
	}
	if c.GraceDuration <= 0 {
		c.GraceDuration = d.GraceDuration
	}
	if c.EvictionDelay <= 0 {
		c.EvictionDelay = d.EvictionDelay
	}
	if c.SurvivorRadius <= 0 {
		c.SurvivorRadius = d.SurvivorRadius
	}
	if c.ResetInterval <= 0 {
		c.ResetInterval = d.ResetInterval
	}
	if c.ResetLocation == nil {
		c.ResetLocation = d.ResetLocation
	}
	if c.Claims == (claim.Config{}) {
		c.Claims = d.Claims
	}
	return c
}

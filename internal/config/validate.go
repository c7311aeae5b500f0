// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/claimwarden/claimwarden/internal/cftools"
	"github.com/claimwarden/claimwarden/internal/claim"
	"github.com/claimwarden/claimwarden/internal/command"
	"github.com/claimwarden/claimwarden/internal/logging"
	"github.com/claimwarden/claimwarden/internal/warden"
)

// Validate reports every problem found. A missing webhook secret is always
// an error.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Webhook.Secret == "" {
		add("webhook secret is required (CF_WEBHOOK_SECRET)")
	}
	if c.Server.Addr == "" {
		add("server.addr is required")
	}
	if c.Catalog.MatchThreshold <= 0 || c.Catalog.MatchThreshold > 1 {
		add("catalog.match_threshold must be in (0, 1], got %v", c.Catalog.MatchThreshold)
	}
	if _, err := command.NewExclusions(c.Catalog.Exclusions); err != nil {
		add("catalog.exclusions: %v", err)
	}

	positive := map[string]time.Duration{
		"players.poll_interval":          c.Players.PollInterval,
		"players.liveness":               c.Players.Liveness,
		"claims.duration":                c.Claims.Duration,
		"claims.extended_duration":       c.Claims.ExtendedDuration,
		"claims.cooldown_duration":       c.Claims.CooldownDuration,
		"enforcement.tick_interval":      c.Enforcement.TickInterval,
		"enforcement.abandon_after":      c.Enforcement.AbandonAfter,
		"enforcement.countdown":          c.Enforcement.Countdown,
		"enforcement.intrusion_cooldown": c.Enforcement.IntrusionCooldown,
		"enforcement.grace_duration":     c.Enforcement.GraceDuration,
		"enforcement.eviction_delay":     c.Enforcement.EvictionDelay,
		"enforcement.reset_interval":     c.Enforcement.ResetInterval,
	}
	for _, key := range sortedKeys(positive) {
		if positive[key] <= 0 {
			add("%s must be positive", key)
		}
	}

	if c.Claims.ExtendedDuration < c.Claims.Duration {
		add("claims.extended_duration must not be shorter than claims.duration")
	}
	if c.Claims.GroupingRadius <= 0 || c.Claims.ReturnRadius <= 0 {
		add("claims.grouping_radius and claims.return_radius must be positive")
	}
	if c.Enforcement.IntrusionRadius <= 0 || c.Enforcement.SurvivorRadius <= 0 {
		add("enforcement.intrusion_radius and enforcement.survivor_radius must be positive")
	}
	if c.Players.Liveness < c.Players.PollInterval {
		add("players.liveness must be at least players.poll_interval")
	}
	if _, err := time.LoadLocation(c.Enforcement.ResetZone); err != nil {
		add("enforcement.reset_zone %q: %v", c.Enforcement.ResetZone, err)
	}

	if c.Commands.BurstCapacity < 1 {
		add("commands.burst_capacity must be at least 1")
	}
	if c.Commands.SustainedRate < command.MinSustainedRate {
		add("commands.sustained_rate must be at least %v", command.MinSustainedRate)
	}
	if c.Commands.DedupeWindow < 0 {
		add("commands.dedupe_window must not be negative")
	}
	if c.Notify.QueueSize < 1 {
		add("notify.queue_size must be at least 1")
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		add("log.format must be json or text, got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add("log.level %q is not a level", c.Log.Level)
	}

	if len(problems) > 0 {
		return oops.Code(CodeInvalidConfig).
			With("problems", problems).
			Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func sortedKeys(m map[string]time.Duration) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Warden returns the engine configuration. Call after Validate.
func (c *Config) Warden() (warden.Config, error) {
	loc, err := time.LoadLocation(c.Enforcement.ResetZone)
	if err != nil {
		return warden.Config{}, oops.Code(CodeInvalidConfig).With("reset_zone", c.Enforcement.ResetZone).Wrap(err)
	}
	return warden.Config{
		TickInterval:      c.Enforcement.TickInterval,
		TimerResolution:   warden.DefaultTimerResolution,
		IntrusionRadius:   c.Enforcement.IntrusionRadius,
		AbandonAfter:      c.Enforcement.AbandonAfter,
		Countdown:         c.Enforcement.Countdown,
		IntrusionCooldown: c.Enforcement.IntrusionCooldown,
		GraceDuration:     c.Enforcement.GraceDuration,
		EvictionDelay:     c.Enforcement.EvictionDelay,
		SurvivorRadius:    c.Enforcement.SurvivorRadius,
		ResetInterval:     c.Enforcement.ResetInterval,
		ResetLocation:     loc,
		Claims: claim.Config{
			Duration:         c.Claims.Duration,
			ExtendedDuration: c.Claims.ExtendedDuration,
			CooldownDuration: c.Claims.CooldownDuration,
			GroupingRadius:   c.Claims.GroupingRadius,
			ReturnRadius:     c.Claims.ReturnRadius,
		},
	}, nil
}

// CFToolsClient returns the API client configuration.
func (c *Config) CFToolsClient() cftools.Config {
	return cftools.Config{
		BaseURL:       c.CFTools.BaseURL,
		ApplicationID: c.CFTools.ApplicationID,
		Secret:        c.CFTools.Secret,
		ServerID:      c.CFTools.ServerID,
		Timeout:       c.CFTools.Timeout,
		MaxRetries:    uint64(c.CFTools.MaxRetries),
	}
}

// RateLimiter returns the command rate limiter configuration.
func (c *Config) RateLimiter() command.RateLimiterConfig {
	return command.RateLimiterConfig{
		BurstCapacity: c.Commands.BurstCapacity,
		SustainedRate: c.Commands.SustainedRate,
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package warden

import (
	"time"
)

// NextReset returns the first reset boundary strictly after now. Boundaries
// fall every interval from midnight in loc, so a 3h interval lands on
// 00:00, 03:00, ... 21:00 local time.
func NextReset(now time.Time, interval time.Duration, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	if interval <= 0 {
		interval = DefaultResetInterval
	}
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	blocks := local.Sub(midnight)/interval + 1
	next := midnight.Add(blocks * interval)

	// A block that would run past the next midnight restarts the grid there.
	tomorrow := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	if next.After(tomorrow) {
		next = tomorrow
	}
	return next
}

// Reset clears every claim, the claim history, pending countdowns and
// intrusion warnings, cancelling every timer they held.
func (e *Engine) Reset(now time.Time) {
	dropped := e.registry.Reset()
	for name, cd := range e.countdowns {
		e.timers.Cancel(cd.handle)
		delete(e.countdowns, name)
	}
	clear(e.warned)

	if dropped > 0 {
		transitions.WithLabelValues(reasonReset).Add(float64(dropped))
	}
	resets.Inc()
	e.recordClaimStates()
	e.logger.Info("scheduled reset: claims and claim history cleared", "claims", dropped, "at", now)
	e.broadcast(msgReset())
}

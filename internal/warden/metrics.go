// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package warden

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/claimwarden/claimwarden/internal/claim"
)

const (
	warnRestricted = "restricted"
	warnIntrusion  = "intrusion"
)

var claimsByState = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "claimwarden_claims",
		Help: "Current claims by state",
	},
	[]string{"state"},
)

var transitions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claimwarden_claim_transitions_total",
		Help: "Total claim lifecycle transitions by reason",
	},
	[]string{"reason"},
)

var teleports = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claimwarden_teleports_total",
		Help: "Total teleports requested by reason",
	},
	[]string{"reason"},
)

var warnings = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claimwarden_warnings_total",
		Help: "Total warnings broadcast by kind",
	},
	[]string{"kind"},
)

var graceGrants = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "claimwarden_grace_grants_total",
		Help: "Total individual grace deadlines granted",
	},
)

var resets = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "claimwarden_resets_total",
		Help: "Total scheduled resets",
	},
)

var panics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claimwarden_engine_panics_total",
		Help: "Total panics recovered inside the enforcement loop by scope",
	},
	[]string{"scope"},
)

var tickDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "claimwarden_tick_duration_seconds",
		Help:    "Enforcement tick duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
)

// RegisterMetrics registers warden package metrics with the given Prometheus registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(claimsByState)
	reg.MustRegister(transitions)
	reg.MustRegister(teleports)
	reg.MustRegister(warnings)
	reg.MustRegister(graceGrants)
	reg.MustRegister(resets)
	reg.MustRegister(panics)
	reg.MustRegister(tickDuration)
}

func (e *Engine) recordClaimStates() {
	counts := map[claim.State]int{claim.Active: 0, claim.Cooldown: 0}
	for _, c := range e.registry.Claims() {
		counts[c.State]++
	}
	for state, n := range counts {
		claimsByState.WithLabelValues(state.String()).Set(float64(n))
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package notify

import "github.com/prometheus/client_golang/prometheus"

const (
	kindBroadcast = "broadcast"
	kindTeleport  = "teleport"
)

var delivered = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claimwarden_notify_delivered_total",
		Help: "Total outbound calls delivered by kind",
	},
	[]string{"kind"},
)

var failures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claimwarden_notify_failures_total",
		Help: "Total outbound calls that failed by kind",
	},
	[]string{"kind"},
)

var dropped = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claimwarden_notify_dropped_total",
		Help: "Total outbound calls dropped before delivery by kind and cause",
	},
	[]string{"kind", "cause"},
)

var queued = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "claimwarden_notify_queue_depth",
		Help: "Outbound calls waiting for delivery",
	},
)

// RegisterMetrics registers notify package metrics with the given Prometheus registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(delivered)
	reg.MustRegister(failures)
	reg.MustRegister(dropped)
	reg.MustRegister(queued)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package players

import "github.com/prometheus/client_golang/prometheus"

const (
	resultSuccess = "success"
	resultError   = "error"
	resultEmpty   = "empty"
)

var refreshes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claimwarden_player_refreshes_total",
		Help: "Total player feed refreshes by result",
	},
	[]string{"result"},
)

var onlinePlayers = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "claimwarden_online_players",
		Help: "Players seen within the liveness window at the last refresh",
	},
)

// RegisterMetrics registers players package metrics with the given Prometheus registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(refreshes)
	reg.MustRegister(onlinePlayers)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package command

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for command execution metrics.
const (
	StatusSuccess     = "success"
	StatusRejected    = "rejected"
	StatusError       = "error"
	StatusRateLimited = "rate_limited"
)

// CommandExecutions is the counter for command executions.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandExecutions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claimwarden_command_executions_total",
		Help: "Total number of chat command executions",
	},
	[]string{"command", "status"},
)

// CommandDuration is the histogram for command execution duration.
var CommandDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "claimwarden_command_duration_seconds",
		Help:    "Chat command execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"command"},
)

// DuplicateMessages counts chat lines dropped by deduplication.
var DuplicateMessages = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "claimwarden_command_duplicates_total",
	Help: "Total number of redelivered chat lines dropped",
})

// RegisterMetrics registers command package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CommandExecutions)
	reg.MustRegister(CommandDuration)
	reg.MustRegister(DuplicateMessages)
}

// RecordCommandExecution increments the command execution counter.
func RecordCommandExecution(command, status string) {
	CommandExecutions.WithLabelValues(command, status).Inc()
}

// RecordCommandDuration records the duration of a command execution.
func RecordCommandDuration(command string, duration time.Duration) {
	CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// Package metrics exposes Prometheus instrumentation for the token core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Throughput metrics.
var (
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokengate_operations_total",
			Help: "Total number of accepted operations by entry point",
		},
		[]string{"op"},
	)

	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokengate_rejections_total",
			Help: "Total number of rejected operations by error kind",
		},
		[]string{"reason"},
	)

	UpgradesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tokengate_upgrades_total",
		Help: "Total number of completed version swaps",
	})
)

// State metrics.
var (
	PausedState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tokengate_paused",
		Help: "Whether transfers are currently paused (1) or not (0)",
	})

	AllowlistSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tokengate_allowlist_size",
		Help: "Current number of allowlisted accounts",
	})
)

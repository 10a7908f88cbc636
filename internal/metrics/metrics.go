// Package metrics defines the Prometheus instrumentation for the server.
// The collectors are registered via promauto and exposed on /metrics by
// cmd/server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsIngested counts probe records appended to host windows.
	RecordsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "probewatch_records_ingested_total",
			Help: "Total number of probe records appended to host windows",
		},
	)

	// LossesInferred counts ingested records classified as losses.
	LossesInferred = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "probewatch_losses_inferred_total",
			Help: "Total number of ingested records classified as losses",
		},
	)

	// RefreshDuration observes how long one full refresh cycle takes.
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "probewatch_refresh_duration_seconds",
			Help:    "Duration of one refresh cycle across all sources",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// SourceReadFailures counts per-source read errors during refresh.
	SourceReadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "probewatch_source_read_failures_total",
			Help: "Total number of failed log reads per source",
		},
		[]string{"source"},
	)

	// HostsByStatus tracks how many monitored hosts are in each status.
	HostsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "probewatch_hosts",
			Help: "Number of monitored hosts per derived status",
		},
		[]string{"status"},
	)

	// WSClients tracks currently connected dashboard WebSocket clients.
	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "probewatch_ws_clients",
			Help: "Number of connected WebSocket dashboard clients",
		},
	)

	// HTTPRequests counts dashboard API requests.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "probewatch_http_requests_total",
			Help: "Total number of dashboard API requests",
		},
		[]string{"endpoint", "status"},
	)

	// HTTPDuration observes dashboard API request latency.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "probewatch_http_request_duration_seconds",
			Help:    "Dashboard API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

// Package metrics holds the Prometheus collectors served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route template and status.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route template.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// result: completed, replayed, rejected, failed
	CheckoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_checkouts_total",
			Help: "Checkouts by outcome.",
		},
		[]string{"result"},
	)

	// result: sent, failed, dead
	OutboxEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_outbox_events_total",
			Help: "Outbox events processed by the dispatcher.",
		},
		[]string{"result"},
	)

	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_cache_requests_total",
			Help: "Balance cache lookups by result (hit or miss).",
		},
		[]string{"result"},
	)

	ActiveWSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pos_active_ws_clients",
			Help: "Connected live dashboard websocket clients.",
		},
	)
)

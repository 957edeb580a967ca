package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keva_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keva_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Store operation metrics
	storeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keva_store_operations_total",
			Help: "Total number of store operations",
		},
		[]string{"op", "status"}, // op: get, put, delete; status: ok, not_found, error
	)

	storeKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "keva_store_keys",
			Help: "Number of keys currently stored",
		},
	)

	journalSyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "keva_journal_sync_duration_seconds",
			Help:    "Journal fsync duration in seconds",
			Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keva_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // type: minute, hour, requests, data
	)

	// Watch stream metrics
	watchConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "keva_watch_active_connections",
			Help: "Number of active watch WebSocket connections",
		},
	)

	watchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keva_watch_events_total",
			Help: "Total number of change events delivered to watchers",
		},
		[]string{"type"}, // type: put, delete
	)
)

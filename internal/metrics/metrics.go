// Package metrics holds the Prometheus collectors of the playout service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecomputeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playout_recompute_total",
			Help: "Screen recomputations by outcome.",
		},
		[]string{"outcome"},
	)

	RecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "playout_recompute_duration_seconds",
		Help:    "Duration of a single screen recomputation.",
		Buckets: prometheus.DefBuckets,
	})

	LedgerCommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playout_ledger_commits_total",
			Help: "Desired state commits by result (changed, unchanged, conflict).",
		},
		[]string{"result"},
	)

	HeartbeatsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playout_heartbeats_total",
			Help: "Heartbeats handled, labelled by the resulting sync status.",
		},
		[]string{"sync_status"},
	)

	SyncAnomaliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playout_sync_anomalies_total",
			Help: "Heartbeats rejected as sync anomalies.",
		},
		[]string{"reason"},
	)

	ScreenCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playout_screen_cache_hits_total",
		Help: "Screen code lookups served from the LRU cache.",
	})
	ScreenCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playout_screen_cache_misses_total",
		Help: "Screen code lookups that went to the store.",
	})

	NotifyFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playout_notify_failures_total",
		Help: "Sync nudges that could not be published.",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playout_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playout_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

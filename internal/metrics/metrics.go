// Package metrics defines Prometheus metrics for collection-watcher.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cw"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "Whether the last /healthz probe succeeded (1) or failed (0).",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "Whether the last /readyz probe succeeded (1) or failed (0).",
	})
)

// Watcher cycle metrics.
var (
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_total",
		Help:      "Total number of completed poll cycles by outcome.",
	}, []string{"outcome"})

	CyclesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_skipped_total",
		Help:      "Total number of poll triggers dropped because a cycle was in flight.",
	})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cycle_duration_seconds",
		Help:      "Duration of poll cycles in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	LastSeenCollectionID = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_seen_collection_id",
		Help:      "Id of the most recent collection recorded in durable state.",
	})

	PersistenceFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persistence_failures_total",
		Help:      "Total number of state load or save failures.",
	})

	SchedulerNextPollTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_next_poll_timestamp",
		Help:      "Unix timestamp of the next scheduled poll.",
	})
)

// Marketplace API metrics.
var (
	MarketplaceRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "marketplace_requests_total",
		Help:      "Total marketplace API requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	MarketplaceRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "marketplace_request_duration_seconds",
		Help:      "Duration of marketplace API requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
)

// Notification metrics.
var (
	NotificationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of notifications delivered by transport.",
	}, []string{"transport"})

	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total number of notification send failures by transport.",
	}, []string{"transport"})

	NotificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of notification sends in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Aggregator metrics.
var (
	AggregateRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "aggregate_runs_total",
		Help:      "Total aggregator runs by outcome.",
	}, []string{"outcome"})

	AggregateItems = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "aggregate_items",
		Help:      "Number of items aggregated per run.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "convex_monitor",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "convex_monitor",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "convex_monitor",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Polling / trigger metrics ──────────────────────────────────────────

var (
	PollTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "convex_monitor",
		Subsystem: "poll",
		Name:      "total",
		Help:      "Total number of poll invocations per event kind.",
	}, []string{"event", "status"})

	PollDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "convex_monitor",
		Subsystem: "poll",
		Name:      "duration_seconds",
		Help:      "Duration of one poll invocation per event kind.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"event"})

	PollLastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "convex_monitor",
		Subsystem: "poll",
		Name:      "last_success_timestamp",
		Help:      "Unix timestamp of the last successful poll per event kind.",
	}, []string{"event"})

	EventsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "convex_monitor",
		Subsystem: "trigger",
		Name:      "events_emitted_total",
		Help:      "Total change events emitted per event kind.",
	}, []string{"event"})
)

// ── Adapter metrics ────────────────────────────────────────────────────

var (
	AdapterRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "convex_monitor",
		Subsystem: "adapter",
		Name:      "requests_total",
		Help:      "Total upstream API requests per adapter and operation.",
	}, []string{"adapter", "op", "status"})

	AdapterRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "convex_monitor",
		Subsystem: "adapter",
		Name:      "request_duration_seconds",
		Help:      "Upstream API request latency per adapter and operation.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"adapter", "op"})
)

// ── Delivery metrics ───────────────────────────────────────────────────

var (
	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "convex_monitor",
		Subsystem: "dispatch",
		Name:      "deliveries_total",
		Help:      "Total webhook deliveries per event kind.",
	}, []string{"event", "status"})

	DeliveriesDeduplicatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "convex_monitor",
		Subsystem: "dispatch",
		Name:      "deduplicated_total",
		Help:      "Total deliveries suppressed by deduplication.",
	}, []string{"event"})

	TriggerInstancesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "convex_monitor",
		Subsystem: "trigger",
		Name:      "instances_active",
		Help:      "Number of enabled trigger instances.",
	})
)

// Package metrics defines and registers all custom Prometheus metrics for the
// carrier gateway. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default Prometheus registry on package init via
// promauto, so importing the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "carrier"

// ── Carrier call metrics ─────────────────────────────────────────────────────

// CarrierRequestsTotal counts gateway operations against a carrier.
// Labels:
//   - carrier: "UPS", "Endicia"
//   - action: "rates", "track", "time" or "label"
//   - outcome: "ok", "rejected" or "error"
var CarrierRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Total number of carrier operations, by carrier, action and outcome.",
	},
	[]string{"carrier", "action", "outcome"},
)

// CarrierRequestDuration measures one gateway operation end-to-end, including
// parsing.
var CarrierRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "Duration of carrier operations from request build to parsed response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"carrier", "action"},
)

// ── Transport metrics ────────────────────────────────────────────────────────

// HTTPDuration measures a single HTTPS POST to a carrier host.
// Labels:
//   - host: carrier host, e.g. "wwwcie.ups.com"
//   - outcome: "ok", "status", "network" or "open"
var HTTPDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_duration_seconds",
		Help:      "Duration of HTTPS posts to carrier hosts.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	},
	[]string{"host", "outcome"},
)

// BreakerState mirrors each host's circuit breaker: 0 closed, 1 half-open, 2 open.
var BreakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "breaker_state",
		Help:      "Circuit breaker state per carrier host (0 closed, 1 half-open, 2 open).",
	},
	[]string{"host"},
)

// ── Gateway metrics ──────────────────────────────────────────────────────────

// RateCacheTotal counts rate cache lookups.
// Label:
//   - result: "hit" or "miss"
var RateCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_cache_total",
		Help:      "Total number of rate cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// LabelsPurchasedTotal counts labels bought, one per package.
var LabelsPurchasedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "labels_purchased_total",
		Help:      "Total number of package labels purchased, by carrier.",
	},
	[]string{"carrier"},
)

// TrackingQueueDepth tracks the lookups waiting in each dispatcher worker channel.
var TrackingQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tracking_queue_depth",
		Help:      "Current number of tracking lookups pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// Package metrics defines and registers all custom Prometheus metrics for
// jadlog-bot. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics register themselves with the default Prometheus registry at import
// time via promauto; the /metrics endpoint exposes that registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jadlogbot"

// ── Fetch metrics ─────────────────────────────────────────────────────────────

// FetchesTotal counts outbound fetches against the carrier tracking endpoint.
// Label:
//   - result: "ok" (parsed response, possibly empty) or "error" (transport or parse failure)
var FetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetches_total",
		Help:      "Total number of carrier tracking fetches, by result.",
	},
	[]string{"result"},
)

// ── Refresh pass metrics ──────────────────────────────────────────────────────

// RefreshPassesTotal counts completed periodic refresh passes.
var RefreshPassesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_passes_total",
		Help:      "Total number of completed full refresh passes.",
	},
)

// PassDuration measures how long one full pass over all packages takes.
var PassDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pass_duration_seconds",
		Help:      "Duration of one full refresh pass over all stored packages.",
		Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	},
)

// PackagesTracked tracks how many packages the last pass iterated over.
var PackagesTracked = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "packages_tracked",
		Help:      "Number of stored packages seen by the most recent refresh pass.",
	},
)

// ── Package metrics ───────────────────────────────────────────────────────────

// PackagesRegisteredTotal counts successful package registrations.
var PackagesRegisteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packages_registered_total",
		Help:      "Total number of packages registered by users.",
	},
)

// PackagesUpdatedTotal counts refreshes that found a genuine delta.
var PackagesUpdatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packages_updated_total",
		Help:      "Total number of refreshes that replaced a package's events.",
	},
)

// NotificationsSentTotal counts outbound user notifications.
// Label:
//   - kind: "updated", "no_updates", or "stale"
var NotificationsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of notifications delivered to users, by kind.",
	},
	[]string{"kind"},
)

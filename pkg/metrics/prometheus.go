// Package metrics provides Prometheus metrics for the activity verification service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Verification metrics
	verificationsTotal *prometheus.CounterVec
	attemptsTotal      prometheus.Counter
	similarityScore    prometheus.Histogram
	activitiesVerified prometheus.Counter

	// Provider health metrics
	providerErrors prometheus.Counter
	tokenRefreshes prometheus.Counter
	tokenErrors    prometheus.Counter

	// Reconciliation metrics
	reconcileRuns     prometheus.Counter
	reconcileSkipped  prometheus.Counter
	reconcileDuration prometheus.Histogram
	usersProcessed    prometheus.Gauge

	// Leaderboard metrics
	leaderboardSize    prometheus.Gauge
	leaderboardErrors  prometheus.Counter
	notificationErrors prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "komornicka",
		subsystem:        "verification",
		histogramBuckets: prometheus.DefBuckets,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	var auto promauto.Factory
	if m.registry != nil {
		auto = promauto.With(m.registry)
	} else {
		auto = promauto.With(prometheus.DefaultRegisterer)
	}

	m.verificationsTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "outcomes_total",
			Help:      "Verification outcomes by status",
		},
		[]string{"status"},
	)

	m.attemptsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "attempts_total",
		Help:      "Total number of route comparison attempts recorded",
	})

	m.similarityScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "similarity_score",
		Help:      "Distribution of computed similarity scores",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})

	m.activitiesVerified = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "activities_verified_total",
		Help:      "Total number of newly verified activities",
	})

	m.providerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "provider_errors_total",
		Help:      "Total number of activity provider failures (including timeouts)",
	})

	m.tokenRefreshes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "token_refreshes_total",
		Help:      "Total number of credential refreshes performed",
	})

	m.tokenErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "token_errors_total",
		Help:      "Total number of credential lookup or refresh failures",
	})

	m.reconcileRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "reconcile",
		Name:      "runs_total",
		Help:      "Total number of completed reconciliation sweeps",
	})

	m.reconcileSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "reconcile",
		Name:      "ticks_skipped_total",
		Help:      "Scheduler ticks skipped because the active window was closed",
	})

	m.reconcileDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "reconcile",
		Name:      "run_duration_seconds",
		Help:      "Duration of a full reconciliation sweep in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.usersProcessed = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "reconcile",
		Name:      "users_processed",
		Help:      "Number of eligible users processed in the last sweep",
	})

	m.leaderboardSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "leaderboard",
		Name:      "entries",
		Help:      "Number of users present on the leaderboard",
	})

	m.leaderboardErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "leaderboard",
		Name:      "errors_total",
		Help:      "Total number of leaderboard synchronization errors",
	})

	m.notificationErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_errors_total",
		Help:      "Total number of notification delivery failures (never fatal)",
	})
}

// Handler returns an HTTP handler exposing the custom registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}

// Package-level helpers operating on the global manager.

// RecordOutcome counts one verification outcome by status.
func RecordOutcome(status string) {
	globalManager.verificationsTotal.WithLabelValues(status).Inc()
}

// RecordAttempt counts one persisted comparison attempt.
func RecordAttempt() {
	globalManager.attemptsTotal.Inc()
}

// RecordSimilarityScore observes a computed similarity score.
func RecordSimilarityScore(score float64) {
	globalManager.similarityScore.Observe(score)
}

// RecordActivityVerified counts one newly verified activity.
func RecordActivityVerified() {
	globalManager.activitiesVerified.Inc()
}

// RecordProviderError counts one activity provider failure.
func RecordProviderError() {
	globalManager.providerErrors.Inc()
}

// RecordTokenRefresh counts one performed credential refresh.
func RecordTokenRefresh() {
	globalManager.tokenRefreshes.Inc()
}

// RecordTokenError counts one credential failure.
func RecordTokenError() {
	globalManager.tokenErrors.Inc()
}

// RecordReconcileRun counts one completed sweep and its duration in seconds.
func RecordReconcileRun(seconds float64) {
	globalManager.reconcileRuns.Inc()
	globalManager.reconcileDuration.Observe(seconds)
}

// RecordReconcileTickSkipped counts one tick outside the active window.
func RecordReconcileTickSkipped() {
	globalManager.reconcileSkipped.Inc()
}

// UpdateUsersProcessed records the number of users handled in the last sweep.
func UpdateUsersProcessed(n int) {
	globalManager.usersProcessed.Set(float64(n))
}

// UpdateLeaderboardSize records the current number of leaderboard entries.
func UpdateLeaderboardSize(n int) {
	globalManager.leaderboardSize.Set(float64(n))
}

// RecordLeaderboardError counts one leaderboard synchronization failure.
func RecordLeaderboardError() {
	globalManager.leaderboardErrors.Inc()
}

// RecordNotificationError counts one notification delivery failure.
func RecordNotificationError() {
	globalManager.notificationErrors.Inc()
}

// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Simulation metrics
	TicksProcessed    prometheus.Counter
	PositionsOpened   *prometheus.CounterVec
	PositionsClosed   *prometheus.CounterVec
	AssignmentsTotal  *prometheus.CounterVec
	PremiumCollected  prometheus.Counter
	LastTickPrice     prometheus.Gauge
	OpenPositions     prometheus.Gauge

	// Persistence metrics
	PersistErrors   *prometheus.CounterVec
	PersistDuration *prometheus.HistogramVec

	// History metrics
	HistoryFetches      *prometheus.CounterVec
	FallbackActivations prometheus.Counter

	// Health metrics
	LastSuccessfulTick prometheus.Gauge
	UptimeSeconds      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "btcwheel"
	}

	return &Metrics{
		// Simulation metrics
		TicksProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "ticks_processed_total",
			Help:      "Total number of price ticks processed",
		}),
		PositionsOpened: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "positions_opened_total",
			Help:      "Total number of positions opened by option type",
		}, []string{"type"}),
		PositionsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "positions_closed_total",
			Help:      "Total number of positions closed by reason",
		}, []string{"reason"}),
		AssignmentsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "assignments_total",
			Help:      "Total number of option assignments by type",
		}, []string{"type"}),
		PremiumCollected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "premium_collected_usd_total",
			Help:      "Total premium collected in USD",
		}),
		LastTickPrice: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "last_tick_price_usd",
			Help:      "Price of the most recent tick in USD",
		}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "open_positions",
			Help:      "Current number of open positions",
		}),

		// Persistence metrics
		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "persist_errors_total",
			Help:      "Total number of persistence errors by backend and operation",
		}, []string{"backend", "operation"}),
		PersistDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "persist_duration_seconds",
			Help:      "Persistence operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "operation"}),

		// History metrics
		HistoryFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "fetches_total",
			Help:      "Total number of price history fetches by outcome",
		}, []string{"outcome"}),
		FallbackActivations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "fallback_activations_total",
			Help:      "Total number of times the synthetic price fallback was used",
		}),

		// Health metrics
		LastSuccessfulTick: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_tick_timestamp",
			Help:      "Unix timestamp of the last processed tick",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTick records a processed price tick.
func RecordTick(price float64, unixTime int64) {
	DefaultMetrics.TicksProcessed.Inc()
	DefaultMetrics.LastTickPrice.Set(price)
	DefaultMetrics.LastSuccessfulTick.Set(float64(unixTime))
}

// RecordPositionOpened increments the opened counter for an option type.
func RecordPositionOpened(optionType string) {
	DefaultMetrics.PositionsOpened.WithLabelValues(optionType).Inc()
}

// RecordPositionClosed increments the closed counter for a close reason.
func RecordPositionClosed(reason string) {
	DefaultMetrics.PositionsClosed.WithLabelValues(reason).Inc()
}

// RecordAssignment increments the assignment counter for an option type.
func RecordAssignment(optionType string) {
	DefaultMetrics.AssignmentsTotal.WithLabelValues(optionType).Inc()
}

// RecordPremium adds collected premium.
func RecordPremium(amount float64) {
	DefaultMetrics.PremiumCollected.Add(amount)
}

// RecordPersist records a persistence operation.
func RecordPersist(backend, operation string, seconds float64, err error) {
	DefaultMetrics.PersistDuration.WithLabelValues(backend, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.PersistErrors.WithLabelValues(backend, operation).Inc()
	}
}

// RecordHistoryFetch records a history fetch outcome ("ok" or "fallback").
func RecordHistoryFetch(outcome string) {
	DefaultMetrics.HistoryFetches.WithLabelValues(outcome).Inc()
	if outcome == "fallback" {
		DefaultMetrics.FallbackActivations.Inc()
	}
}

// SetOpenPositions updates the open positions gauge.
func SetOpenPositions(n int) {
	DefaultMetrics.OpenPositions.Set(float64(n))
}

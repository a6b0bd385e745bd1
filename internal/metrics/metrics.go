// Package metrics exposes Prometheus counters for the alert pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CyclesTotal counts scheduler cycles per cadence.
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_cycles_total",
			Help: "Number of scheduler cycles run, per frequency",
		},
		[]string{"frequency"},
	)

	// AlertsProcessed counts per-alert outcomes within cycles.
	AlertsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_alerts_processed_total",
			Help: "Alerts processed by the scheduler, per outcome",
		},
		[]string{"outcome"}, // sent | empty | skipped | failed
	)

	// DigestsTotal counts dispatch attempts by delivery outcome.
	DigestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_digests_total",
			Help: "Digest emails dispatched, per outcome",
		},
		[]string{"outcome"}, // sent | failed
	)

	// CycleDuration observes how long one full cycle takes.
	CycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alert_cycle_duration_seconds",
			Help:    "Duration of scheduler cycles",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"frequency"},
	)
)

// Init registers all collectors. Call once from main.
func Init() {
	prometheus.MustRegister(CyclesTotal, AlertsProcessed, DigestsTotal, CycleDuration)
}

// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every collector exported by the service.
const Namespace = "hydrolog"

var (
	RecordsLogged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "records_logged_total",
			Help:      "Water and urine records written to the backend.",
		},
		[]string{"type", "source"},
	)
	UpstreamFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "upstream_failures_total",
			Help:      "Backend calls that failed or answered non-2xx.",
		},
		[]string{"operation"},
	)
	ReportsBuilt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reports_built_total",
			Help:      "Dashboards, reports and exports served.",
		},
		[]string{"kind"},
	)
	RemindersSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reminders_sent_total",
			Help:      "Hydration reminders delivered.",
		},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)
)

var once sync.Once

// Register adds the collectors to the default registry. Safe to call twice.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(RecordsLogged, UpstreamFailures, ReportsBuilt, RemindersSent, RequestDuration)
	})
}

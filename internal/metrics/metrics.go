// Package metrics exposes the engine's Prometheus counters.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "timesheet_"

	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics bundles the engine's metrics on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	ClockOperations    *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	LockContention     prometheus.Counter
	ReportDuration     *prometheus.HistogramVec
}

// New constructs and registers metrics.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ClockOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "clock_operations_total",
				Help: "Total entry lifecycle operations by result",
			},
			[]string{"operation", "result"},
		),
		ValidationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "validation_failures_total",
				Help: "Entry validation failures by failing check",
			},
			[]string{"check"},
		),
		LockContention: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "lock_contention_total",
			Help: "Invoice closeouts aborted because entries were locked",
		}),
		ReportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_duration_seconds",
				Help:    "Report computation time in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"report"},
		),
	}
	m.Registry.MustRegister(
		m.ClockOperations,
		m.ValidationFailures,
		m.LockContention,
		m.ReportDuration,
	)
	return m
}

// ObserveClock counts one lifecycle operation.
func (m *Metrics) ObserveClock(operation, result string) {
	if m == nil {
		return
	}
	m.ClockOperations.WithLabelValues(operation, result).Inc()
}

// ObserveValidationFailure counts one failed check.
func (m *Metrics) ObserveValidationFailure(check string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(check).Inc()
}

// ObserveLockContention counts one aborted closeout.
func (m *Metrics) ObserveLockContention() {
	if m == nil {
		return
	}
	m.LockContention.Inc()
}

// ObserveReport records how long a report took since start.
func (m *Metrics) ObserveReport(report string, start time.Time) {
	if m == nil {
		return
	}
	m.ReportDuration.WithLabelValues(report).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}

// Package metrics holds the Prometheus instruments for the scan-to-catalog workflow.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "isbnscan"

// Lookup outcomes
const (
	LookupFound    = "found"
	LookupNotFound = "not_found"
	LookupFailed   = "failed"
)

// Save outcomes
const (
	SaveSuccess    = "success"
	SaveFailure    = "failure"
	SaveValidation = "validation"
	SaveRejected   = "rejected"
)

// Metrics contains the workflow instruments
type Metrics struct {
	ScansAccepted  prometheus.Counter
	CameraErrors   *prometheus.CounterVec
	Lookups        *prometheus.CounterVec
	LookupDuration prometheus.Histogram
	Saves          *prometheus.CounterVec
}

// New creates the instruments without registering them
func New() *Metrics {
	return &Metrics{
		ScansAccepted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "camera",
				Name:      "scans_accepted_total",
				Help:      "Total number of scanned candidates accepted as ISBNs",
			},
		),

		CameraErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "camera",
				Name:      "errors_total",
				Help:      "Camera failures by stage (enumerate, no_camera, start, stop)",
			},
			[]string{"stage"},
		),

		Lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lookup",
				Name:      "requests_total",
				Help:      "Metadata lookups by outcome",
			},
			[]string{"outcome"},
		),

		LookupDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "lookup",
				Name:      "duration_seconds",
				Help:      "Remote lookup latency in seconds, excluding the loading floor",
				Buckets:   prometheus.DefBuckets,
			},
		),

		Saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "save",
				Name:      "requests_total",
				Help:      "Save attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Register adds every instrument to reg
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.ScansAccepted, m.CameraErrors, m.Lookups, m.LookupDuration, m.Saves} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ScanAccepted() {
	if m == nil {
		return
	}
	m.ScansAccepted.Inc()
}

func (m *Metrics) CameraError(stage string) {
	if m == nil {
		return
	}
	m.CameraErrors.WithLabelValues(stage).Inc()
}

func (m *Metrics) Lookup(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(outcome).Inc()
	m.LookupDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) Save(outcome string) {
	if m == nil {
		return
	}
	m.Saves.WithLabelValues(outcome).Inc()
}

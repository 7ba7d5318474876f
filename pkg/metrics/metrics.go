package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bpchoque"

// Metrics Prometheus collectors of the portal.
type Metrics struct {
	RequestCounter    *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	RequestsInFlight  prometheus.Gauge
	Transitions       *prometheus.CounterVec
	RecomputeTotal    *prometheus.CounterVec
	RecomputeDuration prometheus.Histogram
	ActiveShifts      prometheus.Gauge
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		Transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "approval",
				Name:      "transitions_total",
				Help:      "Approval and lifecycle transitions by record type, action and outcome",
			},
			[]string{"record", "action", "outcome"},
		),
		RecomputeTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ranking",
				Name:      "recompute_total",
				Help:      "Ranking recomputations by outcome",
			},
			[]string{"outcome"},
		),
		RecomputeDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ranking",
				Name:      "recompute_duration_seconds",
				Help:      "Duration of a full ranking recomputation",
				Buckets:   prometheus.DefBuckets,
			},
		),
		ActiveShifts: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "shift",
				Name:      "active",
				Help:      "Shifts currently in progress, as of the last recomputation",
			},
		),
	}
}

// Transition records one lifecycle or approval outcome.
func (m *Metrics) Transition(record, action string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Transitions.WithLabelValues(record, action, outcome).Inc()
}

// Recompute records one ranking refresh.
func (m *Metrics) Recompute(seconds float64, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RecomputeTotal.WithLabelValues(outcome).Inc()
	m.RecomputeDuration.Observe(seconds)
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics counts state transitions and accomplishment report attempts.
type LifecycleMetrics struct {
	transitions    *prometheus.CounterVec
	reports        *prometheus.CounterVec
	reportDuration *prometheus.HistogramVec
}

// NewLifecycleMetrics registers the lifecycle metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "servicedesk",
		Name:      "transitions_total",
		Help:      "Committed lifecycle transitions by entity and target state.",
	}, []string{"entity", "to"})
	reports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "servicedesk",
		Name:      "accomplishment_reports_total",
		Help:      "Accomplishment report attempts by target kind and outcome.",
	}, []string{"target", "outcome"})
	reportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "servicedesk",
		Name:      "accomplishment_report_duration_seconds",
		Help:      "Time spent talking to the accomplishment service per report.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"target"})
	reg.MustRegister(transitions, reports, reportDuration)
	return &LifecycleMetrics{
		transitions:    transitions,
		reports:        reports,
		reportDuration: reportDuration,
	}
}

// IncTransition counts a committed transition, e.g. ("assignment", "Completed").
func (m *LifecycleMetrics) IncTransition(entity, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(entity), normalizeLabel(to)).Inc()
}

// ObserveReport records one report attempt and how long it took.
func (m *LifecycleMetrics) ObserveReport(target, outcome string, duration time.Duration) {
	if m == nil || m.reports == nil {
		return
	}
	target = normalizeLabel(target)
	m.reports.WithLabelValues(target, normalizeLabel(outcome)).Inc()
	m.reportDuration.WithLabelValues(target).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

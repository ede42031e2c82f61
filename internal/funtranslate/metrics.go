package funtranslate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts pipeline stage results. A nil *Metrics records nothing.
type Metrics struct {
	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	outcomeTotal  *prometheus.CounterVec
}

// NewMetrics creates the pipeline collectors and registers them with reg when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "partyplan",
			Subsystem: "fun_translation",
			Name:      "stage_total",
			Help:      "Pipeline stage calls by stage and result",
		}, []string{"stage", "result"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "partyplan",
			Subsystem: "fun_translation",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in one pipeline stage call",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"stage"}),
		outcomeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "partyplan",
			Subsystem: "fun_translation",
			Name:      "outcomes_total",
			Help:      "Pipeline invocations by category and whether a transformation was applied",
		}, []string{"category", "applied"}),
	}
	if reg != nil {
		reg.MustRegister(m.stageTotal, m.stageDuration, m.outcomeTotal)
	}
	return m
}

func (m *Metrics) observeStage(stage Stage, started time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = string(KindOf(err))
	}
	m.stageTotal.WithLabelValues(string(stage), result).Inc()
	m.stageDuration.WithLabelValues(string(stage)).Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeOutcome(category string, applied bool) {
	if m == nil {
		return
	}
	if category == "" {
		category = "unresolved"
	}
	label := "false"
	if applied {
		label = "true"
	}
	m.outcomeTotal.WithLabelValues(category, label).Inc()
}

func (m *Metrics) observeSkipped(stage Stage) {
	if m == nil {
		return
	}
	m.stageTotal.WithLabelValues(string(stage), "skipped").Inc()
}

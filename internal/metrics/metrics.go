// Package metrics exposes Prometheus metrics for reconciliation runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "immich_offline_remover"

	// LabelAction is the outcome of a run (skipped, aborted, previewed, deleted, failed)
	LabelAction = "action"
)

// RunObservation is what a finished run reports
type RunObservation struct {
	Action   string
	Total    int
	Missing  int
	Deleted  int
	Ratio    float64
	Duration time.Duration
	At       time.Time
}

// Metrics holds the collectors for reconciliation runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	runsTotal      *prometheus.CounterVec
	assetsExamined prometheus.Gauge
	assetsMissing  prometheus.Gauge
	missingRatio   prometheus.Gauge
	deletedTotal   prometheus.Counter
	lastRun        prometheus.Gauge
	runDuration    prometheus.Histogram
}

// NewMetrics creates and registers the collectors.
// If registry is nil, metrics are created but not registered.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of reconciliation runs by outcome",
			},
			[]string{LabelAction},
		),
		assetsExamined: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assets_examined",
			Help:      "Number of catalog assets examined in the last run",
		}),
		assetsMissing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assets_missing",
			Help:      "Number of assets whose file was missing in the last run",
		}),
		missingRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "missing_ratio",
			Help:      "Fraction of examined assets that were missing in the last run",
		}),
		deletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_deleted_total",
			Help:      "Total number of assets moved to the trash",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of reconciliation runs",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		}),
	}

	if registry != nil {
		registry.MustRegister(
			m.runsTotal,
			m.assetsExamined,
			m.assetsMissing,
			m.missingRatio,
			m.deletedTotal,
			m.lastRun,
			m.runDuration,
		)
	}

	return m
}

// ObserveRun records the outcome of one run
func (m *Metrics) ObserveRun(obs RunObservation) {
	if m == nil {
		return
	}

	m.runsTotal.WithLabelValues(obs.Action).Inc()
	m.assetsExamined.Set(float64(obs.Total))
	m.assetsMissing.Set(float64(obs.Missing))
	m.missingRatio.Set(obs.Ratio)
	if obs.Deleted > 0 {
		m.deletedTotal.Add(float64(obs.Deleted))
	}
	if !obs.At.IsZero() {
		m.lastRun.Set(float64(obs.At.Unix()))
	}
	m.runDuration.Observe(obs.Duration.Seconds())
}

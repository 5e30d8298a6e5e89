// Package metrics exposes load and run outcomes to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/JonMunkholm/statsetl/internal/etl"
	"github.com/JonMunkholm/statsetl/internal/load"
)

const namespace = "statsetl"

const (
	resultSuccess   = "success"
	resultError     = "error"
	resultCancelled = "cancelled"

	severityError   = "error"
	severityWarning = "warning"
)

// Metrics bundles the ETL collectors. It implements load.Observer and
// etl.RunObserver.
type Metrics struct {
	UnitsTotal       *prometheus.CounterVec
	UnitDuration     prometheus.Histogram
	RowsCreatedTotal prometheus.Counter
	RunsTotal        *prometheus.CounterVec
	IssuesTotal      *prometheus.CounterVec
	RunDuration      prometheus.Histogram
}

// New constructs the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UnitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "units_total",
				Help:      "Match units by load result and the stage that failed",
			},
			[]string{"result", "failed_stage"},
		),
		UnitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "unit_duration_seconds",
			Help:      "Unit transaction duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		RowsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_created_total",
			Help:      "Rows created by committed units",
		}),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Runs by result",
			},
			[]string{"result", "dry_run"},
		),
		IssuesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "issues_total",
				Help:      "Reported issues by layer, code and severity",
			},
			[]string{"layer", "code", "severity"},
		),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}),
	}
	reg.MustRegister(
		m.UnitsTotal,
		m.UnitDuration,
		m.RowsCreatedTotal,
		m.RunsTotal,
		m.IssuesTotal,
		m.RunDuration,
	)
	return m
}

// UnitLoaded records one unit outcome.
func (m *Metrics) UnitLoaded(res load.LoadResult) {
	result := resultSuccess
	if !res.Success {
		result = resultError
	}
	m.UnitsTotal.WithLabelValues(result, string(res.FailedStage)).Inc()
	m.UnitDuration.Observe(res.Duration.Seconds())
	if res.Success {
		m.RowsCreatedTotal.Add(float64(res.RowsCreated))
	}
}

// RunFinished records one run outcome and its issues. Rejected sheets count
// their nested validation errors.
func (m *Metrics) RunFinished(res etl.Result) {
	result := resultSuccess
	switch {
	case res.Cancelled:
		result = resultCancelled
	case !res.Success:
		result = resultError
	}
	dryRun := "false"
	if res.DryRun {
		dryRun = "true"
	}
	m.RunsTotal.WithLabelValues(result, dryRun).Inc()
	m.RunDuration.Observe(float64(res.DurationMs) / 1000)

	for _, w := range res.Warnings {
		m.IssuesTotal.WithLabelValues(string(w.Layer), w.Code, severityWarning).Inc()
	}
	for _, e := range res.Errors {
		m.IssuesTotal.WithLabelValues(string(e.Layer), e.Code, severityError).Inc()
		for _, d := range e.Details {
			m.IssuesTotal.WithLabelValues(string(d.Layer), d.Code, severityError).Inc()
		}
	}
}

// ActiveRuns registers a gauge reporting how many runs hold a slot.
func ActiveRuns(reg prometheus.Registerer, svc *etl.Service) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Runs currently holding a run slot",
		},
		func() float64 { return float64(svc.LimiterStatus().Active) },
	))
}

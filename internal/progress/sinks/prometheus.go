package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/senado-graph-ingest/internal/progress"
)

// PrometheusSink exports run lifecycle metrics.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runsRunning   prometheus.Gauge
	runDuration   prometheus.Histogram

	unitsFinished *prometheus.CounterVec
	unitRecords   *prometheus.CounterVec
	unitDuration  *prometheus.HistogramVec

	running map[string]struct{}
}

// NewPrometheusSink registers the collectors on reg, or on the default
// registerer when reg is nil.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "senado_runs_started_total",
			Help: "Ingestion runs started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "senado_runs_completed_total",
			Help: "Ingestion runs finished, by result.",
		}, []string{"result"}),
		runsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "senado_runs_running",
			Help: "Ingestion runs in progress.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "senado_run_duration_seconds",
			Help:    "Wall time of finished runs.",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		}),
		unitsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "senado_progress_units_total",
			Help: "Units reported through the progress hub, by level and result.",
		}, []string{"level", "result"}),
		unitRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "senado_progress_records_total",
			Help: "Records produced by finished units, by level.",
		}, []string{"level"}),
		unitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "senado_unit_duration_seconds",
			Help:    "Unit wall time, by level.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"level"}),
		running: make(map[string]struct{}),
	}
	for _, c := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runsRunning,
		s.runDuration,
		s.unitsFinished,
		s.unitRecords,
		s.unitDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors. The hub calls it from one goroutine.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageRunStart:
			s.runsStarted.Inc()
			if _, ok := s.running[evt.RunID]; !ok {
				s.running[evt.RunID] = struct{}{}
				s.runsRunning.Inc()
			}
		case progress.StageRunDone:
			result := "success"
			if evt.Note != "" {
				result = "error"
			}
			s.runsCompleted.WithLabelValues(result).Inc()
			if evt.Dur > 0 {
				s.runDuration.Observe(evt.Dur.Seconds())
			}
			if _, ok := s.running[evt.RunID]; ok {
				delete(s.running, evt.RunID)
				s.runsRunning.Dec()
			}
		case progress.StageUnitDone:
			s.unitsFinished.WithLabelValues(evt.Level, "done").Inc()
			s.unitRecords.WithLabelValues(evt.Level).Add(float64(evt.Records))
			s.observeUnit(evt)
		case progress.StageUnitFailed:
			s.unitsFinished.WithLabelValues(evt.Level, "failed").Inc()
			s.observeUnit(evt)
		}
	}
	return nil
}

func (s *PrometheusSink) observeUnit(evt progress.Event) {
	if evt.Dur > 0 {
		s.unitDuration.WithLabelValues(evt.Level).Observe(evt.Dur.Seconds())
	}
}

// Close is a no-op.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

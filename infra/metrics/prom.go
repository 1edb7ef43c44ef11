package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/orplan/core/metrics"
)

// PromSink records runs in Prometheus metrics.
type PromSink struct {
	runs       *prometheus.CounterVec
	rooms      *prometheus.GaugeVec
	duration   *prometheus.HistogramVec
	iterations *prometheus.HistogramVec
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orplan_runs_total",
		Help: "Finished optimizer runs by category and status",
	}, []string{"category", "status"}))
	if err != nil {
		return nil, err
	}
	rooms, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "colgen_rooms_required",
		Help: "Resources required by the latest successful run of a category",
	}, []string{"category"}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orplan_run_duration_seconds",
		Help:    "Wall time of optimizer runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"category"}))
	if err != nil {
		return nil, err
	}
	iterations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orplan_run_iterations",
		Help:    "Columns added by pricing per run",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"category"}))
	if err != nil {
		return nil, err
	}
	return &PromSink{runs: runs, rooms: rooms, duration: duration, iterations: iterations}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun updates the counters for a finished run. Failed runs only
// increment the run counter.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	status := ev.Status
	if ev.Error != "" {
		status = "failed"
	}
	s.runs.WithLabelValues(ev.Category, status).Inc()
	if ev.Error != "" {
		return nil
	}
	s.rooms.WithLabelValues(ev.Category).Set(float64(ev.Rooms))
	s.duration.WithLabelValues(ev.Category).Observe(ev.Duration.Seconds())
	s.iterations.WithLabelValues(ev.Category).Observe(float64(ev.Iterations))
	return nil
}

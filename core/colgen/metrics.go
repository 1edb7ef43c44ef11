package colgen

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	iterationsTotal    prometheus.Counter
	columnsAdded       prometheus.Counter
	masterSolveSeconds *prometheus.HistogramVec
	runsTotal          *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Counter, prometheus.Counter, *prometheus.HistogramVec, *prometheus.CounterVec) {
	it := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "colgen_iterations_total",
		Help: "Number of relaxed master solves followed by pricing",
	})
	cols := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "colgen_columns_added_total",
		Help: "Number of plans added to the pool by pricing",
	})
	lat := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "colgen_master_solve_seconds",
		Help:    "Duration of master problem solves",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "colgen_runs_total",
		Help: "Number of column generation runs by outcome",
	}, []string{"status"})
	return it, cols, lat, runs
}

func init() {
	iterationsTotal, columnsAdded, masterSolveSeconds, runsTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers column generation metrics on the provided
// registry. If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(iterationsTotal, columnsAdded, masterSolveSeconds, runsTotal)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	iterationsTotal, columnsAdded, masterSolveSeconds, runsTotal = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

package metrics

import (
	"time"
)

// RunEvent summarises one finished optimizer run.
type RunEvent struct {
	RunID      string
	Category   string
	Status     string
	Rooms      int
	Objective  float64
	Iterations int
	PoolSize   int
	Duration   time.Duration
	// Error is set for failed runs, whose other outcome fields are zero.
	Error string
	Time  time.Time
}

// RunSink records finished runs.
type RunSink interface {
	RecordRun(ev RunEvent) error
}

// IterationEvent is a snapshot taken after a pricing round.
type IterationEvent struct {
	RunID       string
	Category    string
	Iteration   int
	PoolSize    int
	Objective   float64
	ReducedCost float64
	Time        time.Time
}

// IterationRecorder is implemented by sinks able to record pricing rounds.
type IterationRecorder interface {
	RecordIteration(ev IterationEvent) error
}

// NopSink implements RunSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunEvent) error             { return nil }
func (NopSink) RecordIteration(IterationEvent) error { return nil }

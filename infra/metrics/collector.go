package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/orplan/core/colgen"
	coremetrics "github.com/kilianp07/orplan/core/metrics"
	"github.com/kilianp07/orplan/internal/eventbus"
)

// StartEventCollector subscribes to the controller event bus and records a
// pricing round for every added column or convergence. It stops when the
// context is canceled or the bus is closed. The returned channel is closed
// once the collector has stopped.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[colgen.Event], sink coremetrics.RunSink) <-chan struct{} {
	done := make(chan struct{})
	rec, ok := sink.(coremetrics.IterationRecorder)
	if bus == nil || !ok {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if ev.State != colgen.StateAddColumn && ev.State != colgen.StateConverged {
					continue
				}
				_ = rec.RecordIteration(coremetrics.IterationEvent{
					RunID:       ev.RunID,
					Category:    ev.Category,
					Iteration:   ev.Iteration,
					PoolSize:    ev.PoolSize,
					Objective:   ev.Objective,
					ReducedCost: ev.ReducedCost,
					Time:        ev.Time,
				})
			}
		}
	}()
	return done
}

// RunEvent converts the outcome of a run to a sink record. err is the run
// error; res is ignored when err is set.
func RunEvent(category string, res *colgen.Result, err error) coremetrics.RunEvent {
	if err != nil || res == nil {
		ev := coremetrics.RunEvent{Category: category, Status: "failed", Time: time.Now()}
		if err != nil {
			ev.Error = err.Error()
		}
		return ev
	}
	return coremetrics.RunEvent{
		RunID:      res.RunID,
		Category:   res.Category,
		Status:     res.Status.String(),
		Rooms:      res.Rooms(),
		Objective:  res.Objective,
		Iterations: res.Iterations,
		PoolSize:   res.PoolSize,
		Duration:   res.Duration,
		Time:       res.Started.Add(res.Duration),
	}
}

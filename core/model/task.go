package model

import (
	"fmt"
	"math"
	"time"
)

// Task is a time-bound job, typically a surgical operation, that must be
// assigned to one unit-capacity resource. The interval is half-open: a task
// ending at t does not overlap a task starting at t.
type Task struct {
	ID       string    `json:"id" yaml:"id"`
	Category string    `json:"category,omitempty" yaml:"category"`
	Start    time.Time `json:"start" yaml:"start"`
	End      time.Time `json:"end" yaml:"end"`
	Weight   float64   `json:"weight" yaml:"weight"`
}

// Duration returns the length of the task interval.
func (t Task) Duration() time.Duration { return t.End.Sub(t.Start) }

// Overlaps reports whether t and o share any instant.
func (t Task) Overlaps(o Task) bool {
	return t.Start.Before(o.End) && o.Start.Before(t.End)
}

// ValidationError reports a task rejected before entering the optimizer.
type ValidationError struct {
	TaskID string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("invalid task: %s", e.Reason)
	}
	return fmt.Sprintf("invalid task %q: %s", e.TaskID, e.Reason)
}

// Validate checks a single task.
func (t Task) Validate() error {
	if t.ID == "" {
		return &ValidationError{Reason: "empty id"}
	}
	if t.Start.IsZero() || t.End.IsZero() {
		return &ValidationError{TaskID: t.ID, Reason: "missing start or end"}
	}
	if !t.Start.Before(t.End) {
		return &ValidationError{TaskID: t.ID, Reason: fmt.Sprintf("start %s is not before end %s",
			t.Start.Format(time.RFC3339), t.End.Format(time.RFC3339))}
	}
	if math.IsNaN(t.Weight) || math.IsInf(t.Weight, 0) {
		return &ValidationError{TaskID: t.ID, Reason: fmt.Sprintf("non-finite weight %v", t.Weight)}
	}
	if t.Weight < 0 {
		return &ValidationError{TaskID: t.ID, Reason: fmt.Sprintf("negative weight %v", t.Weight)}
	}
	return nil
}

// ValidateTasks validates every task and rejects duplicate ids.
func ValidateTasks(tasks []Task) error {
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, ok := seen[t.ID]; ok {
			return &ValidationError{TaskID: t.ID, Reason: "duplicate id"}
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

// Index maps task ids to their task.
func Index(tasks []Task) map[string]Task {
	idx := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		idx[t.ID] = t
	}
	return idx
}

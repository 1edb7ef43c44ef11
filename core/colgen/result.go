package colgen

import (
	"fmt"
	"time"

	"github.com/kilianp07/orplan/core/model"
)

// Status summarises how a run ended.
type Status int

const (
	// StatusOptimal means pricing converged and the integer master was
	// solved to optimality over the final pool.
	StatusOptimal Status = iota
	// StatusIterationLimit means pricing was stopped by the iteration cap.
	StatusIterationLimit
	// StatusNodeLimit means the integer master stopped at its node limit.
	StatusNodeLimit
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusIterationLimit:
		return "iteration_limit"
	case StatusNodeLimit:
		return "node_limit"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "optimal":
		*s = StatusOptimal
	case "iteration_limit":
		*s = StatusIterationLimit
	case "node_limit":
		*s = StatusNodeLimit
	default:
		return fmt.Errorf("unknown status %q", string(b))
	}
	return nil
}

// Result is the outcome of one column generation run.
type Result struct {
	RunID    string `json:"run_id"`
	Category string `json:"category,omitempty"`
	Status   Status `json:"status"`
	// Objective is the integer master objective: the number of resources
	// under unit cost.
	Objective float64 `json:"objective"`
	// RelaxedObjectives holds the relaxed master objective of every
	// iteration in order.
	RelaxedObjectives []float64 `json:"relaxed_objectives"`
	// Iterations counts the columns added by pricing.
	Iterations int `json:"iterations"`
	// Plans are the selected plans, a subset of Pool.
	Plans    []model.Plan  `json:"plans"`
	Pool     []model.Plan  `json:"-"`
	PoolSize int           `json:"pool_size"`
	Warning  error         `json:"-"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// Rooms returns the number of resources required.
func (r *Result) Rooms() int { return len(r.Plans) }

// Degraded reports whether the result is not proven optimal.
func (r *Result) Degraded() bool { return r.Status != StatusOptimal }

// Schedules returns one schedule per selected plan with every task listed
// exactly once. A task covered by several selected plans stays in the first
// one; removing tasks from a plan keeps it feasible. Plans left empty are
// omitted.
func (r *Result) Schedules() []model.Plan {
	seen := make(map[string]struct{})
	out := make([]model.Plan, 0, len(r.Plans))
	for _, p := range r.Plans {
		ids := make([]string, 0, len(p.TaskIDs))
		for _, id := range p.TaskIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		if len(ids) > 0 {
			out = append(out, model.Plan{ID: p.ID, TaskIDs: ids})
		}
	}
	return out
}

// Assignment maps every task id to the id of the plan executing it.
func (r *Result) Assignment() map[string]int {
	out := make(map[string]int)
	for _, s := range r.Schedules() {
		for _, id := range s.TaskIDs {
			out[id] = s.ID
		}
	}
	return out
}

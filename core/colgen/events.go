package colgen

import (
	"fmt"
	"time"
)

// State is a step of the column generation loop.
type State int

const (
	StateSeeding State = iota
	StateRelaxedSolve
	StatePricing
	StateAddColumn
	StateConverged
	StateIterationLimit
	StateFinalSolve
	StateDone
)

func (s State) String() string {
	switch s {
	case StateSeeding:
		return "seeding"
	case StateRelaxedSolve:
		return "relaxed_solve"
	case StatePricing:
		return "pricing"
	case StateAddColumn:
		return "add_column"
	case StateConverged:
		return "converged"
	case StateIterationLimit:
		return "iteration_limit"
	case StateFinalSolve:
		return "final_solve"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Event describes a state transition of a run. Objective is the last master
// objective seen and ReducedCost the last pricing result.
type Event struct {
	RunID       string
	Category    string
	State       State
	Iteration   int
	PoolSize    int
	Objective   float64
	ReducedCost float64
	Time        time.Time
}

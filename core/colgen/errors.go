package colgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/orplan/core/master"
)

// ErrUncovered indicates a final selection that leaves a task without a
// plan. It points at a solver defect rather than an input problem.
var ErrUncovered = errors.New("task not covered by selected plans")

// InfeasibleMasterError reports that the master solver found no covering.
// Seeding guarantees a covering exists, so this is always fatal.
type InfeasibleMasterError struct {
	RunID     string
	Iteration int
	Mode      master.Mode
	Err       error
}

func (e *InfeasibleMasterError) Error() string {
	return fmt.Sprintf("run %s iteration %d: %s master infeasible: %v", e.RunID, e.Iteration, e.Mode, e.Err)
}

func (e *InfeasibleMasterError) Unwrap() error { return e.Err }

// SolverTimeoutError reports a master solve that exceeded its time bound.
// The run is aborted; retrying is left to the caller.
type SolverTimeoutError struct {
	RunID     string
	Iteration int
	Mode      master.Mode
	Timeout   time.Duration
}

func (e *SolverTimeoutError) Error() string {
	return fmt.Sprintf("run %s iteration %d: %s solve exceeded %s", e.RunID, e.Iteration, e.Mode, e.Timeout)
}

// Unwrap lets errors.Is(err, context.DeadlineExceeded) match.
func (e *SolverTimeoutError) Unwrap() error { return context.DeadlineExceeded }

// GroupError names the category whose run failed inside SolveGroups.
type GroupError struct {
	Category string
	Err      error
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("category %q: %v", e.Category, e.Err)
}

func (e *GroupError) Unwrap() error { return e.Err }

// NonTerminationWarning is attached to a Result when the iteration cap stopped
// pricing before convergence. The result is valid but may use more resources
// than necessary.
type NonTerminationWarning struct {
	Iterations int
}

func (w *NonTerminationWarning) Error() string {
	return fmt.Sprintf("column generation stopped after %d iterations without converging", w.Iterations)
}

// NodeLimitWarning is attached to a Result when the integer master stopped at
// its node limit and returned its best selection.
type NodeLimitWarning struct{}

func (NodeLimitWarning) Error() string {
	return "integer master stopped at its node limit; selection is not proven optimal"
}

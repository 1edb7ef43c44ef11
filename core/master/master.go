package master

import (
	"context"
	"errors"
	"fmt"
)

// ErrInfeasible indicates that no selection of columns covers every row.
var ErrInfeasible = errors.New("master problem infeasible")

// Mode distinguishes the continuous relaxation from the binary program.
type Mode int

const (
	Relaxed Mode = iota
	Integer
)

func (m Mode) String() string {
	switch m {
	case Relaxed:
		return "relaxed"
	case Integer:
		return "integer"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Problem is a set-covering program: one row per task, one column per plan.
//
//	minimize   Σ Costs[k]·y[k]
//	subject to Σ_{k : i ∈ Columns[k]} y[k] >= 1   for every row i
//	           y[k] ∈ {0,1} (integer) or y[k] >= 0 (relaxed)
type Problem struct {
	Rows    int
	Columns [][]int
	Costs   []float64
}

// Validate checks the problem shape and that every row can be covered.
func (p Problem) Validate() error {
	if p.Rows < 0 {
		return fmt.Errorf("negative row count %d", p.Rows)
	}
	if len(p.Columns) != len(p.Costs) {
		return fmt.Errorf("%d columns but %d costs", len(p.Columns), len(p.Costs))
	}
	covered := make([]bool, p.Rows)
	for k, col := range p.Columns {
		if len(col) == 0 {
			return fmt.Errorf("column %d covers no row", k)
		}
		if p.Costs[k] < 0 {
			return fmt.Errorf("column %d has negative cost %v", k, p.Costs[k])
		}
		for _, i := range col {
			if i < 0 || i >= p.Rows {
				return fmt.Errorf("column %d references row %d out of range", k, i)
			}
			covered[i] = true
		}
	}
	for i, ok := range covered {
		if !ok {
			return fmt.Errorf("row %d: %w", i, ErrInfeasible)
		}
	}
	return nil
}

// Solution is the result of a master solve. Duals is only populated by
// SolveRelaxed; Selected is only populated by SolveInteger.
type Solution struct {
	Objective float64
	Values    []float64
	Selected  []int
	Duals     []float64
	// Truncated is set when the integer search stopped at its node limit and
	// the returned selection is the best one found, not a proven optimum.
	Truncated bool
}

// Solver solves the covering master problem in both modes.
type Solver interface {
	SolveRelaxed(ctx context.Context, p Problem) (Solution, error)
	SolveInteger(ctx context.Context, p Problem) (Solution, error)
}

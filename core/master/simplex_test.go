package master

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/orplan/core/factory"
)

const eps = 1e-6

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

// triangle is the smallest covering program with a fractional optimum:
// every pair of rows shares a column, so the relaxation picks each at 1/2.
func triangle() Problem {
	return Problem{Rows: 3, Columns: [][]int{{0, 1}, {1, 2}, {0, 2}}, Costs: []float64{1, 1, 1}}
}

func TestSolveRelaxed_StrongDuality(t *testing.T) {
	s := NewSimplex(SimplexConfig{})
	p := Problem{Rows: 3, Columns: [][]int{{0, 2}, {1}, {2}}, Costs: []float64{1, 1, 1}}
	sol, err := s.SolveRelaxed(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, 2, sol.Objective, eps)
	require.Len(t, sol.Duals, 3)
	assert.InDelta(t, sol.Objective, sum(sol.Duals), eps)
	assert.Nil(t, sol.Selected)
}

func TestSolveRelaxed_Fractional(t *testing.T) {
	s := NewSimplex(SimplexConfig{})
	sol, err := s.SolveRelaxed(context.Background(), triangle())
	require.NoError(t, err)
	assert.InDelta(t, 1.5, sol.Objective, eps)
	for i, d := range sol.Duals {
		assert.InDelta(t, 0.5, d, eps, "dual %d", i)
	}
	for j, v := range sol.Values {
		assert.InDelta(t, 0.5, v, eps, "value %d", j)
	}
}

func TestSolveInteger_BranchesOnFractional(t *testing.T) {
	s := NewSimplex(SimplexConfig{})
	sol, err := s.SolveInteger(context.Background(), triangle())
	require.NoError(t, err)
	assert.InDelta(t, 2, sol.Objective, eps)
	assert.Len(t, sol.Selected, 2)
	assert.Nil(t, sol.Duals)
	assert.False(t, sol.Truncated)
}

func TestSolveInteger_WeightedCosts(t *testing.T) {
	s := NewSimplex(SimplexConfig{})
	p := Problem{Rows: 2, Columns: [][]int{{0, 1}, {0}, {1}}, Costs: []float64{3, 1, 1}}
	sol, err := s.SolveInteger(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, 2, sol.Objective, eps)
	assert.Equal(t, []int{1, 2}, sol.Selected)
}

// trap combines the fractional triangle with rows where greedy covering
// picks a large column that the optimum avoids.
func trap() Problem {
	return Problem{
		Rows: 9,
		Columns: [][]int{
			{0, 1}, {1, 2}, {0, 2},
			{3, 4, 5, 6}, {3, 4, 7}, {5, 6, 8},
		},
		Costs: []float64{1, 1, 1, 1, 1, 1},
	}
}

func TestSolveInteger_BeatsGreedy(t *testing.T) {
	_, greedy := greedyCover(trap())
	assert.InDelta(t, 5, greedy, eps)

	s := NewSimplex(SimplexConfig{})
	sol, err := s.SolveInteger(context.Background(), trap())
	require.NoError(t, err)
	assert.InDelta(t, 4, sol.Objective, eps)
	assert.NotContains(t, sol.Selected, 3)
	assert.False(t, sol.Truncated)
}

func TestSolveInteger_NodeLimit(t *testing.T) {
	s := NewSimplex(SimplexConfig{NodeLimit: 1})
	sol, err := s.SolveInteger(context.Background(), trap())
	require.NoError(t, err)
	assert.True(t, sol.Truncated)
	assert.InDelta(t, 5, sol.Objective, eps, "greedy incumbent is returned")
	assert.Len(t, sol.Selected, 5)
}

func TestSolve_Infeasible(t *testing.T) {
	s := NewSimplex(SimplexConfig{})
	p := Problem{Rows: 2, Columns: [][]int{{0}}, Costs: []float64{1}}
	_, err := s.SolveRelaxed(context.Background(), p)
	assert.True(t, errors.Is(err, ErrInfeasible), "got %v", err)
	_, err = s.SolveInteger(context.Background(), p)
	assert.True(t, errors.Is(err, ErrInfeasible), "got %v", err)
}

func TestSolve_Empty(t *testing.T) {
	s := NewSimplex(SimplexConfig{})
	sol, err := s.SolveRelaxed(context.Background(), Problem{})
	require.NoError(t, err)
	assert.Empty(t, sol.Duals)
	sol, err = s.SolveInteger(context.Background(), Problem{})
	require.NoError(t, err)
	assert.Empty(t, sol.Selected)
}

func TestProblemValidate(t *testing.T) {
	assert.Error(t, Problem{Rows: 1, Columns: [][]int{{0}}, Costs: nil}.Validate())
	assert.Error(t, Problem{Rows: 1, Columns: [][]int{{}}, Costs: []float64{1}}.Validate())
	assert.Error(t, Problem{Rows: 1, Columns: [][]int{{3}}, Costs: []float64{1}}.Validate())
	assert.Error(t, Problem{Rows: 1, Columns: [][]int{{0}}, Costs: []float64{-1}}.Validate())
	assert.NoError(t, Problem{Rows: 1, Columns: [][]int{{0}}, Costs: []float64{0}}.Validate())
}

// numericalTrouble forces every relaxation onto the lp.Simplex fallback.
func numericalTrouble(t *testing.T) {
	old := relaxedLP
	relaxedLP = func(context.Context, Problem, float64) (lpResult, error) {
		return lpResult{}, fmt.Errorf("%w: forced", errNumerical)
	}
	t.Cleanup(func() { relaxedLP = old })
}

func TestSolveRelaxed_FallbackMatchesRevised(t *testing.T) {
	s := NewSimplex(SimplexConfig{})
	want, err := s.SolveRelaxed(context.Background(), trap())
	require.NoError(t, err)

	numericalTrouble(t)
	got, err := s.SolveRelaxed(context.Background(), trap())
	require.NoError(t, err)
	assert.InDelta(t, want.Objective, got.Objective, eps)
	assert.InDelta(t, got.Objective, sum(got.Duals), eps)
}

func TestSolverErrorIsWrapped(t *testing.T) {
	numericalTrouble(t)
	old := lpSimplex
	lpSimplex = func([]float64, mat.Matrix, []float64, float64, []int) (float64, []float64, error) {
		return 0, nil, errors.New("fail")
	}
	defer func() { lpSimplex = old }()

	s := NewSimplex(SimplexConfig{})
	_, err := s.SolveRelaxed(context.Background(), triangle())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simplex: fail")
}

func TestSolverTimeout(t *testing.T) {
	numericalTrouble(t)
	old := lpSimplex
	release := make(chan struct{})
	entered := make(chan struct{})
	lpSimplex = func([]float64, mat.Matrix, []float64, float64, []int) (float64, []float64, error) {
		close(entered)
		<-release
		return 0, nil, errors.New("late")
	}
	defer func() {
		close(release)
		lpSimplex = old
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	s := NewSimplex(SimplexConfig{})
	_, err := s.SolveRelaxed(ctx, triangle())
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	<-entered
}

func TestSolve_CancelledStopsWithoutFallback(t *testing.T) {
	old := lpSimplex
	lpSimplex = func([]float64, mat.Matrix, []float64, float64, []int) (float64, []float64, error) {
		t.Error("lp.Simplex must not run for a cancelled call")
		return 0, nil, errors.New("unexpected")
	}
	defer func() { lpSimplex = old }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewSimplex(SimplexConfig{})
	_, err := s.SolveRelaxed(ctx, randomProblem(rand.New(rand.NewSource(1)), 40, 80))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.SolveInteger(ctx, trap())
	assert.ErrorIs(t, err, context.Canceled)
}

// randomProblem builds a coverable program: one singleton column per row
// plus cols random columns of up to six rows with costs in [1, 3).
func randomProblem(r *rand.Rand, rows, cols int) Problem {
	p := Problem{Rows: rows}
	for i := 0; i < rows; i++ {
		p.Columns = append(p.Columns, []int{i})
		p.Costs = append(p.Costs, 1+2*r.Float64())
	}
	for k := 0; k < cols; k++ {
		seen := map[int]bool{}
		var col []int
		for j := 1 + r.Intn(6); j > 0; j-- {
			if i := r.Intn(rows); !seen[i] {
				seen[i] = true
				col = append(col, i)
			}
		}
		p.Columns = append(p.Columns, col)
		p.Costs = append(p.Costs, 1+2*r.Float64())
	}
	return p
}

func TestSolveRelaxed_DualsAreOptimal(t *testing.T) {
	s := NewSimplex(SimplexConfig{})
	for seed := int64(1); seed <= 5; seed++ {
		p := randomProblem(rand.New(rand.NewSource(seed)), 60, 150)
		sol, err := s.SolveRelaxed(context.Background(), p)
		require.NoError(t, err, "seed %d", seed)

		want, _, err := primal(p, s.cfg.Tolerance)
		require.NoError(t, err, "seed %d", seed)
		assert.InDelta(t, want, sol.Objective, 1e-5, "seed %d", seed)
		assert.InDelta(t, sol.Objective, sum(sol.Duals), 1e-5, "seed %d", seed)
		for k, col := range p.Columns {
			var lhs float64
			for _, i := range col {
				lhs += sol.Duals[i]
			}
			assert.LessOrEqual(t, lhs, p.Costs[k]+1e-6, "seed %d column %d", seed, k)
		}
		for i, d := range sol.Duals {
			assert.GreaterOrEqual(t, d, 0.0, "seed %d dual %d", seed, i)
		}
	}
}

func TestSolveInteger_RandomAgainstRelaxation(t *testing.T) {
	s := NewSimplex(SimplexConfig{})
	p := randomProblem(rand.New(rand.NewSource(7)), 25, 40)
	relaxed, err := s.SolveRelaxed(context.Background(), p)
	require.NoError(t, err)
	sol, err := s.SolveInteger(context.Background(), p)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sol.Objective, relaxed.Objective-eps)

	covered := make([]bool, p.Rows)
	var cost float64
	for _, k := range sol.Selected {
		cost += p.Costs[k]
		for _, i := range p.Columns[k] {
			covered[i] = true
		}
	}
	assert.InDelta(t, sol.Objective, cost, eps)
	for i, ok := range covered {
		assert.True(t, ok, "row %d uncovered", i)
	}
}

func TestNewSolverFromConfig(t *testing.T) {
	s, err := NewSolver(factory.ModuleConfig{Conf: map[string]any{"node_limit": 50}})
	require.NoError(t, err)
	sx, ok := s.(*Simplex)
	require.True(t, ok)
	assert.Equal(t, 50, sx.cfg.NodeLimit)
	assert.Equal(t, 1e-8, sx.cfg.Tolerance)

	_, err = NewSolver(factory.ModuleConfig{Type: "cplex"})
	assert.Error(t, err)
	_, err = NewSolver(factory.ModuleConfig{Conf: map[string]any{"tolerance": 0.5}})
	assert.Error(t, err)
}

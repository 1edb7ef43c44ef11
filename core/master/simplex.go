package master

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// SimplexConfig tunes the gonum based solver.
type SimplexConfig struct {
	// Tolerance is passed to lp.Simplex as the optimality tolerance.
	Tolerance float64 `json:"tolerance"`
	// NodeLimit bounds the number of branch-and-bound nodes explored by
	// SolveInteger. Zero means unlimited.
	NodeLimit int `json:"node_limit"`
}

// SetDefaults applies sane defaults.
func (c *SimplexConfig) SetDefaults() {
	if c.Tolerance <= 0 {
		c.Tolerance = 1e-8
	}
	if c.NodeLimit == 0 {
		c.NodeLimit = 10000
	}
}

// Validate checks the configuration.
func (c SimplexConfig) Validate() error {
	if c.Tolerance <= 0 || c.Tolerance > 1e-3 {
		return fmt.Errorf("tolerance %v out of range (0, 1e-3]", c.Tolerance)
	}
	if c.NodeLimit < 0 {
		return fmt.Errorf("node_limit must not be negative")
	}
	return nil
}

// Simplex solves the covering master problem with a revised simplex over
// gonum matrices, falling back to gonum's lp.Simplex. Integer solves use
// branch-and-bound over the same LP.
type Simplex struct {
	cfg SimplexConfig
}

// NewSimplex returns a solver using cfg with defaults applied.
func NewSimplex(cfg SimplexConfig) *Simplex {
	cfg.SetDefaults()
	return &Simplex{cfg: cfg}
}

// lpSimplex points to the fallback LP routine. It can be overridden in tests
// to simulate solver failures.
var lpSimplex = lp.Simplex

// SolveRelaxed solves the continuous relaxation and returns one dual price per
// row, read off the optimal basis so that Objective equals the sum of Duals.
func (s *Simplex) SolveRelaxed(ctx context.Context, p Problem) (Solution, error) {
	if err := p.Validate(); err != nil {
		return Solution{}, err
	}
	if p.Rows == 0 {
		return Solution{Values: make([]float64, len(p.Columns)), Duals: []float64{}}, nil
	}
	res, err := s.relax(ctx, p, true)
	if err != nil {
		return Solution{}, err
	}
	return Solution{Objective: res.objective, Values: res.values, Duals: res.duals}, nil
}

// SolveInteger solves the binary covering program. Duals are never set.
func (s *Simplex) SolveInteger(ctx context.Context, p Problem) (Solution, error) {
	if err := p.Validate(); err != nil {
		return Solution{}, err
	}
	if p.Rows == 0 {
		return Solution{Values: make([]float64, len(p.Columns)), Selected: []int{}}, nil
	}
	return s.branchAndBound(ctx, p)
}

// relax solves the relaxed program with the revised simplex. When that loses
// accuracy the program is handed to lp.Simplex, which has no basis to offer,
// so the duals then come from a second solve of the dual program.
func (s *Simplex) relax(ctx context.Context, p Problem, withDuals bool) (lpResult, error) {
	res, err := relaxedLP(ctx, p, s.cfg.Tolerance)
	if !errors.Is(err, errNumerical) {
		return res, err
	}
	var fallback lpResult
	err = withContext(ctx, func() error {
		obj, values, err := primal(p, s.cfg.Tolerance)
		if err != nil {
			return err
		}
		fallback = lpResult{objective: obj, values: values}
		if withDuals {
			fallback.duals, err = dual(p, s.cfg.Tolerance)
		}
		return err
	})
	if err != nil {
		return lpResult{}, err
	}
	return fallback, nil
}

// primal solves min cᵀy s.t. Ay - s = 1, y, s >= 0 and returns the objective
// and the column values.
func primal(p Problem, tol float64) (float64, []float64, error) {
	n, k := p.Rows, len(p.Columns)
	A := mat.NewDense(n, k+n, nil)
	for j, col := range p.Columns {
		for _, i := range col {
			A.Set(i, j, 1)
		}
	}
	for i := 0; i < n; i++ {
		A.Set(i, k+i, -1)
	}
	c := make([]float64, k+n)
	copy(c, p.Costs)
	b := make([]float64, n)
	for i := range b {
		b[i] = 1
	}
	opt, x, err := lpSimplex(c, A, b, tol, nil)
	if err != nil {
		return 0, nil, mapLPError(err)
	}
	values := make([]float64, k)
	for j := range values {
		if x[j] > 0 {
			values[j] = x[j]
		}
	}
	return opt, values, nil
}

// dual solves min -1ᵀπ s.t. Aᵀπ + t = c, π, t >= 0. The slack columns form
// an identity basis that is feasible because costs are non-negative.
func dual(p Problem, tol float64) ([]float64, error) {
	n, k := p.Rows, len(p.Columns)
	A := mat.NewDense(k, n+k, nil)
	basic := make([]int, k)
	for j, col := range p.Columns {
		for _, i := range col {
			A.Set(j, i, 1)
		}
		A.Set(j, n+j, 1)
		basic[j] = n + j
	}
	c := make([]float64, n+k)
	for i := 0; i < n; i++ {
		c[i] = -1
	}
	b := make([]float64, k)
	copy(b, p.Costs)
	_, x, err := lpSimplex(c, A, b, tol, basic)
	if err != nil {
		return nil, mapLPError(err)
	}
	duals := make([]float64, n)
	for i := range duals {
		if x[i] > 0 {
			duals[i] = x[i]
		}
	}
	return duals, nil
}

func mapLPError(err error) error {
	if errors.Is(err, lp.ErrInfeasible) {
		return fmt.Errorf("%w: %v", ErrInfeasible, err)
	}
	return fmt.Errorf("simplex: %w", err)
}

// withContext runs fn in its own goroutine so that a blocking solve can be
// abandoned when ctx expires. fn keeps running in the background until it
// returns; callers must not read its results after a context error.
func withContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("simplex panic: %v", r)
			}
		}()
		done <- fn()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

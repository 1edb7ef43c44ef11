package master

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// errNumerical reports that the revised simplex lost accuracy. Callers fall
// back to lp.Simplex when they see it.
var errNumerical = errors.New("revised simplex: numerical trouble")

const (
	pivotTol      = 1e-9
	refactorEvery = 64
)

// lpResult is an optimal basic solution of the relaxed covering program.
type lpResult struct {
	objective float64
	values    []float64
	duals     []float64
}

// relaxedLP points to the routine solving the relaxed covering program. It
// can be overridden in tests to force the lp.Simplex fallback.
var relaxedLP = revised

// revised solves
//
//	minimize cᵀy  subject to  Ay - s + a = 1,  y, s, a >= 0
//
// with a revised primal simplex that keeps an explicit basis inverse. The
// artificial columns a start as the basis and carry a cost above every column
// cost, so none stays basic at an optimum of a coverable program. The basis
// has one entry per row whatever the pool size, and the dual prices come out
// of it directly as π = B⁻ᵀ c_B.
func revised(ctx context.Context, p Problem, tol float64) (lpResult, error) {
	n, k := p.Rows, len(p.Columns)
	big := 1.0
	for _, c := range p.Costs {
		big = math.Max(big, 2*c+1)
	}
	// Variables: [0,k) columns, [k,k+n) surplus, [k+n,k+2n) artificial.
	total := k + 2*n
	cost := func(j int) float64 {
		switch {
		case j < k:
			return p.Costs[j]
		case j < k+n:
			return 0
		default:
			return big
		}
	}

	basic := make([]int, n)
	inBasis := make([]bool, total)
	cb := mat.NewVecDense(n, nil)
	xb := make([]float64, n)
	binv := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		basic[i] = k + n + i
		inBasis[k+n+i] = true
		cb.SetVec(i, big)
		xb[i] = 1
		binv.Set(i, i, 1)
	}

	pi := mat.NewVecDense(n, nil)
	u := make([]float64, n)
	degenerate, pivots := 0, 0
	maxPivots := 50*(n+k) + 1000
	for {
		if err := ctx.Err(); err != nil {
			return lpResult{}, err
		}
		pi.MulVec(binv.T(), cb)

		enter, best := -1, -tol
		bland := degenerate > n
		for j := 0; j < total; j++ {
			if inBasis[j] {
				continue
			}
			var d float64
			switch {
			case j < k:
				d = p.Costs[j]
				for _, i := range p.Columns[j] {
					d -= pi.AtVec(i)
				}
			case j < k+n:
				d = pi.AtVec(j - k)
			default:
				d = big - pi.AtVec(j-k-n)
			}
			if d < best {
				enter, best = j, d
				if bland {
					break
				}
			}
		}
		if enter < 0 {
			break
		}

		// u = B⁻¹ a_enter
		switch {
		case enter < k:
			for r := 0; r < n; r++ {
				row := binv.RawRowView(r)
				var v float64
				for _, i := range p.Columns[enter] {
					v += row[i]
				}
				u[r] = v
			}
		case enter < k+n:
			for r := 0; r < n; r++ {
				u[r] = -binv.At(r, enter-k)
			}
		default:
			for r := 0; r < n; r++ {
				u[r] = binv.At(r, enter-k-n)
			}
		}

		leave, step := -1, math.Inf(1)
		for r := 0; r < n; r++ {
			if u[r] <= pivotTol {
				continue
			}
			t := xb[r] / u[r]
			switch {
			case leave < 0 || t < step-pivotTol:
				leave, step = r, t
			case t <= step+pivotTol:
				if bland && basic[r] < basic[leave] || !bland && u[r] > u[leave] {
					leave, step = r, math.Min(step, t)
				}
			}
		}
		if leave < 0 {
			return lpResult{}, fmt.Errorf("%w: unbounded direction on column %d", errNumerical, enter)
		}
		if step <= tol {
			degenerate++
		} else {
			degenerate = 0
		}

		for r := range xb {
			xb[r] -= step * u[r]
		}
		xb[leave] = step
		pivotRow := binv.RawRowView(leave)
		for c := range pivotRow {
			pivotRow[c] /= u[leave]
		}
		for r := 0; r < n; r++ {
			if r == leave || u[r] == 0 {
				continue
			}
			row := binv.RawRowView(r)
			f := u[r]
			for c := range row {
				row[c] -= f * pivotRow[c]
			}
		}
		inBasis[basic[leave]] = false
		inBasis[enter] = true
		basic[leave] = enter
		cb.SetVec(leave, cost(enter))

		pivots++
		if pivots >= maxPivots {
			return lpResult{}, fmt.Errorf("%w: no optimum after %d pivots", errNumerical, pivots)
		}
		if pivots%refactorEvery == 0 {
			if err := refactor(binv, xb, basic, p); err != nil {
				return lpResult{}, err
			}
		}
	}

	res := lpResult{values: make([]float64, k), duals: make([]float64, n)}
	for r, j := range basic {
		v := math.Max(xb[r], 0)
		switch {
		case j < k:
			res.values[j] = v
			res.objective += p.Costs[j] * v
		case j >= k+n && v > math.Sqrt(tol):
			return lpResult{}, fmt.Errorf("%w: row %d only covered by its artificial column", ErrInfeasible, j-k-n)
		}
	}
	for i := range res.duals {
		res.duals[i] = math.Max(pi.AtVec(i), 0)
	}
	return res, nil
}

// refactor recomputes the basis inverse and the basic values from scratch to
// shed the error accumulated by the row updates.
func refactor(binv *mat.Dense, xb []float64, basic []int, p Problem) error {
	n, k := p.Rows, len(p.Columns)
	b := mat.NewDense(n, n, nil)
	for c, j := range basic {
		switch {
		case j < k:
			for _, i := range p.Columns[j] {
				b.Set(i, c, 1)
			}
		case j < k+n:
			b.Set(j-k, c, -1)
		default:
			b.Set(j-k-n, c, 1)
		}
	}
	if err := binv.Inverse(b); err != nil {
		return fmt.Errorf("%w: %v", errNumerical, err)
	}
	for r := 0; r < n; r++ {
		var v float64
		for _, x := range binv.RawRowView(r) {
			v += x
		}
		if v < -1e-7 {
			return fmt.Errorf("%w: basic value %g lost feasibility", errNumerical, v)
		}
		xb[r] = math.Max(v, 0)
	}
	return nil
}

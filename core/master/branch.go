package master

import (
	"context"
	"errors"
	"math"
	"sort"
)

const (
	integralityTol = 1e-6
	costTol        = 1e-9
)

type node struct {
	// fixed holds one entry per column: 0 free, 1 forced in, -1 forced out.
	fixed []int8
}

func (n node) with(col int, v int8) node {
	f := make([]int8, len(n.fixed))
	copy(f, n.fixed)
	f[col] = v
	return node{fixed: f}
}

// subproblem is the covering program left once fixed columns are applied.
type subproblem struct {
	problem   Problem
	columns   []int // subproblem column -> original column
	fixedIn   []int
	fixedCost float64
}

// restrict removes rows covered by forced-in columns and drops forced-out
// columns. It reports false when a remaining row has no candidate column.
func restrict(p Problem, fixed []int8) (subproblem, bool) {
	var sp subproblem
	covered := make([]bool, p.Rows)
	for k, f := range fixed {
		if f != 1 {
			continue
		}
		sp.fixedIn = append(sp.fixedIn, k)
		sp.fixedCost += p.Costs[k]
		for _, i := range p.Columns[k] {
			covered[i] = true
		}
	}
	rowMap := make([]int, p.Rows)
	n := 0
	for i := range rowMap {
		if covered[i] {
			rowMap[i] = -1
			continue
		}
		rowMap[i] = n
		n++
	}
	sp.problem.Rows = n
	reach := make([]bool, n)
	for k, f := range fixed {
		if f != 0 {
			continue
		}
		var col []int
		for _, i := range p.Columns[k] {
			if r := rowMap[i]; r >= 0 {
				col = append(col, r)
				reach[r] = true
			}
		}
		if len(col) == 0 {
			continue
		}
		sp.problem.Columns = append(sp.problem.Columns, col)
		sp.problem.Costs = append(sp.problem.Costs, p.Costs[k])
		sp.columns = append(sp.columns, k)
	}
	for _, ok := range reach {
		if !ok {
			return sp, false
		}
	}
	return sp, true
}

// greedyCover picks columns by best newly-covered-rows per cost until every
// row is covered. It provides the initial incumbent for branch-and-bound.
func greedyCover(p Problem) ([]int, float64) {
	covered := make([]bool, p.Rows)
	used := make([]bool, len(p.Columns))
	left := p.Rows
	var sel []int
	var cost float64
	for left > 0 {
		best, bestRatio := -1, -1.0
		for k, col := range p.Columns {
			if used[k] {
				continue
			}
			gain := 0
			for _, i := range col {
				if !covered[i] {
					gain++
				}
			}
			if gain == 0 {
				continue
			}
			ratio := float64(gain) / math.Max(p.Costs[k], costTol)
			if ratio > bestRatio {
				best, bestRatio = k, ratio
			}
		}
		if best < 0 {
			return nil, math.Inf(1)
		}
		used[best] = true
		sel = append(sel, best)
		cost += p.Costs[best]
		for _, i := range p.Columns[best] {
			if !covered[i] {
				covered[i] = true
				left--
			}
		}
	}
	return sel, cost
}

func integralCosts(costs []float64) bool {
	for _, c := range costs {
		if math.Abs(c-math.Round(c)) > costTol {
			return false
		}
	}
	return true
}

// branchAndBound explores the binary program depth first, forcing the most
// fractional column in before forcing it out. ctx is checked before every
// node and inside every relaxation, so an expired call stops promptly.
func (s *Simplex) branchAndBound(ctx context.Context, p Problem) (Solution, error) {
	best, bestCost := greedyCover(p)
	integral := integralCosts(p.Costs)
	stack := []node{{fixed: make([]int8, len(p.Columns))}}
	nodes := 0
	truncated := false
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return Solution{}, err
		}
		if s.cfg.NodeLimit > 0 && nodes >= s.cfg.NodeLimit {
			truncated = true
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		sp, ok := restrict(p, nd.fixed)
		if !ok {
			continue
		}
		if sp.problem.Rows == 0 {
			if sp.fixedCost < bestCost-costTol {
				best, bestCost = sp.fixedIn, sp.fixedCost
			}
			continue
		}
		lpr, err := s.relax(ctx, sp.problem, false)
		if err != nil {
			if errors.Is(err, ErrInfeasible) {
				continue
			}
			return Solution{}, err
		}
		values := lpr.values
		bound := sp.fixedCost + lpr.objective
		if integral {
			bound = math.Ceil(bound - integralityTol)
		}
		if bound >= bestCost-costTol {
			continue
		}

		branch, frac := -1, 0.0
		for j, v := range values {
			f := v - math.Floor(v)
			if d := math.Min(f, 1-f); d > integralityTol && d > frac {
				branch, frac = j, d
			}
		}
		if branch < 0 {
			sel := append([]int(nil), sp.fixedIn...)
			cost := sp.fixedCost
			for j, v := range values {
				if v > 0.5 {
					sel = append(sel, sp.columns[j])
					cost += p.Costs[sp.columns[j]]
				}
			}
			if cost < bestCost-costTol {
				best, bestCost = sel, cost
			}
			continue
		}
		col := sp.columns[branch]
		stack = append(stack, nd.with(col, -1), nd.with(col, 1))
	}
	if math.IsInf(bestCost, 1) {
		return Solution{}, ErrInfeasible
	}
	sort.Ints(best)
	values := make([]float64, len(p.Columns))
	for _, k := range best {
		values[k] = 1
	}
	return Solution{Objective: bestCost, Values: values, Selected: best, Truncated: truncated}, nil
}

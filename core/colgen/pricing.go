package colgen

import (
	"fmt"
	"sort"

	"github.com/kilianp07/orplan/core/model"
)

// Epsilon is the reduced cost tolerance. A candidate plan improves the
// relaxed master only when its reduced cost is below -Epsilon.
const Epsilon = 1e-6

// CostModel prices a plan as Fixed plus, when TaskWeighted is set, the sum
// of its task weights. The default {Fixed: 1} counts resources.
type CostModel struct {
	Fixed        float64 `json:"fixed"`
	TaskWeighted bool    `json:"task_weighted"`
}

// UnitCost charges one unit per plan.
func UnitCost() CostModel { return CostModel{Fixed: 1} }

// Validate checks the cost model.
func (c CostModel) Validate() error {
	if c.Fixed < 0 {
		return fmt.Errorf("fixed plan cost must not be negative")
	}
	if c.Fixed == 0 && !c.TaskWeighted {
		return fmt.Errorf("cost model charges nothing: set fixed > 0 or task_weighted")
	}
	return nil
}

// TaskCost is the additive cost a task contributes to its plan.
func (c CostModel) TaskCost(t model.Task) float64 {
	if c.TaskWeighted {
		return t.Weight
	}
	return 0
}

// PlanCost returns the cost of a plan made of tasks.
func (c CostModel) PlanCost(tasks []model.Task) float64 {
	cost := c.Fixed
	for _, t := range tasks {
		cost += c.TaskCost(t)
	}
	return cost
}

type priced struct {
	task  model.Task
	value float64
}

// Price solves the pricing subproblem: the set of pairwise non-overlapping
// tasks maximising Σ (dual - task cost). This is weighted interval scheduling,
// solved by dynamic programming over tasks sorted by end time with a binary
// search for the last compatible predecessor.
//
// It returns the candidate plan (id -1, not yet pooled), its reduced cost and
// whether the reduced cost is below -Epsilon.
func Price(tasks []model.Task, duals map[string]float64, cost CostModel) (model.Plan, float64, bool) {
	items := make([]priced, 0, len(tasks))
	for _, t := range tasks {
		if v := duals[t.ID] - cost.TaskCost(t); v > 0 {
			items = append(items, priced{task: t, value: v})
		}
	}
	if len(items) == 0 {
		return model.Plan{ID: -1}, cost.Fixed, false
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i].task, items[j].task
		if !a.End.Equal(b.End) {
			return a.End.Before(b.End)
		}
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.ID < b.ID
	})

	n := len(items)
	// best[j] is the optimum over the first j items; pred[j] is the number of
	// items ending at or before item j starts.
	best := make([]float64, n+1)
	pred := make([]int, n)
	for j, it := range items {
		start := it.task.Start
		pred[j] = sort.Search(j, func(i int) bool { return items[i].task.End.After(start) })
		if take := it.value + best[pred[j]]; take > best[j] {
			best[j+1] = take
		} else {
			best[j+1] = best[j]
		}
	}

	var chosen []model.Task
	for j := n; j > 0; {
		it := items[j-1]
		if it.value+best[pred[j-1]] > best[j-1] {
			chosen = append(chosen, it.task)
			j = pred[j-1]
			continue
		}
		j--
	}

	var dualSum float64
	for _, t := range chosen {
		dualSum += duals[t.ID]
	}
	reduced := cost.PlanCost(chosen) - dualSum
	return model.NewPlan(-1, chosen), reduced, reduced < -Epsilon
}

package colgen

import (
	"fmt"

	"github.com/kilianp07/orplan/core/model"
)

// Pool is the append-only set of plans generated during one run. Plan ids are
// positions in the pool. Plans covering an already known task set are
// rejected so that pricing cannot cycle on the same column.
type Pool struct {
	tasks map[string]model.Task
	plans []model.Plan
	keys  map[string]int
}

// NewPool returns an empty pool for the given task set.
func NewPool(tasks []model.Task) *Pool {
	return &Pool{tasks: model.Index(tasks), keys: make(map[string]int)}
}

// Add stores plan under the next free id. It returns false without error when
// an identical task set is already present. Plans referencing unknown tasks,
// empty plans and plans with overlapping tasks are rejected with an error.
func (p *Pool) Add(plan model.Plan) (model.Plan, bool, error) {
	if len(plan.TaskIDs) == 0 {
		return model.Plan{}, false, fmt.Errorf("empty plan")
	}
	tasks := make([]model.Task, 0, len(plan.TaskIDs))
	for _, id := range plan.TaskIDs {
		t, ok := p.tasks[id]
		if !ok {
			return model.Plan{}, false, fmt.Errorf("plan references unknown task %q", id)
		}
		tasks = append(tasks, t)
	}
	if !Feasible(tasks) {
		return model.Plan{}, false, fmt.Errorf("plan %v contains overlapping tasks", plan.TaskIDs)
	}
	key := plan.Key()
	if id, ok := p.keys[key]; ok {
		return p.plans[id], false, nil
	}
	stored := model.NewPlan(len(p.plans), tasks)
	p.keys[key] = stored.ID
	p.plans = append(p.plans, stored)
	return stored, true, nil
}

// Len returns the number of plans in the pool.
func (p *Pool) Len() int { return len(p.plans) }

// Plan returns the plan with the given id.
func (p *Pool) Plan(id int) model.Plan { return p.plans[id] }

// Plans returns a copy of the pool contents in generation order.
func (p *Pool) Plans() []model.Plan {
	out := make([]model.Plan, len(p.plans))
	copy(out, p.plans)
	return out
}

// Tasks resolves a plan's tasks.
func (p *Pool) Tasks(plan model.Plan) []model.Task { return plan.Tasks(p.tasks) }

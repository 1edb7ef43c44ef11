package model

import (
	"sort"
	"strings"
)

// Plan is one resource schedule: a set of pairwise non-overlapping tasks.
// Plans are never mutated after creation.
type Plan struct {
	ID      int      `json:"id"`
	TaskIDs []string `json:"task_ids"`
}

// NewPlan builds a plan from tasks, ordering ids by task start.
func NewPlan(id int, tasks []Task) Plan {
	sorted := make([]Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })
	ids := make([]string, len(sorted))
	for i, t := range sorted {
		ids[i] = t.ID
	}
	return Plan{ID: id, TaskIDs: ids}
}

// Key returns a canonical representation of the plan's task set. Two plans
// covering the same tasks have the same key regardless of id or order.
func (p Plan) Key() string {
	ids := make([]string, len(p.TaskIDs))
	copy(ids, p.TaskIDs)
	sort.Strings(ids)
	return strings.Join(ids, "\x1f")
}

// Contains reports whether the plan covers the task id.
func (p Plan) Contains(id string) bool {
	for _, t := range p.TaskIDs {
		if t == id {
			return true
		}
	}
	return false
}

// Tasks resolves the plan's task ids against idx. Unknown ids are skipped.
func (p Plan) Tasks(idx map[string]Task) []Task {
	out := make([]Task, 0, len(p.TaskIDs))
	for _, id := range p.TaskIDs {
		if t, ok := idx[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

package colgen

import (
	"sort"

	"github.com/kilianp07/orplan/core/model"
)

// byStart orders tasks by start, then end, then id so that seeding is
// deterministic.
func byStart(tasks []model.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if !a.End.Equal(b.End) {
			return a.End.Before(b.End)
		}
		return a.ID < b.ID
	})
}

// Seed partitions tasks into plans with a first-fit scan: each pass walks the
// remaining tasks by start time, accepts a task when it starts at or after the
// end of the last accepted one and defers it otherwise. Every task ends up in
// exactly one plan and the number of plans never exceeds the maximum overlap
// depth of the input.
func Seed(tasks []model.Task) []model.Plan {
	remaining := make([]model.Task, len(tasks))
	copy(remaining, tasks)
	byStart(remaining)

	var plans []model.Plan
	for len(remaining) > 0 {
		var accepted, deferred []model.Task
		for _, t := range remaining {
			if len(accepted) == 0 || !t.Start.Before(accepted[len(accepted)-1].End) {
				accepted = append(accepted, t)
				continue
			}
			deferred = append(deferred, t)
		}
		plans = append(plans, model.NewPlan(len(plans), accepted))
		remaining = deferred
	}
	return plans
}

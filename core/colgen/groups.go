package colgen

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/orplan/core/model"
)

// Partition splits tasks by category. Categories share no constraint in the
// master problem, so each group can be solved on its own.
func Partition(tasks []model.Task) map[string][]model.Task {
	groups := make(map[string][]model.Task)
	for _, t := range tasks {
		groups[t.Category] = append(groups[t.Category], t)
	}
	return groups
}

// SolveGroups runs one independent column generation per category, at most
// Config.Parallelism at a time. The first fatal error cancels the remaining
// runs and is returned as a *GroupError.
func SolveGroups(ctx context.Context, c *Controller, tasks []model.Task) (map[string]*Result, error) {
	if err := model.ValidateTasks(tasks); err != nil {
		return nil, err
	}
	groups := Partition(tasks)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Parallelism)

	var mu sync.Mutex
	out := make(map[string]*Result, len(groups))
	for category, group := range groups {
		category, group := category, group
		g.Go(func() error {
			res, err := c.run(gctx, category, group)
			if err != nil {
				return &GroupError{Category: category, Err: err}
			}
			mu.Lock()
			out[category] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// TotalRooms sums the resources required over all groups.
func TotalRooms(results map[string]*Result) int {
	n := 0
	for _, r := range results {
		n += r.Rooms()
	}
	return n
}

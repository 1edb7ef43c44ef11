package colgen

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/kilianp07/orplan/core/model"
)

var day = time.Date(2024, 12, 4, 0, 0, 0, 0, time.UTC)

// task builds a unit-weight task over [start, end) hours.
func task(id string, start, end int) model.Task {
	return model.Task{
		ID:     id,
		Start:  day.Add(time.Duration(start) * time.Hour),
		End:    day.Add(time.Duration(end) * time.Hour),
		Weight: 1,
	}
}

func randomTasks(r *rand.Rand, n int) []model.Task {
	tasks := make([]model.Task, n)
	for i := range tasks {
		start := r.Intn(10)
		tasks[i] = task(fmt.Sprintf("t%02d", i), start, start+1+r.Intn(4))
		tasks[i].Weight = float64(r.Intn(3))
	}
	return tasks
}

// maxDepth returns the largest number of tasks running at the same instant,
// which is the minimum number of resources for interval tasks.
func maxDepth(tasks []model.Task) int {
	type ev struct {
		at    time.Time
		delta int
	}
	evs := make([]ev, 0, 2*len(tasks))
	for _, t := range tasks {
		evs = append(evs, ev{t.Start, 1}, ev{t.End, -1})
	}
	sort.Slice(evs, func(i, j int) bool {
		if !evs[i].at.Equal(evs[j].at) {
			return evs[i].at.Before(evs[j].at)
		}
		return evs[i].delta < evs[j].delta
	})
	depth, best := 0, 0
	for _, e := range evs {
		depth += e.delta
		if depth > best {
			best = depth
		}
	}
	return best
}

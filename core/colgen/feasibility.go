package colgen

import (
	"sort"

	"github.com/kilianp07/orplan/core/model"
)

// Feasible reports whether the tasks are pairwise non-overlapping. The input
// is not modified.
func Feasible(tasks []model.Task) bool {
	if len(tasks) < 2 {
		return true
	}
	sorted := make([]model.Task, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start.Before(sorted[i-1].End) {
			return false
		}
	}
	return true
}

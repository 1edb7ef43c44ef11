package history

import (
	"context"
	"sort"
	"time"

	"github.com/kilianp07/orplan/core/colgen"
)

// Schedule lists the tasks executed by one resource.
type Schedule struct {
	Plan    int      `json:"plan"`
	TaskIDs []string `json:"task_ids"`
}

// RunRecord captures one optimizer run.
type RunRecord struct {
	RunID      string        `json:"run_id"`
	Timestamp  time.Time     `json:"timestamp"`
	Source     string        `json:"source,omitempty"`
	Category   string        `json:"category,omitempty"`
	Tasks      int           `json:"tasks"`
	Status     string        `json:"status"`
	Rooms      int           `json:"rooms"`
	Objective  float64       `json:"objective"`
	Iterations int           `json:"iterations"`
	PoolSize   int           `json:"pool_size"`
	Duration   time.Duration `json:"duration"`
	Schedules  []Schedule    `json:"schedules,omitempty"`
	Warning    string        `json:"warning,omitempty"`
}

// FromResult builds the record of a successful run over tasks inputs.
func FromResult(res *colgen.Result, source string, tasks int) RunRecord {
	rec := RunRecord{
		RunID:      res.RunID,
		Timestamp:  res.Started,
		Source:     source,
		Category:   res.Category,
		Tasks:      tasks,
		Status:     res.Status.String(),
		Rooms:      res.Rooms(),
		Objective:  res.Objective,
		Iterations: res.Iterations,
		PoolSize:   res.PoolSize,
		Duration:   res.Duration,
	}
	for _, s := range res.Schedules() {
		rec.Schedules = append(rec.Schedules, Schedule{Plan: s.ID, TaskIDs: s.TaskIDs})
	}
	if res.Warning != nil {
		rec.Warning = res.Warning.Error()
	}
	return rec
}

// Query defines filters for retrieving records.
type Query struct {
	Start    time.Time
	End      time.Time
	Category string
	// Limit keeps only the most recent records when positive.
	Limit int
}

func (q Query) match(r RunRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Category != "" && r.Category != q.Category {
		return false
	}
	return true
}

// finish orders records chronologically and applies the limit.
func (q Query) finish(res []RunRecord) []RunRecord {
	sort.SliceStable(res, func(i, j int) bool { return res[i].Timestamp.Before(res[j].Timestamp) })
	if q.Limit > 0 && len(res) > q.Limit {
		res = res[len(res)-q.Limit:]
	}
	return res
}

// Store persists RunRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q Query) ([]RunRecord, error)
	Close() error
}

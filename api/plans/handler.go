// Package plans exposes the optimizer over HTTP.
package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/kilianp07/orplan/core/colgen"
	"github.com/kilianp07/orplan/core/history"
	"github.com/kilianp07/orplan/core/model"
	"github.com/kilianp07/orplan/ingest"
	"github.com/kilianp07/orplan/pkg/export"
)

// Planner runs the optimizer and serves past runs.
type Planner interface {
	Plan(ctx context.Context, tasks []model.Task, byCategory bool, source string) (map[string]*colgen.Result, error)
	Runs(ctx context.Context, q history.Query) ([]history.RunRecord, error)
}

// SolveRequest is the body of POST /api/plans/solve. Tasks take the same
// shape as a JSON input file: a missing weight is 1 and times without a zone
// are read as UTC.
type SolveRequest struct {
	Tasks      []ingest.Record `json:"tasks"`
	ByCategory bool            `json:"by_category"`
	// Categories restricts the request to these specialties.
	Categories []string `json:"categories,omitempty"`
}

// RunSummary describes one run of a solve response.
type RunSummary struct {
	RunID      string  `json:"run_id"`
	Category   string  `json:"category,omitempty"`
	Status     string  `json:"status"`
	Rooms      int     `json:"rooms"`
	Objective  float64 `json:"objective"`
	Iterations int     `json:"iterations"`
	PoolSize   int     `json:"pool_size"`
	Warning    string  `json:"warning,omitempty"`
}

// SolveResponse is returned by POST /api/plans/solve.
type SolveResponse struct {
	TotalRooms  int            `json:"total_rooms"`
	Runs        []RunSummary   `json:"runs"`
	Assignments []export.Entry `json:"assignments"`
}

// NewSolveHandler returns the handler of POST /api/plans/solve. maxTasks
// rejects larger requests when positive.
func NewSolveHandler(p Planner, maxTasks int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req SolveRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid body: %v", err), http.StatusBadRequest)
			return
		}
		all, err := ingest.Convert(req.Tasks, time.UTC)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid task: %v", err), http.StatusBadRequest)
			return
		}
		tasks := ingest.Filter(all, req.Categories)
		if maxTasks > 0 && len(tasks) > maxTasks {
			http.Error(w, fmt.Sprintf("%d tasks exceed the limit of %d", len(tasks), maxTasks), http.StatusRequestEntityTooLarge)
			return
		}
		results, err := p.Plan(r.Context(), tasks, req.ByCategory, "api")
		if err != nil {
			http.Error(w, err.Error(), statusOf(err))
			return
		}
		writeJSON(w, http.StatusOK, newSolveResponse(tasks, results))
	})
}

func newSolveResponse(tasks []model.Task, results map[string]*colgen.Result) SolveResponse {
	resp := SolveResponse{
		TotalRooms:  colgen.TotalRooms(results),
		Runs:        []RunSummary{},
		Assignments: export.Entries(tasks, results),
	}
	for _, c := range sortedCategories(results) {
		res := results[c]
		s := RunSummary{
			RunID:      res.RunID,
			Category:   res.Category,
			Status:     res.Status.String(),
			Rooms:      res.Rooms(),
			Objective:  res.Objective,
			Iterations: res.Iterations,
			PoolSize:   res.PoolSize,
		}
		if res.Warning != nil {
			s.Warning = res.Warning.Error()
		}
		resp.Runs = append(resp.Runs, s)
	}
	if resp.Assignments == nil {
		resp.Assignments = []export.Entry{}
	}
	return resp
}

// statusOf maps optimizer errors to HTTP codes: malformed input is the
// caller's fault, a solver timeout is a gateway timeout and everything else
// is an internal failure.
func statusOf(err error) int {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// NewHistoryHandler returns the handler of GET /api/plans/history. It
// accepts start and end (RFC3339), category and limit query parameters.
func NewHistoryHandler(p Planner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := history.Query{Category: r.URL.Query().Get("category")}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			q.Limit = n
		}
		recs, err := p.Runs(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if recs == nil {
			recs = []history.RunRecord{}
		}
		writeJSON(w, http.StatusOK, recs)
	})
}

// NewMux mounts the plan handlers and an optional metrics handler.
func NewMux(p Planner, maxTasks int, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/plans/solve", NewSolveHandler(p, maxTasks))
	mux.Handle("/api/plans/history", NewHistoryHandler(p))
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sortedCategories(results map[string]*colgen.Result) []string {
	cats := make([]string, 0, len(results))
	for c := range results {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

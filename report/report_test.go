package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kilianp07/orplan/core/colgen"
	"github.com/kilianp07/orplan/core/history"
	"github.com/kilianp07/orplan/core/model"
)

var day = time.Date(2024, 12, 4, 0, 0, 0, 0, time.UTC)

func TestRender(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Start: day.Add(8 * time.Hour), End: day.Add(10 * time.Hour)},
		{ID: "b", Start: day.Add(9 * time.Hour), End: day.Add(11 * time.Hour)},
		{ID: "c", Start: day.Add(10 * time.Hour), End: day.Add(12 * time.Hour)},
	}
	results := map[string]*colgen.Result{
		"": {
			Status: colgen.StatusIterationLimit,
			Plans: []model.Plan{
				{ID: 0, TaskIDs: []string{"a", "c"}},
				{ID: 1, TaskIDs: []string{"b"}},
			},
			Objective: 2,
			Warning:   errors.New("stopped early"),
		},
	}
	var buf bytes.Buffer
	if err := Render(&buf, tasks, results); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"All tasks",
		"Room 1",
		"a 08:00-10:00, c 10:00-12:00",
		"b 09:00-11:00",
		"iteration_limit",
		"warning: stopped early",
		"Total rooms required: 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHistory(&buf, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "no runs recorded") {
		t.Fatalf("unexpected empty output: %s", buf.String())
	}

	buf.Reset()
	recs := []history.RunRecord{{RunID: "r1", Timestamp: day, Category: "ortho", Tasks: 4, Rooms: 2, Status: "optimal"}}
	if err := RenderHistory(&buf, recs); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "r1") || !strings.Contains(out, "ortho") || !strings.Contains(out, "2 rooms") {
		t.Fatalf("unexpected output: %s", out)
	}
}

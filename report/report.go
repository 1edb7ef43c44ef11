// Package report renders optimizer results for terminals.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kilianp07/orplan/core/colgen"
	"github.com/kilianp07/orplan/core/history"
	"github.com/kilianp07/orplan/core/model"
)

const clock = "15:04"

// Render writes one panel per category listing the tasks of every room,
// followed by the total number of rooms.
func Render(w io.Writer, tasks []model.Task, results map[string]*colgen.Result) error {
	idx := model.Index(tasks)
	cats := make([]string, 0, len(results))
	for c := range results {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	var blocks []string
	for _, c := range cats {
		blocks = append(blocks, renderResult(c, results[c], idx))
	}
	total := titleStyle.Render(fmt.Sprintf("Total rooms required: %d", colgen.TotalRooms(results)))
	blocks = append(blocks, total)
	_, err := io.WriteString(w, lipgloss.JoinVertical(lipgloss.Left, blocks...)+"\n")
	return err
}

func renderResult(category string, res *colgen.Result, idx map[string]model.Task) string {
	name := category
	if name == "" {
		name = "All tasks"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(name))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(fmt.Sprintf("%d rooms, objective %.3g, %d iterations, pool %d, ",
		res.Rooms(), res.Objective, res.Iterations, res.PoolSize)))
	b.WriteString(statusText(res.Status.String()))
	b.WriteString("\n")
	for i, s := range res.Schedules() {
		b.WriteString("\n")
		b.WriteString(roomStyle.Render(fmt.Sprintf("Room %d", i+1)))
		parts := make([]string, 0, len(s.TaskIDs))
		for _, id := range s.TaskIDs {
			t := idx[id]
			parts = append(parts, fmt.Sprintf("%s %s-%s", id, t.Start.Format(clock), t.End.Format(clock)))
		}
		b.WriteString(strings.Join(parts, ", "))
	}
	if res.Warning != nil {
		b.WriteString("\n\n")
		b.WriteString(warningStyle.Render("warning: " + res.Warning.Error()))
	}
	return boxStyle.Render(b.String())
}

// RenderHistory writes one line per recorded run.
func RenderHistory(w io.Writer, recs []history.RunRecord) error {
	if len(recs) == 0 {
		_, err := io.WriteString(w, subtleStyle.Render("no runs recorded")+"\n")
		return err
	}
	lines := []string{titleStyle.Render("Recorded runs")}
	for _, r := range recs {
		cat := r.Category
		if cat == "" {
			cat = "-"
		}
		line := fmt.Sprintf("%s  %-36s  %-14s  %3d tasks  %3d rooms  %s  %s",
			r.Timestamp.Local().Format(time.DateTime), r.RunID, cat, r.Tasks, r.Rooms,
			statusText(r.Status), subtleStyle.Render(r.Duration.Round(time.Millisecond).String()))
		if r.Source != "" {
			line += "  " + subtleStyle.Render(r.Source)
		}
		lines = append(lines, line)
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

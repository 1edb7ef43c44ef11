// Package export writes room schedules for consumption by other tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/kilianp07/orplan/core/colgen"
	"github.com/kilianp07/orplan/core/model"
)

// Entry is one task placed in a room.
type Entry struct {
	Category string    `json:"category,omitempty"`
	Room     int       `json:"room"`
	TaskID   string    `json:"task_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// Entries flattens results into one entry per task, ordered by category,
// room and start time. Rooms are numbered from 1 within each category.
func Entries(tasks []model.Task, results map[string]*colgen.Result) []Entry {
	idx := model.Index(tasks)
	cats := make([]string, 0, len(results))
	for c := range results {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	var out []Entry
	for _, c := range cats {
		for i, s := range results[c].Schedules() {
			for _, id := range s.TaskIDs {
				t := idx[id]
				out = append(out, Entry{Category: c, Room: i + 1, TaskID: id, Start: t.Start, End: t.End})
			}
		}
	}
	return out
}

// WriteJSON writes the entries to w in JSON format.
func WriteJSON(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// WriteCSV writes the entries to w in CSV format.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"category", "room", "task_id", "start", "end"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.Category,
			strconv.Itoa(e.Room),
			e.TaskID,
			e.Start.Format(time.RFC3339),
			e.End.Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

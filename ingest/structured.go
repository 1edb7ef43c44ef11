package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/orplan/core/model"
)

// Stamp holds a timestamp as written: a string in one of the layouts
// ParseTime accepts or a number of seconds.
type Stamp string

func (s *Stamp) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = Stamp(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("timestamp must be a string or a number: %s", b)
	}
	*s = Stamp(n.String())
	return nil
}

// Record is the JSON and YAML shape of a task. Times are parsed after
// decoding so the same formats as CSV are accepted. A missing weight
// defaults to 1.
type Record struct {
	ID       string   `json:"id" yaml:"id"`
	Category string   `json:"category" yaml:"category"`
	Start    Stamp    `json:"start" yaml:"start"`
	End      Stamp    `json:"end" yaml:"end"`
	Weight   *float64 `json:"weight" yaml:"weight"`
}

// document accepts either a bare list or an object with a tasks key.
type document struct {
	Tasks []Record `json:"tasks" yaml:"tasks"`
}

func decodeJSON(r io.Reader, loc *time.Location) ([]model.Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		var doc document
		if derr := json.Unmarshal(data, &doc); derr != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		recs = doc.Tasks
	}
	return Convert(recs, loc)
}

func decodeYAML(r io.Reader, loc *time.Location) ([]model.Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var recs []Record
	if err := yaml.Unmarshal(data, &recs); err != nil {
		var doc document
		if derr := yaml.Unmarshal(data, &doc); derr != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		recs = doc.Tasks
	}
	return Convert(recs, loc)
}

// Convert turns decoded records into tasks, reading local times in loc.
func Convert(recs []Record, loc *time.Location) ([]model.Task, error) {
	tasks := make([]model.Task, 0, len(recs))
	for i, rec := range recs {
		t := model.Task{ID: rec.ID, Category: rec.Category, Weight: 1}
		if rec.Weight != nil {
			t.Weight = *rec.Weight
		}
		var err error
		if t.Start, err = ParseTime(string(rec.Start), loc); err != nil {
			return nil, fmt.Errorf("task %d (%s): start: %w", i, rec.ID, err)
		}
		if t.End, err = ParseTime(string(rec.End), loc); err != nil {
			return nil, fmt.Errorf("task %d (%s): end: %w", i, rec.ID, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Package ingest loads tasks from CSV, JSON or YAML files.
//
// CSV files need a header row. Column names are trimmed and matched without
// regard to case; the Spanish headers of the hospital scheduling exports
// ("Código operación", "Especialidad quirúrgica", "Hora inicio", "Hora fin")
// are accepted as aliases of id, category, start and end.
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/orplan/core/model"
)

// Options control how tasks are read.
type Options struct {
	// Categories keeps only tasks of these categories when non-empty.
	Categories []string `json:"categories"`
	// Location is used for timestamps without a zone. Defaults to UTC.
	Location *time.Location `json:"-"`
	// Format forces "csv", "json" or "yaml" instead of using the extension.
	Format string `json:"format"`
}

// Load reads the task file at path.
func Load(path string, opts Options) ([]model.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if opts.Format == "" {
		opts.Format = formatOf(path)
	}
	tasks, err := Decode(bytes.NewReader(data), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tasks, nil
}

// Decode reads tasks in opts.Format from r, applies the category filter and
// validates the result.
func Decode(r io.Reader, opts Options) ([]model.Task, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	var (
		tasks []model.Task
		err   error
	)
	switch strings.ToLower(opts.Format) {
	case "csv":
		tasks, err = decodeCSV(r, opts.Location)
	case "json":
		tasks, err = decodeJSON(r, opts.Location)
	case "yaml", "yml":
		tasks, err = decodeYAML(r, opts.Location)
	default:
		return nil, fmt.Errorf("unsupported task format %q", opts.Format)
	}
	if err != nil {
		return nil, err
	}
	tasks = Filter(tasks, opts.Categories)
	if err := model.ValidateTasks(tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Filter keeps the tasks whose category is listed. An empty list keeps all.
func Filter(tasks []model.Task, categories []string) []model.Task {
	if len(categories) == 0 {
		return tasks
	}
	keep := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		keep[strings.TrimSpace(c)] = struct{}{}
	}
	out := tasks[:0:0]
	for _, t := range tasks {
		if _, ok := keep[t.Category]; ok {
			out = append(out, t)
		}
	}
	return out
}

func formatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// Epoch seconds of 0001-01-01 and 9999-12-31T23:59:59 UTC.
const (
	minUnix = -62135596800
	maxUnix = 253402300799
)

// ParseTime accepts RFC3339, "2006-01-02 15:04:05" style local times or
// a number of seconds since the Unix epoch.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(secs) || secs < minUnix || secs > maxUnix {
			return time.Time{}, fmt.Errorf("epoch timestamp %q out of range", s)
		}
		whole := int64(secs)
		return time.Unix(whole, int64((secs-float64(whole))*1e9)).UTC(), nil
	}
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/orplan/core/model"
)

var headerAliases = map[string]string{
	"id":                      "id",
	"task_id":                 "id",
	"código operación":        "id",
	"codigo operacion":        "id",
	"category":                "category",
	"specialty":               "category",
	"especialidad quirúrgica": "category",
	"especialidad quirurgica": "category",
	"start":                   "start",
	"hora inicio":             "start",
	"end":                     "end",
	"hora fin":                "end",
	"weight":                  "weight",
}

func decodeCSV(r io.Reader, loc *time.Location) ([]model.Task, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canon, ok := headerAliases[name]; ok {
			cols[canon] = i
		}
	}
	for _, req := range []string{"id", "start", "end"} {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("missing %q column", req)
		}
	}

	var tasks []model.Task
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if strings.Join(rec, "") == "" {
			continue
		}
		t := model.Task{ID: field("id"), Category: field("category"), Weight: 1}
		if t.Start, err = ParseTime(field("start"), loc); err != nil {
			return nil, fmt.Errorf("line %d: start: %w", line, err)
		}
		if t.End, err = ParseTime(field("end"), loc); err != nil {
			return nil, fmt.Errorf("line %d: end: %w", line, err)
		}
		if w := field("weight"); w != "" {
			if t.Weight, err = strconv.ParseFloat(w, 64); err != nil {
				return nil, fmt.Errorf("line %d: weight: %w", line, err)
			}
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

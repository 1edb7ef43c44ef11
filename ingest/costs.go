package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/kilianp07/orplan/core/model"
)

// Costs is a room by operation cost matrix: Costs[room][taskID]. A room
// without an entry for an operation cannot host it.
type Costs map[string]map[string]float64

// LoadCosts reads a cost matrix from a CSV file. The header row lists the
// operation codes after a leading label cell; every following row starts
// with the room name. Empty cells are left out of the matrix.
func LoadCosts(path string) (Costs, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	costs, err := DecodeCosts(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return costs, nil
}

// DecodeCosts reads a cost matrix in the LoadCosts layout from r.
func DecodeCosts(r io.Reader) (Costs, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty cost matrix")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, errors.New("cost matrix header lists no operation")
	}
	ops := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header[1:] {
		op := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if op == "" {
			return nil, fmt.Errorf("column %d: empty operation code", i+2)
		}
		if _, dup := seen[op]; dup {
			return nil, fmt.Errorf("duplicate operation %q", op)
		}
		seen[op] = struct{}{}
		ops[i+1] = op
	}

	costs := make(Costs)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		room := strings.TrimSpace(rec[0])
		if room == "" && strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}
		if room == "" {
			return nil, fmt.Errorf("line %d: empty room name", line)
		}
		if _, dup := costs[room]; dup {
			return nil, fmt.Errorf("line %d: duplicate room %q", line, room)
		}
		row := make(map[string]float64, len(rec)-1)
		for i := 1; i < len(rec) && i < len(ops); i++ {
			cell := strings.TrimSpace(rec[i])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, ops[i], err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return nil, fmt.Errorf("line %d: %s: cost %v must be finite and non-negative", line, ops[i], v)
			}
			row[ops[i]] = v
		}
		costs[room] = row
	}
	if len(costs) == 0 {
		return nil, errors.New("cost matrix lists no room")
	}
	return costs, nil
}

// Rooms returns the room names in order.
func (c Costs) Rooms() []string {
	rooms := make([]string, 0, len(c))
	for r := range c {
		rooms = append(rooms, r)
	}
	sort.Strings(rooms)
	return rooms
}

// Mean returns the average cost of op over the rooms able to host it.
func (c Costs) Mean(op string) (float64, bool) {
	var sum float64
	n := 0
	for _, row := range c {
		if v, ok := row[op]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// ApplyCosts sets each task weight to the mean cost of its operation over the
// rooms. Every task id must appear in the matrix; the first one missing is
// reported as a *model.ValidationError. tasks is not modified.
func ApplyCosts(tasks []model.Task, costs Costs) ([]model.Task, error) {
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		w, ok := costs.Mean(t.ID)
		if !ok {
			return nil, &model.ValidationError{TaskID: t.ID, Reason: "no cost in any room"}
		}
		t.Weight = w
		out[i] = t
	}
	return out, nil
}

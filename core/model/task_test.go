package model

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 12, 4, 8, 0, 0, 0, time.UTC)

func at(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

func TestTaskOverlaps(t *testing.T) {
	a := Task{ID: "a", Start: at(0), End: at(2)}
	b := Task{ID: "b", Start: at(1), End: at(3)}
	c := Task{ID: "c", Start: at(2), End: at(4)}
	assert.True(t, a.Overlaps(b))
	assert.True(t, b.Overlaps(a))
	assert.False(t, a.Overlaps(c), "touching intervals do not overlap")
	assert.True(t, b.Overlaps(c))
}

func TestValidateTasks(t *testing.T) {
	ok := []Task{{ID: "a", Start: at(0), End: at(1), Weight: 1}}
	require.NoError(t, ValidateTasks(ok))

	cases := map[string][]Task{
		"inverted":  {{ID: "a", Start: at(2), End: at(1)}},
		"empty":     {{ID: "a", Start: at(1), End: at(1)}},
		"no id":     {{Start: at(0), End: at(1)}},
		"weight":    {{ID: "a", Start: at(0), End: at(1), Weight: -1}},
		"nan":       {{ID: "a", Start: at(0), End: at(1), Weight: math.NaN()}},
		"inf":       {{ID: "a", Start: at(0), End: at(1), Weight: math.Inf(1)}},
		"duplicate": {{ID: "a", Start: at(0), End: at(1)}, {ID: "a", Start: at(2), End: at(3)}},
		"zero time": {{ID: "a", End: at(1)}},
	}
	for name, tasks := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidateTasks(tasks)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
		})
	}
}

func TestPlanKey(t *testing.T) {
	a := Task{ID: "a", Start: at(0), End: at(1)}
	b := Task{ID: "b", Start: at(1), End: at(2)}
	p1 := NewPlan(0, []Task{b, a})
	p2 := NewPlan(5, []Task{a, b})
	assert.Equal(t, []string{"a", "b"}, p1.TaskIDs)
	assert.Equal(t, p1.Key(), p2.Key())
	assert.True(t, p1.Contains("b"))
	assert.False(t, p1.Contains("c"))
	assert.Len(t, p1.Tasks(Index([]Task{a, b})), 2)
}

// Package mqtt defines how finished plans are announced to downstream
// systems such as theatre displays.
package mqtt

import (
	"context"
	"time"

	"github.com/kilianp07/orplan/core/colgen"
)

// RoomSchedule lists the tasks assigned to one resource, in start order.
type RoomSchedule struct {
	Room    int      `json:"room"`
	TaskIDs []string `json:"task_ids"`
}

// PlanMessage is the payload published for every successful run.
type PlanMessage struct {
	RunID       string         `json:"run_id"`
	Category    string         `json:"category,omitempty"`
	Status      string         `json:"status"`
	Rooms       int            `json:"rooms"`
	Objective   float64        `json:"objective"`
	Schedules   []RoomSchedule `json:"schedules"`
	PublishedAt time.Time      `json:"published_at"`
}

// NewPlanMessage builds the message for res. Rooms are numbered from 1.
func NewPlanMessage(res *colgen.Result, now time.Time) PlanMessage {
	msg := PlanMessage{
		RunID:       res.RunID,
		Category:    res.Category,
		Status:      res.Status.String(),
		Rooms:       res.Rooms(),
		Objective:   res.Objective,
		Schedules:   []RoomSchedule{},
		PublishedAt: now,
	}
	for i, s := range res.Schedules() {
		msg.Schedules = append(msg.Schedules, RoomSchedule{Room: i + 1, TaskIDs: s.TaskIDs})
	}
	return msg
}

// Publisher announces plans.
type Publisher interface {
	Publish(ctx context.Context, msg PlanMessage) error
}

// NopPublisher drops every message.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, PlanMessage) error { return nil }

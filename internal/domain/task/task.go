// Package task defines the Task domain entity tracked by the coordinator.
package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a task. Transitions are monotonic:
// pending → assigned → complete, never skipping and never reverting.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAssigned Status = "assigned"
	StatusComplete Status = "complete"
)

// Type identifies the pipeline stage a task belongs to.
type Type string

const (
	TypePlan    Type = "plan"
	TypeCode    Type = "code"
	TypeReview  Type = "review"
	TypeGeneric Type = "generic"
)

// Task represents a unit of work assigned to one worker agent.
// RequestID, once set at creation, never changes.
type Task struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Payload     any       `json:"payload,omitempty"`
	Status      Status    `json:"status"`
	Assignee    string    `json:"assignee,omitempty"`
	Type        Type      `json:"type"`
	RequestID   string    `json:"request_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// New creates a pending task with a fresh ID.
func New(description string, payload any, taskType Type, requestID string) *Task {
	return &Task{
		ID:          uuid.NewString(),
		Description: description,
		Payload:     payload,
		Status:      StatusPending,
		Type:        taskType,
		RequestID:   requestID,
		CreatedAt:   time.Now(),
	}
}

// Assign moves the task to assigned and records the assignee.
func (t *Task) Assign(agentName string) error {
	if t.Status != StatusPending {
		return fmt.Errorf("task %s is %s, expected pending", t.ID, t.Status)
	}
	t.Status = StatusAssigned
	t.Assignee = agentName
	return nil
}

// Complete moves the task to complete. Completing an already complete task
// is a no-op so duplicate results stay harmless.
func (t *Task) Complete() error {
	switch t.Status {
	case StatusAssigned, StatusComplete:
		t.Status = StatusComplete
		return nil
	default:
		return fmt.Errorf("task %s is %s, cannot complete", t.ID, t.Status)
	}
}

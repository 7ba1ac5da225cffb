// Package pipeline defines per-request pipeline progress tracked by the coordinator.
package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/SwarmForge/internal/domain/message"
)

// Phase is a request's current pipeline stage. Phases are strictly ordered
// and never regress: planning → coding → review → done.
type Phase string

const (
	PhasePlanning Phase = "planning"
	PhaseCoding   Phase = "coding"
	PhaseReview   Phase = "review"
	PhaseDone     Phase = "done"
)

// rank orders phases for the monotonicity check.
var rank = map[Phase]int{
	PhasePlanning: 0,
	PhaseCoding:   1,
	PhaseReview:   2,
	PhaseDone:     3,
}

// Request tracks the lifecycle of a single external request through the
// pipeline. It is owned and mutated exclusively by the coordinator.
type Request struct {
	ID              string           `json:"id"`
	Originator      string           `json:"originator"`
	Description     string           `json:"description"`
	PendingSubtasks int              `json:"pending_subtasks"`
	CodedItems      []message.Result `json:"coded_items,omitempty"`
	Phase           Phase            `json:"phase"`
	CreatedAt       time.Time        `json:"created_at"`
}

// NewRequest creates a request in the planning phase.
func NewRequest(originator, description string) *Request {
	return &Request{
		ID:          uuid.NewString(),
		Originator:  originator,
		Description: description,
		Phase:       PhasePlanning,
		CreatedAt:   time.Now(),
	}
}

// Advance moves the request to the given phase. Moving backwards is an error.
func (r *Request) Advance(next Phase) error {
	if rank[next] < rank[r.Phase] {
		return fmt.Errorf("request %s: phase %s cannot regress to %s", r.ID, r.Phase, next)
	}
	r.Phase = next
	return nil
}

// Done reports whether the request has completed the pipeline.
func (r *Request) Done() bool {
	return r.Phase == PhaseDone
}

// Package stub provides built-in placeholder workers for the plan, code,
// and review stages. They stand in for real agent backends and exercise the
// full pipeline without any external dependency.
package stub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/SwarmForge/internal/domain/message"
	"github.com/Strob0t/SwarmForge/internal/domain/task"
	"github.com/Strob0t/SwarmForge/internal/port/worker"
)

func init() {
	worker.Register(task.TypePlan, func() worker.Worker { return &Planner{} })
	worker.Register(task.TypeCode, func() worker.Worker { return &Coder{} })
	worker.Register(task.TypeReview, func() worker.Worker { return &Reviewer{} })
}

// Planner splits a request into a fixed pair of coding subtasks.
type Planner struct{}

// TaskType returns the plan stage.
func (p *Planner) TaskType() task.Type { return task.TypePlan }

// Execute returns the subtask list for the request.
func (p *Planner) Execute(_ context.Context, t *task.Task) (message.Result, error) {
	slog.Info("planning", "task_id", t.ID, "description", t.Description)

	return message.Result{
		TaskID:    t.ID,
		RequestID: t.RequestID,
		Type:      message.ResultPlan,
		Subtasks: []string{
			"Implement core logic",
			"Write tests",
		},
	}, nil
}

// Coder produces placeholder code for one subtask.
type Coder struct{}

// TaskType returns the code stage.
func (c *Coder) TaskType() task.Type { return task.TypeCode }

// Execute returns stub code for the subtask.
func (c *Coder) Execute(_ context.Context, t *task.Task) (message.Result, error) {
	slog.Info("coding", "task_id", t.ID, "description", t.Description)

	return message.Result{
		TaskID:      t.ID,
		RequestID:   t.RequestID,
		Type:        message.ResultCode,
		Description: t.Description,
		Code:        fmt.Sprintf("// Stub implementation for: %s\n", t.Description),
	}, nil
}

// Reviewer approves whatever it is given.
type Reviewer struct{}

// TaskType returns the review stage.
func (r *Reviewer) TaskType() task.Type { return task.TypeReview }

// Execute returns an approving verdict.
func (r *Reviewer) Execute(_ context.Context, t *task.Task) (message.Result, error) {
	slog.Info("reviewing", "task_id", t.ID, "description", t.Description)

	return message.Result{
		TaskID:      t.ID,
		RequestID:   t.RequestID,
		Type:        message.ResultReview,
		Description: t.Description,
		Verdict:     "LGTM",
	}, nil
}

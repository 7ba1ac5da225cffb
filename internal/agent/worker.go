package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/SwarmForge/internal/domain/message"
	"github.com/Strob0t/SwarmForge/internal/domain/task"
	"github.com/Strob0t/SwarmForge/internal/port/worker"
)

// WorkerHandler bridges a pluggable worker into the agent runtime loop:
// every task_assign is executed and answered with exactly one task_result
// sent to the coordinator, carrying the task and request IDs unchanged.
type WorkerHandler struct {
	w           worker.Worker
	coordinator string
}

// NewWorkerHandler creates a handler that reports results to coordinator.
func NewWorkerHandler(w worker.Worker, coordinator string) *WorkerHandler {
	return &WorkerHandler{w: w, coordinator: coordinator}
}

// Handle executes assigned tasks; all other kinds fall through unhandled.
func (h *WorkerHandler) Handle(ctx context.Context, a *Agent, msg message.Message) error {
	switch msg.Kind {
	case message.KindTaskAssign:
		t, ok := msg.Payload.(*task.Task)
		if !ok {
			return fmt.Errorf("task_assign payload: expected *task.Task, got %T", msg.Payload)
		}

		res, err := h.w.Execute(ctx, t)
		if err != nil {
			return fmt.Errorf("execute task %s: %w", t.ID, err)
		}

		a.Send(h.coordinator, message.KindTaskResult, res)
		return nil

	default:
		slog.Debug("unhandled message", "agent", a.Name(), "kind", msg.Kind)
		return nil
	}
}

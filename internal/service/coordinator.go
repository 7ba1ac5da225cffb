package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Strob0t/SwarmForge/internal/adapter/otel"
	"github.com/Strob0t/SwarmForge/internal/adapter/ws"
	"github.com/Strob0t/SwarmForge/internal/agent"
	"github.com/Strob0t/SwarmForge/internal/config"
	"github.com/Strob0t/SwarmForge/internal/domain/message"
	"github.com/Strob0t/SwarmForge/internal/domain/pipeline"
	"github.com/Strob0t/SwarmForge/internal/domain/task"
	"github.com/Strob0t/SwarmForge/internal/port/broadcast"
	"github.com/Strob0t/SwarmForge/internal/port/cache"
)

// CoordinatorService drives the request pipeline: it fans work out to the
// planner, coder, and reviewer agents and fans results back in. All routing
// is keyed by request ID; any number of requests may be in flight at once.
//
// The service handles one message at a time on its own agent loop. The
// mutex exists only for read-only snapshots taken from other goroutines
// (the HTTP gateway); it never serializes two message handlers.
type CoordinatorService struct {
	cfg     config.Pipeline
	hub     broadcast.Broadcaster
	archive cache.Cache
	metrics *otel.Metrics

	mu        sync.Mutex
	tasks     map[string]*task.Task
	taskOrder []string // creation order, the stable order for pull-based assignment
	requests  map[string]*pipeline.Request
}

// NewCoordinator creates a CoordinatorService. hub, archive, and metrics
// may be nil.
func NewCoordinator(cfg config.Pipeline, hub broadcast.Broadcaster, archive cache.Cache, metrics *otel.Metrics) *CoordinatorService {
	return &CoordinatorService{
		cfg:      cfg,
		hub:      hub,
		archive:  archive,
		metrics:  metrics,
		tasks:    make(map[string]*task.Task),
		requests: make(map[string]*pipeline.Request),
	}
}

// Handle dispatches one inbound message by kind.
func (s *CoordinatorService) Handle(ctx context.Context, a *agent.Agent, msg message.Message) error {
	switch msg.Kind {
	case message.KindUserRequest:
		return s.handleUserRequest(ctx, a, msg)
	case message.KindTaskResult:
		return s.handleTaskResult(ctx, a, msg)
	case message.KindTaskRequest:
		s.handleTaskRequest(a, msg)
		return nil
	default:
		slog.Debug("unhandled message", "agent", a.Name(), "kind", msg.Kind)
		return nil
	}
}

// handleUserRequest starts the pipeline: create the request state and a
// planning task, assign it to the planner, and acknowledge the originator.
func (s *CoordinatorService) handleUserRequest(ctx context.Context, a *agent.Agent, msg message.Message) error {
	description, ok := msg.Payload.(string)
	if !ok {
		return fmt.Errorf("user_request payload: expected string, got %T", msg.Payload)
	}

	req := pipeline.NewRequest(msg.Sender, description)

	s.mu.Lock()
	s.requests[req.ID] = req
	s.mu.Unlock()

	slog.Info("request received", "request_id", req.ID, "originator", req.Originator)
	s.count(func(m *otel.Metrics) { m.RequestsStarted.Add(ctx, 1) })
	s.broadcastPhase(ctx, req)

	s.notify(a, req, "[coordinator] Received request. Planning...", false)

	t := s.createTask(ctx, description, nil, task.TypePlan, req.ID)
	s.assignTask(a, t.ID, s.cfg.Planner)
	return nil
}

// handleTaskResult routes a worker result to the phase handler selected by
// its result type. Stale or duplicate results are ignored, not errors.
func (s *CoordinatorService) handleTaskResult(ctx context.Context, a *agent.Agent, msg message.Message) error {
	res, ok := msg.Payload.(message.Result)
	if !ok {
		return fmt.Errorf("task_result payload: expected message.Result, got %T", msg.Payload)
	}

	s.mu.Lock()
	duplicate := false
	if t, exists := s.tasks[res.TaskID]; exists {
		duplicate = t.Status == task.StatusComplete
		if err := t.Complete(); err != nil {
			slog.Warn("task completion rejected", "task_id", res.TaskID, "error", err)
		}
	}
	req := s.requests[res.RequestID]
	s.mu.Unlock()

	if req == nil {
		// Stale or unknown request — defensively ignored.
		return nil
	}
	if duplicate {
		slog.Debug("duplicate result ignored", "task_id", res.TaskID, "request_id", res.RequestID)
		return nil
	}

	s.count(func(m *otel.Metrics) { m.TasksCompleted.Add(ctx, 1) })

	switch res.Type {
	case message.ResultPlan:
		return s.onPlanComplete(ctx, a, req, res)
	case message.ResultCode:
		return s.onCodeComplete(ctx, a, req, res)
	case message.ResultReview:
		return s.onReviewComplete(ctx, a, req, res)
	default:
		slog.Debug("unrecognized result type ignored", "result_type", res.Type, "task_id", res.TaskID)
		return nil
	}
}

// handleTaskRequest serves the pull-based path: assign the oldest pending
// task to the asking worker, or do nothing when none is pending.
func (s *CoordinatorService) handleTaskRequest(a *agent.Agent, msg message.Message) {
	s.mu.Lock()
	var pending *task.Task
	for _, id := range s.taskOrder {
		if t := s.tasks[id]; t != nil && t.Status == task.StatusPending {
			pending = t
			break
		}
	}
	s.mu.Unlock()

	if pending == nil {
		slog.Info("no pending tasks", "requested_by", msg.Sender)
		return
	}
	s.assignTask(a, pending.ID, msg.Sender)
}

// onPlanComplete fans the plan out: one coding task per subtask.
func (s *CoordinatorService) onPlanComplete(ctx context.Context, a *agent.Agent, req *pipeline.Request, res message.Result) error {
	s.mu.Lock()
	err := req.Advance(pipeline.PhaseCoding)
	if err == nil {
		req.PendingSubtasks = len(res.Subtasks)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.broadcastPhase(ctx, req)

	s.notify(a, req, fmt.Sprintf("[coordinator] Plan ready. %d coding task(s) dispatched.", len(res.Subtasks)), false)

	if len(res.Subtasks) == 0 {
		// An empty plan has nothing to code; go straight to review.
		return s.dispatchReview(ctx, a, req)
	}

	for _, desc := range res.Subtasks {
		t := s.createTask(ctx, desc, nil, task.TypeCode, req.ID)
		s.assignTask(a, t.ID, s.cfg.Coder)
	}
	return nil
}

// onCodeComplete collects one coding result; the last arrival moves the
// request to review.
func (s *CoordinatorService) onCodeComplete(ctx context.Context, a *agent.Agent, req *pipeline.Request, res message.Result) error {
	s.mu.Lock()
	req.CodedItems = append(req.CodedItems, res)
	req.PendingSubtasks--
	remaining := req.PendingSubtasks
	s.mu.Unlock()

	s.notify(a, req, fmt.Sprintf("[coordinator] Completed: %s. Sending to review...", res.Description), false)

	if remaining > 0 {
		return nil
	}
	return s.dispatchReview(ctx, a, req)
}

// dispatchReview creates the review task over all coded items.
func (s *CoordinatorService) dispatchReview(ctx context.Context, a *agent.Agent, req *pipeline.Request) error {
	s.mu.Lock()
	err := req.Advance(pipeline.PhaseReview)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.broadcastPhase(ctx, req)

	t := s.createTask(ctx,
		fmt.Sprintf("Review code for: %s", req.Description),
		req.CodedItems,
		task.TypeReview,
		req.ID,
	)
	s.assignTask(a, t.ID, s.cfg.Reviewer)
	return nil
}

// onReviewComplete finishes the pipeline and reports the verdict.
func (s *CoordinatorService) onReviewComplete(ctx context.Context, a *agent.Agent, req *pipeline.Request, res message.Result) error {
	s.mu.Lock()
	err := req.Advance(pipeline.PhaseDone)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.broadcastPhase(ctx, req)

	verdict := res.Verdict
	if verdict == "" {
		verdict = "done"
	}
	s.notify(a, req, fmt.Sprintf("[coordinator] Review complete: %s.", verdict), true)

	s.count(func(m *otel.Metrics) {
		m.RequestsCompleted.Add(ctx, 1)
		m.RequestDuration.Record(ctx, time.Since(req.CreatedAt).Seconds())
	})
	s.archiveRequest(ctx, req, verdict)

	slog.Info("request completed", "request_id", req.ID, "verdict", verdict)
	return nil
}

// createTask creates a pending task and records it in creation order.
// Completed tasks and requests are retained for the coordinator's lifetime;
// the archive cache is an additional bounded copy, not an eviction.
func (s *CoordinatorService) createTask(ctx context.Context, description string, payload any, taskType task.Type, requestID string) *task.Task {
	t := task.New(description, payload, taskType, requestID)

	s.mu.Lock()
	s.tasks[t.ID] = t
	s.taskOrder = append(s.taskOrder, t.ID)
	s.mu.Unlock()

	s.count(func(m *otel.Metrics) { m.TasksCreated.Add(ctx, 1) })
	slog.Info("task created", "task_id", t.ID, "type", taskType, "request_id", requestID)
	return t
}

// assignTask marks the task assigned and direct-sends it to the named
// worker. A missing task is warned about and dropped, not an error.
func (s *CoordinatorService) assignTask(a *agent.Agent, taskID, agentName string) {
	s.mu.Lock()
	t, ok := s.tasks[taskID]
	if ok {
		if err := t.Assign(agentName); err != nil {
			slog.Warn("task assignment rejected", "task_id", taskID, "error", err)
			s.mu.Unlock()
			return
		}
	}
	s.mu.Unlock()

	if !ok {
		slog.Warn("task not found", "task_id", taskID)
		return
	}

	a.Send(agentName, message.KindTaskAssign, t)
	slog.Info("task assigned", "task_id", taskID, "assignee", agentName)

	if s.hub != nil {
		s.hub.BroadcastEvent(context.Background(), ws.EventTaskStatus, ws.TaskStatusEvent{
			TaskID:    t.ID,
			RequestID: t.RequestID,
			Type:      string(t.Type),
			Status:    string(t.Status),
			Assignee:  agentName,
		})
	}
}

// notify sends a user_output line to the request's originator and mirrors
// it to connected WebSocket clients.
func (s *CoordinatorService) notify(a *agent.Agent, req *pipeline.Request, text string, final bool) {
	out := message.UserOutput{Text: text, Final: final}
	a.Send(req.Originator, message.KindUserOutput, out)

	if s.hub != nil {
		s.hub.BroadcastEvent(context.Background(), ws.EventUserOutput, ws.UserOutputEvent{
			RequestID: req.ID,
			Text:      text,
			Final:     final,
		})
	}
}

// broadcastPhase publishes the request's phase to WebSocket clients.
func (s *CoordinatorService) broadcastPhase(ctx context.Context, req *pipeline.Request) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(ctx, ws.EventRequestPhase, ws.RequestPhaseEvent{
		RequestID: req.ID,
		Phase:     string(req.Phase),
		Pending:   req.PendingSubtasks,
	})
}

// archiveRequest stores a completed-request summary in the archive cache.
func (s *CoordinatorService) archiveRequest(ctx context.Context, req *pipeline.Request, verdict string) {
	if s.archive == nil {
		return
	}

	summary := struct {
		RequestID   string    `json:"request_id"`
		Description string    `json:"description"`
		Verdict     string    `json:"verdict"`
		CodedItems  int       `json:"coded_items"`
		CreatedAt   time.Time `json:"created_at"`
		DoneAt      time.Time `json:"done_at"`
	}{
		RequestID:   req.ID,
		Description: req.Description,
		Verdict:     verdict,
		CodedItems:  len(req.CodedItems),
		CreatedAt:   req.CreatedAt,
		DoneAt:      time.Now(),
	}

	data, err := json.Marshal(summary)
	if err != nil {
		slog.Error("marshal request summary", "request_id", req.ID, "error", err)
		return
	}
	if err := s.archive.Set(ctx, "request:"+req.ID, data, s.cfg.ArchiveTTL); err != nil {
		slog.Warn("archive request summary", "request_id", req.ID, "error", err)
	}
}

// Requests returns a snapshot of all tracked requests.
func (s *CoordinatorService) Requests() []pipeline.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pipeline.Request, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, *r)
	}
	return out
}

// Request returns a snapshot of one request, or false when unknown.
func (s *CoordinatorService) Request(id string) (pipeline.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return pipeline.Request{}, false
	}
	return *r, true
}

// Tasks returns a snapshot of all tracked tasks in creation order.
func (s *CoordinatorService) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]task.Task, 0, len(s.taskOrder))
	for _, id := range s.taskOrder {
		if t := s.tasks[id]; t != nil {
			out = append(out, *t)
		}
	}
	return out
}

func (s *CoordinatorService) count(fn func(*otel.Metrics)) {
	if s.metrics != nil {
		fn(s.metrics)
	}
}

package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/SwarmForge/internal/adapter/membus"
	"github.com/Strob0t/SwarmForge/internal/domain"
	"github.com/Strob0t/SwarmForge/internal/domain/message"
	"github.com/Strob0t/SwarmForge/internal/domain/task"
)

// recordingHandler records every message it sees and can fail on demand.
type recordingHandler struct {
	mu      sync.Mutex
	seen    []message.Message
	failOn  message.Kind
	failErr error
}

func (h *recordingHandler) Handle(_ context.Context, _ *Agent, msg message.Message) error {
	h.mu.Lock()
	h.seen = append(h.seen, msg)
	h.mu.Unlock()
	if msg.Kind == h.failOn && h.failErr != nil {
		return h.failErr
	}
	return nil
}

func (h *recordingHandler) messages() []message.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]message.Message, len(h.seen))
	copy(out, h.seen)
	return out
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("agent loop did not exit")
		return nil
	}
}

// --- Agent Tests ---

func TestNewRegistersOnBus(t *testing.T) {
	b := membus.New(nil)

	if _, err := New("alice", "worker", b, &recordingHandler{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := New("alice", "worker", b, &recordingHandler{})
	if !errors.Is(err, domain.ErrDuplicateAgent) {
		t.Fatalf("expected ErrDuplicateAgent, got %v", err)
	}
}

func TestRunExitsOnShutdown(t *testing.T) {
	b := membus.New(nil)
	h := &recordingHandler{}
	a, err := New("alice", "worker", b, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()

	b.Send(message.New("test", "alice", message.KindUserOutput, message.UserOutput{Text: "one"}))
	b.Send(message.New("test", "alice", message.KindShutdown, nil))

	if err := waitDone(t, done); err != nil {
		t.Fatalf("expected nil exit, got %v", err)
	}
	if got := h.messages(); len(got) != 1 || got[0].Kind != message.KindUserOutput {
		t.Fatalf("expected 1 handled message before shutdown, got %+v", got)
	}
}

func TestRunExitsOnContextCancel(t *testing.T) {
	b := membus.New(nil)
	a, err := New("alice", "worker", b, &recordingHandler{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	cancel()
	if err := waitDone(t, done); err != nil {
		t.Fatalf("expected nil exit on cancel, got %v", err)
	}
}

func TestRunContinuesAfterHandlerError(t *testing.T) {
	b := membus.New(nil)
	h := &recordingHandler{failOn: message.KindUserRequest, failErr: errors.New("boom")}
	a, err := New("alice", "worker", b, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()

	b.Send(message.New("test", "alice", message.KindUserRequest, "bad"))
	b.Send(message.New("test", "alice", message.KindUserOutput, message.UserOutput{Text: "ok"}))
	b.Send(message.New("test", "alice", message.KindShutdown, nil))

	if err := waitDone(t, done); err != nil {
		t.Fatalf("expected nil exit, got %v", err)
	}
	got := h.messages()
	if len(got) != 2 {
		t.Fatalf("expected failing message plus one more, got %d", len(got))
	}
	if got[1].Kind != message.KindUserOutput {
		t.Fatalf("expected loop to keep handling after an error, got %+v", got[1])
	}
}

func TestSendAndBroadcast(t *testing.T) {
	b := membus.New(nil)
	a, _ := New("alice", "worker", b, &recordingHandler{})
	bob, _ := b.Register("bob")

	a.Send("bob", message.KindUserOutput, message.UserOutput{Text: "direct"})
	msg, ok := bob.TryGet()
	if !ok || msg.Sender != "alice" || msg.Recipient != "bob" {
		t.Fatalf("unexpected direct message: %+v", msg)
	}

	a.Broadcast(message.KindShutdown, nil)
	if msg, ok := bob.TryGet(); !ok || msg.Kind != message.KindShutdown {
		t.Fatalf("expected broadcast to bob, got %+v ok=%v", msg, ok)
	}
	if msg, ok := a.Inbox().TryGet(); !ok || msg.Kind != message.KindShutdown {
		t.Fatalf("expected broadcast to sender too, got %+v ok=%v", msg, ok)
	}
}

// --- WorkerHandler Tests ---

// echoWorker returns a canned result carrying the task IDs through.
type echoWorker struct {
	taskType task.Type
	err      error
}

func (w *echoWorker) TaskType() task.Type { return w.taskType }

func (w *echoWorker) Execute(_ context.Context, t *task.Task) (message.Result, error) {
	if w.err != nil {
		return message.Result{}, w.err
	}
	return message.Result{
		TaskID:      t.ID,
		RequestID:   t.RequestID,
		Type:        message.ResultCode,
		Description: t.Description,
		Code:        "code",
	}, nil
}

func TestWorkerHandlerExecutesAndReplies(t *testing.T) {
	b := membus.New(nil)
	coord, _ := b.Register("coordinator")
	h := NewWorkerHandler(&echoWorker{taskType: task.TypeCode}, "coordinator")
	a, _ := New("coder", "code", b, h)

	tk := task.New("add parser", nil, task.TypeCode, "req-1")
	if err := tk.Assign("coder"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := h.Handle(context.Background(), a, message.New("coordinator", "coder", message.KindTaskAssign, tk))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg, ok := coord.TryGet()
	if !ok {
		t.Fatal("expected a task_result at the coordinator")
	}
	if msg.Kind != message.KindTaskResult {
		t.Fatalf("expected task_result, got %s", msg.Kind)
	}
	res := msg.Payload.(message.Result)
	if res.TaskID != tk.ID || res.RequestID != "req-1" {
		t.Fatalf("result must carry task and request IDs unchanged: %+v", res)
	}
}

func TestWorkerHandlerRejectsBadPayload(t *testing.T) {
	b := membus.New(nil)
	b.Register("coordinator")
	h := NewWorkerHandler(&echoWorker{taskType: task.TypeCode}, "coordinator")
	a, _ := New("coder", "code", b, h)

	err := h.Handle(context.Background(), a, message.New("x", "coder", message.KindTaskAssign, "not a task"))
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestWorkerHandlerExecuteError(t *testing.T) {
	b := membus.New(nil)
	coord, _ := b.Register("coordinator")
	wantErr := errors.New("backend down")
	h := NewWorkerHandler(&echoWorker{taskType: task.TypeCode, err: wantErr}, "coordinator")
	a, _ := New("coder", "code", b, h)

	tk := task.New("add parser", nil, task.TypeCode, "req-1")
	err := h.Handle(context.Background(), a, message.New("coordinator", "coder", message.KindTaskAssign, tk))
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped execute error, got %v", err)
	}
	if coord.Len() != 0 {
		t.Fatal("no result should be sent when execution fails")
	}
}

func TestWorkerHandlerIgnoresOtherKinds(t *testing.T) {
	b := membus.New(nil)
	coord, _ := b.Register("coordinator")
	h := NewWorkerHandler(&echoWorker{taskType: task.TypeCode}, "coordinator")
	a, _ := New("coder", "code", b, h)

	err := h.Handle(context.Background(), a, message.New("x", "coder", message.KindUserOutput, message.UserOutput{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coord.Len() != 0 {
		t.Fatal("unhandled kinds must not produce output")
	}
}

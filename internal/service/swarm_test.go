package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/SwarmForge/internal/adapter/membus"
	"github.com/Strob0t/SwarmForge/internal/agent"
	"github.com/Strob0t/SwarmForge/internal/domain/message"
)

var noop = agent.HandlerFunc(
	func(context.Context, *agent.Agent, message.Message) error { return nil },
)

func newAgent(t *testing.T, name string, b *membus.Bus, h agent.Handler) *agent.Agent {
	t.Helper()
	a, err := agent.New(name, "test", b, h)
	if err != nil {
		t.Fatalf("agent %s: %v", name, err)
	}
	return a
}

// joinedRunner wraps an agent and records that its loop exited.
type joinedRunner struct {
	*agent.Agent
	exited atomic.Bool
}

func (r *joinedRunner) Run(ctx context.Context) error {
	err := r.Agent.Run(ctx)
	r.exited.Store(true)
	return err
}

func runSwarm(t *testing.T, s *Swarm, duration time.Duration) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), duration) }()
	return done
}

func waitStop(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("swarm run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("swarm did not stop")
	}
}

// --- Swarm Tests ---

func TestNewSwarmRequiresAgents(t *testing.T) {
	b := membus.New(nil)
	if _, err := NewSwarm(nil, b); err == nil {
		t.Fatal("expected error for empty swarm")
	}
}

func TestNewSwarmRejectsForeignBus(t *testing.T) {
	b1 := membus.New(nil)
	b2 := membus.New(nil)
	a := newAgent(t, "alice", b2, noop)

	if _, err := NewSwarm([]Runner{a}, b1); err == nil {
		t.Fatal("expected error for agent on another bus")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	b := membus.New(nil)
	a := newAgent(t, "alice", b, noop)
	probe, _ := b.Register("probe")

	s, err := NewSwarm([]Runner{a}, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Stop()
		}()
	}
	wg.Wait()
	s.Stop()

	if probe.Len() != 1 {
		t.Fatalf("expected exactly one shutdown broadcast, got %d", probe.Len())
	}
	if msg, _ := probe.TryGet(); msg.Kind != message.KindShutdown {
		t.Fatalf("expected shutdown, got %s", msg.Kind)
	}
}

func TestRunStopsOnStop(t *testing.T) {
	b := membus.New(nil)
	r1 := &joinedRunner{Agent: newAgent(t, "alice", b, noop)}
	r2 := &joinedRunner{Agent: newAgent(t, "bob", b, noop)}

	s, err := NewSwarm([]Runner{r1, r2}, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := runSwarm(t, s, 0)
	time.Sleep(10 * time.Millisecond)
	s.Stop()
	waitStop(t, done)

	if !r1.exited.Load() || !r2.exited.Load() {
		t.Fatal("all agent loops must be joined before Run returns")
	}
}

func TestRunStopsAfterDuration(t *testing.T) {
	b := membus.New(nil)
	a := newAgent(t, "alice", b, noop)

	s, err := NewSwarm([]Runner{a}, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Now()
	waitStop(t, runSwarm(t, s, 20*time.Millisecond))
	if time.Since(start) > 2*time.Second {
		t.Fatal("duration stop took too long")
	}
}

func TestAgentTriggeredShutdownStopsSwarm(t *testing.T) {
	b := membus.New(nil)

	quitter := agent.HandlerFunc(func(_ context.Context, a *agent.Agent, msg message.Message) error {
		if msg.Kind == message.KindUserRequest {
			a.RequestShutdown()
		}
		return nil
	})
	a := newAgent(t, "alice", b, quitter)
	other := newAgent(t, "bob", b, noop)

	s, err := NewSwarm([]Runner{a, other}, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := runSwarm(t, s, 0)
	b.Send(message.New("test", "alice", message.KindUserRequest, "quit"))
	waitStop(t, done)
}

func TestMessagesBeforeShutdownAreHandled(t *testing.T) {
	b := membus.New(nil)

	var handled atomic.Int32
	counter := agent.HandlerFunc(func(context.Context, *agent.Agent, message.Message) error {
		handled.Add(1)
		return nil
	})
	a := newAgent(t, "alice", b, counter)

	s, err := NewSwarm([]Runner{a}, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Enqueue work ahead of the shutdown broadcast; mailbox order
	// guarantees it is all processed first.
	for i := 0; i < 10; i++ {
		b.Send(message.New("test", "alice", message.KindUserOutput, message.UserOutput{}))
	}
	s.Stop()

	waitStop(t, runSwarm(t, s, 0))
	if got := handled.Load(); got != 10 {
		t.Fatalf("expected 10 handled messages before shutdown, got %d", got)
	}
}

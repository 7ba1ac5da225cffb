package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/SwarmForge/internal/domain/message"
	"github.com/Strob0t/SwarmForge/internal/port/bus"
)

// Runner is anything the swarm can supervise: usually an *agent.Agent, or
// a front end that wraps one with its own read loop.
type Runner interface {
	Name() string
	Bus() bus.Bus
	Run(ctx context.Context) error
}

// Swarm owns the set of agents, runs their loops concurrently, and provides
// a single idempotent stop path. Shutdown is cooperative: a broadcast
// shutdown message travels through the same mailboxes as regular traffic,
// so it is ordered relative to in-flight messages.
type Swarm struct {
	agents   []Runner
	b        bus.Bus
	observer bus.Mailbox

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewSwarm validates that at least one agent is present and that every
// agent shares the given bus, then registers the private observer mailbox
// used to detect shutdown broadcasts.
func NewSwarm(agents []Runner, b bus.Bus) (*Swarm, error) {
	if len(agents) == 0 {
		return nil, errors.New("swarm requires at least one agent")
	}
	for _, a := range agents {
		if a.Bus() != b {
			return nil, fmt.Errorf("agent %s is not on the swarm bus", a.Name())
		}
	}

	observerName := "_swarm_observer_" + uuid.NewString()
	observer, err := b.Register(observerName)
	if err != nil {
		return nil, fmt.Errorf("register observer: %w", err)
	}

	return &Swarm{
		agents:   agents,
		b:        b,
		observer: observer,
		stopped:  make(chan struct{}),
	}, nil
}

// Run starts every agent loop plus the shutdown watcher and blocks until
// the swarm quiesces. A positive duration stops the swarm after it elapses;
// zero blocks until Stop is called or a shutdown message is broadcast.
// All agent loops are joined before Run returns.
func (s *Swarm) Run(ctx context.Context, duration time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, a := range s.agents {
		a := a
		g.Go(func() error { return a.Run(gctx) })
	}
	g.Go(func() error {
		s.watchForShutdown(gctx)
		return nil
	})

	if duration > 0 {
		g.Go(func() error {
			select {
			case <-time.After(duration):
				s.Stop()
			case <-s.stopped:
			case <-gctx.Done():
			}
			return nil
		})
	}

	slog.Info("swarm started", "agents", len(s.agents), "duration", duration)
	err := g.Wait()
	slog.Info("swarm stopped")
	return err
}

// Stop broadcasts a shutdown message exactly once, no matter how many times
// or how concurrently it is called.
func (s *Swarm) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopped)
		s.b.Send(message.New("swarm", message.Broadcast, message.KindShutdown, nil))
		slog.Info("shutdown broadcast")
	})
}

// watchForShutdown consumes the observer mailbox until a shutdown message
// arrives, covering shutdowns triggered by any agent rather than by Stop.
func (s *Swarm) watchForShutdown(ctx context.Context) {
	for {
		select {
		case <-s.stopped:
			return
		case <-ctx.Done():
			return
		default:
		}

		msg, err := s.observer.Get(ctx)
		if err != nil {
			return
		}
		if msg.Kind == message.KindShutdown {
			s.stopOnce.Do(func() {
				close(s.stopped)
				slog.Info("shutdown observed")
			})
			return
		}
	}
}

// Package agent provides the generic per-agent runtime loop shared by every
// agent in the swarm.
package agent

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Strob0t/SwarmForge/internal/domain/message"
	"github.com/Strob0t/SwarmForge/internal/port/bus"
)

// Handler processes one dequeued message. The agent is passed in so a
// handler can reply via Send or Broadcast.
type Handler interface {
	Handle(ctx context.Context, a *Agent, msg message.Message) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, a *Agent, msg message.Message) error

// Handle calls fn.
func (fn HandlerFunc) Handle(ctx context.Context, a *Agent, msg message.Message) error {
	return fn(ctx, a, msg)
}

// Agent is one named actor: a mailbox, a handler, and a message pump.
type Agent struct {
	name    string
	role    string
	b       bus.Bus
	inbox   bus.Mailbox
	handler Handler
}

// New registers name on the bus and returns the agent. Registering the same
// name twice fails with domain.ErrDuplicateAgent.
func New(name, role string, b bus.Bus, handler Handler) (*Agent, error) {
	inbox, err := b.Register(name)
	if err != nil {
		return nil, err
	}
	return &Agent{name: name, role: role, b: b, inbox: inbox, handler: handler}, nil
}

// Name returns the agent's bus name.
func (a *Agent) Name() string { return a.name }

// Role returns the agent's role label.
func (a *Agent) Role() string { return a.role }

// Bus returns the bus this agent is registered on.
func (a *Agent) Bus() bus.Bus { return a.b }

// Inbox returns the agent's mailbox.
func (a *Agent) Inbox() bus.Mailbox { return a.inbox }

// Run pumps the inbox until a shutdown message arrives or the context is
// cancelled. A handler error is logged with agent and kind context and the
// loop continues; a single bad message never terminates the agent.
func (a *Agent) Run(ctx context.Context) error {
	slog.Info("agent started", "agent", a.name, "role", a.role)

	for {
		msg, err := a.inbox.Get(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				slog.Info("agent stopped", "agent", a.name, "reason", "context")
				return nil
			}
			return err
		}

		if msg.Kind == message.KindShutdown {
			slog.Info("agent stopped", "agent", a.name, "reason", "shutdown")
			return nil
		}

		if err := a.handler.Handle(ctx, a, msg); err != nil {
			slog.Error("message handling failed",
				"agent", a.name, "kind", msg.Kind, "sender", msg.Sender, "error", err)
		}
	}
}

// Send builds a message and routes it to one recipient. Fire-and-forget.
func (a *Agent) Send(recipient string, kind message.Kind, payload any) {
	a.b.Send(message.New(a.name, recipient, kind, payload))
}

// Broadcast builds a message and routes it to every registered mailbox,
// including this agent's own.
func (a *Agent) Broadcast(kind message.Kind, payload any) {
	a.b.Send(message.New(a.name, message.Broadcast, kind, payload))
}

// RequestShutdown broadcasts a shutdown message. Any agent may trigger a
// swarm-wide shutdown.
func (a *Agent) RequestShutdown() {
	a.Broadcast(message.KindShutdown, nil)
}

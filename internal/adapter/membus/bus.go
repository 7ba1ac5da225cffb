// Package membus implements the bus port as an in-process message router.
// One mailbox per registered agent; no persistence, at-most-once delivery.
package membus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Strob0t/SwarmForge/internal/adapter/otel"
	"github.com/Strob0t/SwarmForge/internal/domain"
	"github.com/Strob0t/SwarmForge/internal/domain/message"
	"github.com/Strob0t/SwarmForge/internal/port/bus"
)

// Bus owns the mapping from agent name to mailbox and routes messages.
type Bus struct {
	mu        sync.RWMutex
	mailboxes map[string]*Mailbox
	metrics   *otel.Metrics
}

// New creates an empty bus. Metrics may be nil.
func New(metrics *otel.Metrics) *Bus {
	return &Bus{
		mailboxes: make(map[string]*Mailbox),
		metrics:   metrics,
	}
}

// Register creates a fresh mailbox for name. Registration is one-shot per
// name for the process lifetime.
func (b *Bus) Register(name string) (bus.Mailbox, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.mailboxes[name]; exists {
		return nil, fmt.Errorf("register %s: %w", name, domain.ErrDuplicateAgent)
	}

	mb := newMailbox()
	b.mailboxes[name] = mb
	slog.Info("agent registered", "agent", name)
	return mb, nil
}

// Send routes a message to one mailbox, or to all of them when the recipient
// is the broadcast sentinel. Unknown recipients are logged and dropped; the
// sender is never informed.
func (b *Bus) Send(msg message.Message) {
	if msg.Recipient == message.Broadcast {
		b.broadcast(msg)
		return
	}

	b.mu.RLock()
	mb, ok := b.mailboxes[msg.Recipient]
	b.mu.RUnlock()

	if !ok {
		slog.Warn("recipient not found, message dropped",
			"recipient", msg.Recipient, "kind", msg.Kind, "sender", msg.Sender)
		b.count(func(m *otel.Metrics) { m.MessagesDropped.Add(context.Background(), 1) })
		return
	}

	mb.Put(msg)
	b.count(func(m *otel.Metrics) { m.MessagesSent.Add(context.Background(), 1) })
}

// broadcast enqueues exactly one copy onto every currently registered
// mailbox. A mailbox registered after the enumeration does not receive it.
func (b *Bus) broadcast(msg message.Message) {
	b.mu.RLock()
	targets := make([]*Mailbox, 0, len(b.mailboxes))
	for _, mb := range b.mailboxes {
		targets = append(targets, mb)
	}
	b.mu.RUnlock()

	for _, mb := range targets {
		mb.Put(msg)
	}
	b.count(func(m *otel.Metrics) { m.Broadcasts.Add(context.Background(), 1) })
}

// AgentNames returns the currently registered agent names.
func (b *Bus) AgentNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.mailboxes))
	for name := range b.mailboxes {
		names = append(names, name)
	}
	return names
}

func (b *Bus) count(fn func(*otel.Metrics)) {
	if b.metrics != nil {
		fn(b.metrics)
	}
}

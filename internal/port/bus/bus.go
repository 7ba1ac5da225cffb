// Package bus defines the message bus port (interface).
package bus

import (
	"context"

	"github.com/Strob0t/SwarmForge/internal/domain/message"
)

// Mailbox is one agent's ordered, unbounded inbound queue. Exactly one
// consumer (the owning agent) reads it; any sender may enqueue through the
// bus. Messages are delivered in send order as observed by the bus.
type Mailbox interface {
	// Get blocks until a message is available or the context is cancelled.
	Get(ctx context.Context) (message.Message, error)

	// TryGet returns the next message without blocking.
	TryGet() (message.Message, bool)

	// Len reports the number of queued messages.
	Len() int
}

// Bus routes messages between registered agents. It is passed explicitly to
// every component at construction; there is no ambient global registry.
type Bus interface {
	// Register creates and returns a fresh mailbox for name. It fails with
	// domain.ErrDuplicateAgent if name is already registered.
	Register(name string) (Mailbox, error)

	// Send routes a message. A Broadcast recipient enqueues one copy onto
	// every currently registered mailbox; an unknown recipient is logged and
	// dropped. Sends are fire-and-forget: no error reaches the sender and
	// enqueue never blocks.
	Send(msg message.Message)
}

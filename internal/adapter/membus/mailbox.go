package membus

import (
	"context"
	"sync"

	"github.com/Strob0t/SwarmForge/internal/domain/message"
)

// Mailbox is an ordered, unbounded FIFO queue with a single consumer and
// many producers. Put never blocks; Get suspends the caller until a message
// arrives or the context is cancelled.
type Mailbox struct {
	mu     sync.Mutex
	queue  []message.Message
	notify chan struct{} // capacity 1, signals the single consumer
}

func newMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

// Put appends a message to the queue. Unbounded, so always immediate.
func (m *Mailbox) Put(msg message.Message) {
	m.mu.Lock()
	m.queue = append(m.queue, msg)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Get blocks until a message is available or ctx is cancelled.
func (m *Mailbox) Get(ctx context.Context) (message.Message, error) {
	for {
		if msg, ok := m.TryGet(); ok {
			return msg, nil
		}
		select {
		case <-ctx.Done():
			return message.Message{}, ctx.Err()
		case <-m.notify:
			// Re-check the queue; a lost wakeup cannot happen because the
			// consumer is single and Put always signals after appending.
		}
	}
}

// TryGet pops the head of the queue without blocking.
func (m *Mailbox) TryGet() (message.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return message.Message{}, false
	}
	msg := m.queue[0]
	m.queue[0] = message.Message{} // release the payload to the GC
	if len(m.queue) == 1 {
		m.queue = m.queue[:0]
	} else {
		m.queue = m.queue[1:]
	}
	return msg, true
}

// Len reports the number of queued messages.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

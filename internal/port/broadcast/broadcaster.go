// Package broadcast defines the port for broadcasting real-time swarm
// events to connected clients. This is observer-facing fan-out, distinct
// from the bus broadcast that addresses agent mailboxes.
package broadcast

import "context"

// Broadcaster sends typed events to all connected clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to all connected clients.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

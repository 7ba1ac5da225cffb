package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventRequestPhase = "request.phase"
	EventTaskStatus   = "task.status"
	EventUserOutput   = "user.output"
)

// RequestPhaseEvent is broadcast when a request advances through the pipeline.
type RequestPhaseEvent struct {
	RequestID string `json:"request_id"`
	Phase     string `json:"phase"`
	Pending   int    `json:"pending_subtasks"`
}

// TaskStatusEvent is broadcast when a task is created or assigned.
type TaskStatusEvent struct {
	TaskID    string `json:"task_id"`
	RequestID string `json:"request_id,omitempty"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Assignee  string `json:"assignee,omitempty"`
}

// UserOutputEvent mirrors a user_output message to observers.
type UserOutputEvent struct {
	RequestID string `json:"request_id"`
	Text      string `json:"text"`
	Final     bool   `json:"final"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}

// Package message defines the typed message envelope exchanged between agents.
package message

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the closed set of message kinds routed over the bus.
// Dispatch is by kind; unknown kinds fall through to a handler's default case.
type Kind string

const (
	KindUserRequest Kind = "user_request" // free-text request from a front end
	KindTaskAssign  Kind = "task_assign"  // coordinator → worker, carries a Task
	KindTaskResult  Kind = "task_result"  // worker → coordinator, carries a Result
	KindTaskRequest Kind = "task_request" // worker asking for pending work
	KindUserOutput  Kind = "user_output"  // coordinator → originator status line
	KindShutdown    Kind = "shutdown"     // broadcast only, stops every agent loop
)

// Broadcast is the recipient sentinel that fans a message out to every
// currently registered mailbox.
const Broadcast = "broadcast"

// Message is the immutable envelope passed between agents. It lives only as
// long as it sits in a mailbox or is being handled; nothing is persisted.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Kind      Kind      `json:"kind"`
	Payload   any       `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a message with a fresh ID and timestamp.
func New(sender, recipient string, kind Kind, payload any) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Recipient: recipient,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

// ResultType identifies which pipeline stage produced a Result.
type ResultType string

const (
	ResultPlan   ResultType = "plan"
	ResultCode   ResultType = "code"
	ResultReview ResultType = "review"
)

// Result is the task_result payload. TaskID and RequestID must be carried
// back from the originating task_assign unchanged.
type Result struct {
	TaskID    string     `json:"task_id"`
	RequestID string     `json:"request_id"`
	Type      ResultType `json:"result_type"`

	// Plan results carry the coding subtask descriptions.
	Subtasks []string `json:"subtasks,omitempty"`

	// Code results carry the subtask description and produced code.
	Description string `json:"description,omitempty"`
	Code        string `json:"code,omitempty"`

	// Review results carry a verdict in addition to the description.
	Verdict string `json:"verdict,omitempty"`
}

// UserOutput is the user_output payload sent to a request's originator.
// Final marks pipeline completion for that request.
type UserOutput struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// Package worker defines the worker port (interface) and its registry.
// Planner, coder, and reviewer logic is pluggable: a worker consumes a task
// and emits exactly one typed result.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/Strob0t/SwarmForge/internal/domain/message"
	"github.com/Strob0t/SwarmForge/internal/domain/task"
)

// Worker is the port interface for a pluggable task executor.
type Worker interface {
	// TaskType returns the pipeline stage this worker serves.
	TaskType() task.Type

	// Execute runs the task and returns a result carrying the task's ID and
	// request ID unchanged.
	Execute(ctx context.Context, t *task.Task) (message.Result, error)
}

// Factory is a constructor function that creates a new Worker instance.
type Factory func() Worker

var (
	mu        sync.RWMutex
	factories = make(map[task.Type]Factory)
)

// Register makes a worker factory available by task type.
// It is typically called from an init() function in the adapter package.
func Register(taskType task.Type, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[taskType]; exists {
		panic(fmt.Sprintf("worker: duplicate registration for %q", taskType))
	}
	factories[taskType] = factory
}

// New creates a Worker by task type using the registered factory.
func New(taskType task.Type) (Worker, error) {
	mu.RLock()
	factory, ok := factories[taskType]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("worker: unknown task type %q", taskType)
	}
	return factory(), nil
}

// Available returns the task types of all registered workers.
func Available() []task.Type {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]task.Type, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	return types
}

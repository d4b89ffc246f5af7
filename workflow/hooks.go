package workflow

import (
	"context"
	"errors"
	"sync"
)

// Hook is an ordered list of callbacks fired at a point in a workflow's
// lifecycle. Callbacks run in registration order; all of them run even if
// one fails, and their errors are joined.
type Hook[T any] struct {
	name string

	mu        sync.Mutex
	callbacks []func(ctx context.Context, event T) error
}

// NewHook creates a named hook.
func NewHook[T any](name string) *Hook[T] {
	return &Hook[T]{name: name}
}

// Name returns the hook's name.
func (h *Hook[T]) Name() string {
	return h.name
}

// Register adds a callback fired on every trigger.
func (h *Hook[T]) Register(callback func(ctx context.Context, event T) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callbacks = append(h.callbacks, callback)
}

// Once adds a callback fired on the next trigger only.
func (h *Hook[T]) Once(callback func(ctx context.Context, event T) error) {
	var once sync.Once
	h.Register(func(ctx context.Context, event T) error {
		var err error
		once.Do(func() {
			err = callback(ctx, event)
		})
		return err
	})
}

// Trigger fires all callbacks with the event.
func (h *Hook[T]) Trigger(ctx context.Context, event T) error {
	h.mu.Lock()
	callbacks := make([]func(context.Context, T) error, len(h.callbacks))
	copy(callbacks, h.callbacks)
	h.mu.Unlock()

	var errs []error
	for _, callback := range callbacks {
		if err := callback(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of registered callbacks.
func (h *Hook[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.callbacks)
}

// UpdateEvent carries a progress update published by a step.
type UpdateEvent struct {
	Execution *Execution
	Update    string
}

// StateChange carries a state transition of an execution.
type StateChange struct {
	Execution *Execution
	From      State
	To        State
}

// StepEvent carries the completion of a single main step.
type StepEvent struct {
	Execution *Execution
	Step      Step
	Index     int
	Update    string
}

// ErrorEvent carries a step failure. A callback may set Handled to recover
// the execution; Update then replaces the failed step's update.
type ErrorEvent struct {
	Execution *Execution
	Err       *StepError
	Handled   bool
	Update    string
}

// FailureEvent carries the error that aborted an execution.
type FailureEvent struct {
	Execution *Execution
	Err       error
}

// Hooks groups the lifecycle hooks owned by a single execution.
type Hooks struct {
	// OnUpdate fires for every non-empty update returned by a step.
	OnUpdate *Hook[*UpdateEvent]

	// OnStateChange fires before the execution enters a new state.
	OnStateChange *Hook[*StateChange]

	// OnStep fires after each main step completes.
	OnStep *Hook[*StepEvent]

	// OnError fires when a step returns an error, before the execution
	// decides whether to abort.
	OnError *Hook[*ErrorEvent]

	// OnResult fires with the results map after all steps succeed.
	OnResult *Hook[Results]

	// OnSuccess fires after OnResult on a successful run.
	OnSuccess *Hook[*Execution]

	// OnFailure fires when the execution aborts with an error.
	OnFailure *Hook[*FailureEvent]

	// OnFinish fires once per execution, after success or failure.
	OnFinish *Hook[*Execution]
}

// NewHooks creates an empty hook set.
func NewHooks() *Hooks {
	return &Hooks{
		OnUpdate:      NewHook[*UpdateEvent]("update"),
		OnStateChange: NewHook[*StateChange]("state_change"),
		OnStep:        NewHook[*StepEvent]("step"),
		OnError:       NewHook[*ErrorEvent]("error"),
		OnResult:      NewHook[Results]("result"),
		OnSuccess:     NewHook[*Execution]("success"),
		OnFailure:     NewHook[*FailureEvent]("failure"),
		OnFinish:      NewHook[*Execution]("finish"),
	}
}

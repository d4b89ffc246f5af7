package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// State is the lifecycle state of an execution.
type State string

const (
	StateWaiting  State = "waiting"
	StateStartup  State = "startup"
	StateRunning  State = "running"
	StateCleanup  State = "cleanup"
	StateFinished State = "finished"
)

// Results holds the values steps accumulate under the "results" fixture.
type Results map[string]any

// StepError wraps an error raised by a workflow step.
type StepError struct {
	Workflow string
	Step     string
	Index    int
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("workflow %s: step %s (#%d): %v", e.Workflow, e.Step, e.Index, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Execution runs a workflow once inside a scope, tracking state, progress,
// and updates, and firing lifecycle hooks.
type Execution struct {
	// ID uniquely identifies this run.
	ID string

	Workflow *Workflow
	Scope    *Scope
	Hooks    *Hooks

	state       State
	currentStep int
	progress    float64
	updates     []string
}

// NewExecution prepares a run of the workflow in the given scope.
func NewExecution(wf *Workflow, scope *Scope) *Execution {
	return &Execution{
		ID:       uuid.NewString(),
		Workflow: wf,
		Scope:    scope,
		Hooks:    NewHooks(),
		state:    StateWaiting,
	}
}

// State returns the current lifecycle state.
func (e *Execution) State() State {
	return e.state
}

// Progress returns the fraction of main steps completed, in [0, 1].
func (e *Execution) Progress() float64 {
	return e.progress
}

// CurrentStep returns the 1-based index of the most recent main step.
func (e *Execution) CurrentStep() int {
	return e.currentStep
}

// Updates returns all updates published so far.
func (e *Execution) Updates() []string {
	out := make([]string, len(e.updates))
	copy(out, e.updates)
	return out
}

// SendUpdate publishes an update through the update hook.
func (e *Execution) SendUpdate(ctx context.Context, update string) error {
	e.updates = append(e.updates, update)
	return e.Hooks.OnUpdate.Trigger(ctx, &UpdateEvent{Execution: e, Update: update})
}

func (e *Execution) setState(ctx context.Context, next State) error {
	if err := e.Hooks.OnStateChange.Trigger(ctx, &StateChange{Execution: e, From: e.state, To: next}); err != nil {
		return err
	}
	e.state = next
	return nil
}

// runStep invokes one step, routing failures through the error hook.
// A handler that marks the event handled recovers the step; its Update
// replaces the step's update.
func (e *Execution) runStep(ctx context.Context, step Step, index int) (string, error) {
	update, err := step.Fn(ctx, e.Scope)
	if err == nil {
		return update, nil
	}

	stepErr := &StepError{
		Workflow: e.Workflow.Name,
		Step:     step.Name,
		Index:    index,
		Err:      err,
	}

	event := &ErrorEvent{Execution: e, Err: stepErr}
	if hookErr := e.Hooks.OnError.Trigger(ctx, event); hookErr != nil {
		return "", fmt.Errorf("error hook failed: %w", hookErr)
	}

	if event.Handled {
		return event.Update, nil
	}

	return "", stepErr
}

func (e *Execution) runSteps(ctx context.Context, steps []Step, countSteps bool) error {
	total := e.Workflow.StepCount()

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		if countSteps {
			e.currentStep++
			e.progress = float64(e.currentStep) / float64(total)
		}

		update, err := e.runStep(ctx, step, i+1)
		if err != nil {
			return err
		}

		if countSteps {
			if err := e.Hooks.OnStep.Trigger(ctx, &StepEvent{
				Execution: e,
				Step:      step,
				Index:     e.currentStep,
				Update:    update,
			}); err != nil {
				return err
			}
		}

		if update != "" {
			if err := e.SendUpdate(ctx, update); err != nil {
				return err
			}
		}
	}

	return nil
}

// Execute runs the workflow and returns its results. The startup
// functions run first, then the main steps with progress tracking, then
// the cleanup functions. A step error aborts the run and fires the
// failure hook; on success the result and success hooks fire. The finish
// hook fires in every case.
func (e *Execution) Execute(ctx context.Context) (Results, error) {
	defer func() {
		_ = e.Hooks.OnFinish.Trigger(ctx, e)
	}()

	results, err := e.execute(ctx)
	if err != nil {
		e.Scope.Set("error", err)
		if hookErr := e.Hooks.OnFailure.Trigger(ctx, &FailureEvent{Execution: e, Err: err}); hookErr != nil {
			return nil, fmt.Errorf("failure hook failed: %w (original error: %v)", hookErr, err)
		}
		return nil, err
	}

	if err := e.Hooks.OnResult.Trigger(ctx, results); err != nil {
		return results, err
	}
	if err := e.Hooks.OnSuccess.Trigger(ctx, e); err != nil {
		return results, err
	}

	return results, nil
}

func (e *Execution) execute(ctx context.Context) (Results, error) {
	results := Results{}

	e.Scope.Set("workflow", e.Workflow)
	e.Scope.Set("execution", e)
	e.Scope.Set("results", results)

	for _, phase := range []struct {
		state      State
		steps      []Step
		countSteps bool
	}{
		{StateStartup, e.Workflow.StartupSteps(), false},
		{StateRunning, e.Workflow.Steps(), true},
		{StateCleanup, e.Workflow.CleanupSteps(), false},
	} {
		if err := e.setState(ctx, phase.state); err != nil {
			return nil, err
		}
		if err := e.runSteps(ctx, phase.steps, phase.countSteps); err != nil {
			return nil, err
		}
	}

	if err := e.setState(ctx, StateFinished); err != nil {
		return nil, err
	}

	return results, nil
}

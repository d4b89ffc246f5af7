package workflow

import (
	"context"
	"reflect"
	"runtime"
	"strings"
)

// StepFunc is a single unit of work in a workflow. The returned string is
// an optional progress update published through the execution's update
// hook; an empty string publishes nothing.
type StepFunc func(ctx context.Context, scope *Scope) (string, error)

// Step pairs a step function with a display name used in updates, errors,
// and job status pushes.
type Step struct {
	Name string
	Fn   StepFunc
}

// Workflow is an ordered collection of startup, step, and cleanup
// functions. Startup and cleanup functions do not count toward progress;
// the main steps do.
type Workflow struct {
	Name string

	startup []Step
	steps   []Step
	cleanup []Step
}

// New creates an empty workflow.
func New(name string) *Workflow {
	return &Workflow{Name: name}
}

// Startup appends a startup function, run before the main steps.
func (w *Workflow) Startup(fn StepFunc) *Workflow {
	w.startup = append(w.startup, Step{Name: funcName(fn), Fn: fn})
	return w
}

// Step appends a main step. Its name is derived from the function.
func (w *Workflow) Step(fn StepFunc) *Workflow {
	return w.NamedStep(funcName(fn), fn)
}

// NamedStep appends a main step with an explicit name.
func (w *Workflow) NamedStep(name string, fn StepFunc) *Workflow {
	w.steps = append(w.steps, Step{Name: name, Fn: fn})
	return w
}

// Cleanup appends a cleanup function, run after the main steps.
func (w *Workflow) Cleanup(fn StepFunc) *Workflow {
	w.cleanup = append(w.cleanup, Step{Name: funcName(fn), Fn: fn})
	return w
}

// StartupSteps returns the startup functions in order.
func (w *Workflow) StartupSteps() []Step {
	return slicesClone(w.startup)
}

// Steps returns the main steps in order.
func (w *Workflow) Steps() []Step {
	return slicesClone(w.steps)
}

// CleanupSteps returns the cleanup functions in order.
func (w *Workflow) CleanupSteps() []Step {
	return slicesClone(w.cleanup)
}

// StepCount returns the number of main steps.
func (w *Workflow) StepCount() int {
	return len(w.steps)
}

func slicesClone(steps []Step) []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}

// funcName derives a short display name from a function value.
func funcName(fn StepFunc) string {
	if fn == nil {
		return "<nil>"
	}

	full := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()

	// Trim the package path and any closure suffixes like ".func1".
	if idx := strings.LastIndex(full, "/"); idx >= 0 {
		full = full[idx+1:]
	}
	if idx := strings.Index(full, "."); idx >= 0 {
		full = full[idx+1:]
	}
	full = strings.TrimSuffix(full, "-fm")

	if full == "" {
		return "step"
	}
	return full
}

package workflow

import (
	"context"
	"testing"
)

func noopStep(ctx context.Context, s *Scope) (string, error) {
	return "", nil
}

func TestWorkflow_Builder(t *testing.T) {
	wf := New("trim_reads").
		Startup(noopStep).
		Step(noopStep).
		Step(noopStep).
		Cleanup(noopStep)

	if wf.StepCount() != 2 {
		t.Errorf("StepCount = %d, want 2", wf.StepCount())
	}
	if len(wf.StartupSteps()) != 1 {
		t.Errorf("startup steps = %d, want 1", len(wf.StartupSteps()))
	}
	if len(wf.CleanupSteps()) != 1 {
		t.Errorf("cleanup steps = %d, want 1", len(wf.CleanupSteps()))
	}
}

func TestWorkflow_NamedStep(t *testing.T) {
	wf := New("x").NamedStep("map_reads", noopStep)

	if wf.Steps()[0].Name != "map_reads" {
		t.Errorf("step name = %q, want map_reads", wf.Steps()[0].Name)
	}
}

func TestWorkflow_DerivedStepName(t *testing.T) {
	wf := New("x").Step(noopStep)

	if wf.Steps()[0].Name != "noopStep" {
		t.Errorf("step name = %q, want noopStep", wf.Steps()[0].Name)
	}
}

func TestWorkflow_StepsAreCopies(t *testing.T) {
	wf := New("x").Step(noopStep)

	steps := wf.Steps()
	steps[0].Name = "mutated"

	if wf.Steps()[0].Name == "mutated" {
		t.Error("Steps() should return a copy")
	}
}

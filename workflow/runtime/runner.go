package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/virtool/integration-ctl/internal/logging"
	"github.com/virtool/integration-ctl/workflow"
	"github.com/virtool/integration-ctl/workflow/api"
)

// JobsAPI is the subset of the jobs API client the runner needs.
type JobsAPI interface {
	AcquireJob(ctx context.Context, jobID string) (*api.Job, error)
	PushStatus(ctx context.Context, jobID string, status api.JobStatus) (*api.JobStatus, error)
}

// Runner acquires jobs and executes workflows for them, reporting
// progress back through the jobs API.
type Runner struct {
	cfg      Config
	client   JobsAPI
	registry *workflow.Registry
}

// NewRunner creates a runner using the given jobs API client and fixture
// registry. The registry may be nil.
func NewRunner(cfg Config, client JobsAPI, registry *workflow.Registry) *Runner {
	if registry == nil {
		registry = workflow.NewRegistry()
	}
	return &Runner{cfg: cfg, client: client, registry: registry}
}

// RunJob acquires the job, executes the workflow in a fresh scope, and
// pushes a status entry for every main step plus a terminal complete or
// error entry. The scope exposes the acquired job under "job", its ID
// under "job_id", its arguments under "job_args", the API client under
// "jobs_api", and the scratch directory under "work_dir".
func (r *Runner) RunJob(ctx context.Context, jobID string, wf *workflow.Workflow) (workflow.Results, error) {
	job, err := r.client.AcquireJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire job %s: %w", jobID, err)
	}

	logging.Info("acquired job", "job", job.ID, "task", job.Task, "workflow", wf.Name)

	scope := workflow.NewScope(r.registry)
	defer func() {
		if err := scope.Close(ctx); err != nil {
			logging.Warn("fixture teardown failed", "job", job.ID, "error", err)
		}
	}()

	scope.Set("job", job)
	scope.Set("job_id", job.ID)
	scope.Set("job_args", job.Args)
	scope.Set("jobs_api", r.client)
	scope.Set("work_dir", r.cfg.WorkDir)

	execution := workflow.NewExecution(wf, scope)

	execution.Hooks.OnStep.Register(func(ctx context.Context, event *workflow.StepEvent) error {
		_, err := r.client.PushStatus(ctx, job.ID, api.JobStatus{
			State:     api.StateRunning,
			Stage:     event.Step.Name,
			Progress:  event.Execution.Progress(),
			Timestamp: time.Now().UTC(),
		})
		return err
	})

	results, err := execution.Execute(ctx)
	if err != nil {
		r.pushTerminal(ctx, job.ID, api.JobStatus{
			State:     terminalState(ctx),
			Progress:  execution.Progress(),
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return nil, err
	}

	r.pushTerminal(ctx, job.ID, api.JobStatus{
		State:     api.StateComplete,
		Progress:  1.0,
		Timestamp: time.Now().UTC(),
	})

	logging.Info("job complete", "job", job.ID)
	return results, nil
}

// pushTerminal reports the final state of a job. The run itself already
// succeeded or failed, so a reporting error is only logged.
func (r *Runner) pushTerminal(ctx context.Context, jobID string, status api.JobStatus) {
	// The run's context may already be cancelled.
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
	}

	if _, err := r.client.PushStatus(ctx, jobID, status); err != nil {
		logging.Warn("failed to push terminal status", "job", jobID, "state", status.State, "error", err)
	}
}

func terminalState(ctx context.Context) string {
	if ctx.Err() != nil {
		return api.StateCancelled
	}
	return api.StateError
}

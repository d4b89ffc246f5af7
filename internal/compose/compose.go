// Package compose runs the integration test stack through docker-compose.
package compose

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/virtool/integration-ctl/internal/logging"
	"github.com/virtool/integration-ctl/internal/system"
)

// Runner shells out to docker-compose in a fixed project directory.
type Runner struct {
	// Dir is the directory containing docker-compose.yml.
	Dir string

	// TestService is the service whose exit code decides the run.
	TestService string

	// Env holds extra KEY=VALUE pairs passed to every invocation.
	Env []string

	exec system.CommandExecutor
	fs   system.FileSystem
}

// NewRunner creates a Runner using the default system implementations.
func NewRunner(dir, testService string) *Runner {
	return NewRunnerWith(dir, testService, system.DefaultExecutor(), system.DefaultFS())
}

// NewRunnerWith creates a Runner with explicit system implementations.
func NewRunnerWith(dir, testService string, exec system.CommandExecutor, fs system.FileSystem) *Runner {
	return &Runner{
		Dir:         dir,
		TestService: testService,
		exec:        exec,
		fs:          fs,
	}
}

// SetEnv appends a KEY=VALUE pair for subsequent invocations.
func (r *Runner) SetEnv(key, value string) {
	r.Env = append(r.Env, key+"="+value)
}

// command resolves the compose invocation: the standalone docker-compose
// binary when available, the docker compose plugin otherwise.
func (r *Runner) command() (string, []string, error) {
	if _, err := r.exec.LookPath("docker-compose"); err == nil {
		return "docker-compose", nil, nil
	}
	if _, err := r.exec.LookPath("docker"); err == nil {
		return "docker", []string{"compose"}, nil
	}
	return "", nil, fmt.Errorf("neither docker-compose nor docker found in PATH")
}

// environment merges the project .env file (when present) with the
// runner's extra variables. Extra variables win.
func (r *Runner) environment() []string {
	var env []string

	envFile := filepath.Join(r.Dir, ".env")
	if r.fs.Exists(envFile) {
		data, err := r.fs.ReadFile(envFile)
		if err == nil {
			vars, err := godotenv.Unmarshal(string(data))
			if err != nil {
				logging.Warn("failed to parse .env file", "path", envFile, "error", err)
			} else {
				for k, v := range vars {
					env = append(env, k+"="+v)
				}
			}
		}
	}

	return append(env, r.Env...)
}

// Up runs the stack and blocks until the test service exits. The returned
// exit code is the test service's exit code.
func (r *Runner) Up(ctx context.Context) (int, error) {
	name, base, err := r.command()
	if err != nil {
		return -1, err
	}

	args := append(base, "up", "--exit-code-from", r.TestService)

	logging.Debug("starting compose stack", "dir", r.Dir, "service", r.TestService)

	code, err := r.exec.ExecuteStreaming(ctx, system.ExecSpec{
		Dir: r.Dir,
		Env: r.environment(),
	}, name, args...)

	if err != nil && code < 0 {
		return code, fmt.Errorf("failed to run compose: %w", err)
	}

	return code, nil
}

// Down stops and removes the stack.
func (r *Runner) Down(ctx context.Context) error {
	name, base, err := r.command()
	if err != nil {
		return err
	}

	args := append(base, "down")

	logging.Debug("stopping compose stack", "dir", r.Dir)

	if _, err := r.exec.ExecuteStreaming(ctx, system.ExecSpec{
		Dir: r.Dir,
		Env: r.environment(),
	}, name, args...); err != nil {
		return fmt.Errorf("failed to stop compose stack: %w", err)
	}

	return nil
}

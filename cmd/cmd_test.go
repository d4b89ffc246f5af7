package cmd

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/virtool/integration-ctl/internal/errors"
	"github.com/virtool/integration-ctl/internal/system"
)

// clearFlagState marks every flag on the command tree as unset so that
// mutual-exclusion checks do not see flags from earlier invocations.
func clearFlagState(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	for _, sub := range c.Commands() {
		clearFlagState(sub)
	}
}

// executeCommand runs the root command with args, capturing output.
func executeCommand(args ...string) (string, string, error) {
	// Reset flag values before each test
	buildVirtoolRepo = ""
	buildVirtoolBranch = ""
	buildWorkflowRepo = ""
	buildWorkflowBranch = ""
	buildLocalVirtool = ""
	buildLocalWorkflow = ""
	buildDockerArgs = ""
	configFile = ""
	verbose = false
	jsonOutput = false
	clearFlagState(rootCmd)

	cmd := rootCmd
	cmd.SetArgs(args)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()

	// Reset args for next test
	cmd.SetArgs(nil)
	cmd.SetOut(nil)
	cmd.SetErr(nil)

	return stdout.String(), stderr.String(), err
}

// setupMocks installs a mock filesystem and executor, restoring the
// defaults when the test finishes.
func setupMocks(t *testing.T) (*system.MockFS, *system.MockExecutor) {
	t.Helper()

	fs := system.NewMockFS()
	exec := system.NewMockExecutor()

	system.SetDefaultFS(fs)
	system.SetDefaultExecutor(exec)
	t.Cleanup(system.ResetDefaults)

	return fs, exec
}

func TestRootCommand_Help(t *testing.T) {
	stdout, _, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("Help command failed: %v", err)
	}

	if !strings.Contains(stdout, "integration-ctl") {
		t.Error("Help output should contain 'integration-ctl'")
	}

	if !strings.Contains(stdout, "integration test") {
		t.Error("Help output should mention integration tests")
	}
}

func TestGlobalFlags(t *testing.T) {
	stdout, _, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("Help failed: %v", err)
	}

	if !strings.Contains(stdout, "--verbose") {
		t.Error("Should have --verbose flag")
	}

	if !strings.Contains(stdout, "--json") {
		t.Error("Should have --json flag")
	}
}

func TestBuildCommand_Help(t *testing.T) {
	stdout, _, err := executeCommand("build", "--help")
	if err != nil {
		t.Fatalf("Help command failed: %v", err)
	}

	for _, flag := range []string{
		"--virtool-repo",
		"--virtool-branch",
		"--virtool-workflow-repo",
		"--virtool-workflow-branch",
		"--local-virtool",
		"--local-virtool-workflow",
		"--docker-args",
	} {
		if !strings.Contains(stdout, flag) {
			t.Errorf("Build help should mention %s", flag)
		}
	}

	for _, sub := range []string{"workflow", "integration", "jobs-api"} {
		if !strings.Contains(stdout, sub) {
			t.Errorf("Build help should list the %s subcommand", sub)
		}
	}
}

func TestBuildWorkflow_LocalPath(t *testing.T) {
	fs, exec := setupMocks(t)
	fs.AddDir("/src/virtool-workflow")

	_, _, err := executeCommand("build", "workflow", "--local-virtool-workflow", "/src/virtool-workflow")
	if err != nil {
		t.Fatalf("build workflow failed: %v", err)
	}

	commands := exec.CommandStrings()
	if len(commands) != 1 {
		t.Fatalf("expected one docker build, got %v", commands)
	}

	cmd := commands[0]
	if !strings.Contains(cmd, "docker build") {
		t.Errorf("expected docker build, got %q", cmd)
	}
	if !strings.Contains(cmd, "-t virtool/workflow") {
		t.Errorf("expected workflow tag, got %q", cmd)
	}
	if !strings.HasSuffix(cmd, "/src/virtool-workflow") {
		t.Errorf("expected local build context, got %q", cmd)
	}
}

func TestBuildWorkflow_ClonesRemote(t *testing.T) {
	fs, exec := setupMocks(t)
	_ = fs

	_, _, err := executeCommand("build", "workflow", "--virtool-workflow-repo", "https://github.com/example/wf@dev")
	if err != nil {
		t.Fatalf("build workflow failed: %v", err)
	}

	commands := exec.CommandStrings()
	if len(commands) != 2 {
		t.Fatalf("expected clone then build, got %v", commands)
	}

	if !strings.Contains(commands[0], "git clone --depth 1 --branch dev https://github.com/example/wf") {
		t.Errorf("unexpected clone command %q", commands[0])
	}
	if !strings.Contains(commands[1], "docker build") {
		t.Errorf("unexpected build command %q", commands[1])
	}
}

func TestBuildWorkflow_LocalThenRemote(t *testing.T) {
	fs, exec := setupMocks(t)
	fs.AddDir("/src/wf")

	// A --local-virtool-workflow run must not leave flag state behind
	// that trips the mutual-exclusion check on the next invocation.
	_, _, err := executeCommand("build", "workflow", "--local-virtool-workflow", "/src/wf")
	if err != nil {
		t.Fatalf("local build failed: %v", err)
	}

	_, _, err = executeCommand("build", "workflow", "--virtool-workflow-repo", "https://github.com/example/wf@dev")
	if err != nil {
		t.Fatalf("remote build after local build failed: %v", err)
	}

	commands := exec.CommandStrings()
	if len(commands) != 3 {
		t.Fatalf("expected local build, clone and remote build, got %v", commands)
	}
	if !strings.Contains(commands[1], "git clone") {
		t.Errorf("expected the second invocation to clone, got %q", commands[1])
	}
}

func TestBuildWorkflow_DockerArgs(t *testing.T) {
	fs, exec := setupMocks(t)
	fs.AddDir("/src/wf")

	_, _, err := executeCommand(
		"build", "workflow",
		"--local-virtool-workflow", "/src/wf",
		"--docker-args", "--no-cache --build-arg 'VERSION=1.0'",
	)
	if err != nil {
		t.Fatalf("build workflow failed: %v", err)
	}

	cmd := exec.CommandStrings()[0]
	if !strings.Contains(cmd, "--no-cache") {
		t.Errorf("expected --no-cache passed through, got %q", cmd)
	}
	if !strings.Contains(cmd, "VERSION=1.0") {
		t.Errorf("expected build arg passed through, got %q", cmd)
	}
}

func TestBuildWorkflow_InvalidDockerArgs(t *testing.T) {
	fs, _ := setupMocks(t)
	fs.AddDir("/src/wf")

	_, _, err := executeCommand(
		"build", "workflow",
		"--local-virtool-workflow", "/src/wf",
		"--docker-args", "'unterminated",
	)
	if err == nil {
		t.Fatal("expected error for unbalanced quotes in --docker-args")
	}
}

func TestBuildWorkflow_ConfigFlag(t *testing.T) {
	fs, exec := setupMocks(t)
	fs.AddDir("/src/wf")
	fs.AddFile("/etc/integration-ctl/integration.toml", []byte(
		"[workflow]\ntag = \"custom/workflow\"\n",
	), 0644)

	_, _, err := executeCommand(
		"build", "workflow",
		"--config", "/etc/integration-ctl/integration.toml",
		"--local-virtool-workflow", "/src/wf",
	)
	if err != nil {
		t.Fatalf("build workflow failed: %v", err)
	}

	cmd := exec.CommandStrings()[0]
	if !strings.Contains(cmd, "-t custom/workflow") {
		t.Errorf("expected tag from --config file, got %q", cmd)
	}
}

func TestBuildWorkflow_ConfigFlagMissingFile(t *testing.T) {
	setupMocks(t)

	_, _, err := executeCommand("build", "workflow", "--config", "/does/not/exist.toml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}

	if got := errors.GetExitCode(err); got != errors.ExitConfigError {
		t.Errorf("expected config-error exit code, got %d", got)
	}
}

func TestBuildWorkflow_CloneFailureExitCode(t *testing.T) {
	_, exec := setupMocks(t)
	exec.AddResponse("git clone", []byte("fatal: repository not found"), fmt.Errorf("exit status 128"))

	_, _, err := executeCommand("build", "workflow", "--virtool-workflow-repo", "https://github.com/example/missing")
	if err == nil {
		t.Fatal("expected error when the clone fails")
	}

	if got := errors.GetExitCode(err); got != errors.ExitCloneFailed {
		t.Errorf("expected clone-failed exit code, got %d", got)
	}
}

func TestBuildIntegration_UsesHarnessCheckout(t *testing.T) {
	fs, exec := setupMocks(t)
	fs.AddDir(".")

	_, _, err := executeCommand("build", "integration")
	if err != nil {
		t.Fatalf("build integration failed: %v", err)
	}

	cmd := exec.CommandStrings()[0]
	if !strings.Contains(cmd, "-t virtool/integration_test_workflow") {
		t.Errorf("expected integration tag, got %q", cmd)
	}
	if strings.Contains(cmd, "git clone") {
		t.Errorf("integration image should not clone, got %q", cmd)
	}
}

func TestUpCommand_Passes(t *testing.T) {
	_, exec := setupMocks(t)
	exec.AddExitResponse("docker-compose up", 0, nil)

	_, _, err := executeCommand("up")
	if err != nil {
		t.Fatalf("up failed: %v", err)
	}

	cmd := exec.CommandStrings()[0]
	if !strings.Contains(cmd, "up --exit-code-from integration_test_workflow") {
		t.Errorf("unexpected compose command %q", cmd)
	}
}

func TestUpCommand_TestFailurePropagatesExitCode(t *testing.T) {
	_, exec := setupMocks(t)
	exec.AddExitResponse("docker-compose up", 3, nil)

	_, _, err := executeCommand("up")
	if err == nil {
		t.Fatal("expected error when test service exits non-zero")
	}

	if got := errors.GetExitCode(err); got != 3 {
		t.Errorf("expected exit code 3, got %d", got)
	}
}

func TestDownCommand(t *testing.T) {
	_, exec := setupMocks(t)
	exec.AddExitResponse("docker-compose down", 0, nil)

	_, _, err := executeCommand("down")
	if err != nil {
		t.Fatalf("down failed: %v", err)
	}

	cmd := exec.CommandStrings()[0]
	if !strings.Contains(cmd, "down") {
		t.Errorf("unexpected compose command %q", cmd)
	}
}

func TestRunCommand_NamedWorkflow(t *testing.T) {
	fs, exec := setupMocks(t)
	fs.AddFile("workflows/use_fixtures.yml", []byte(
		"name: use_fixtures\nfile: use_fixtures.py\n",
	), 0644)
	exec.AddExitResponse("docker-compose up", 0, nil)

	_, _, err := executeCommand("run", "use_fixtures")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(exec.Commands) == 0 {
		t.Fatal("expected compose up to run")
	}

	env := exec.Commands[len(exec.Commands)-1].Env
	found := false
	for _, kv := range env {
		if strings.HasPrefix(kv, "VT_WORKFLOW_FILE=") && strings.Contains(kv, "use_fixtures.py") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected VT_WORKFLOW_FILE in compose environment, got %v", env)
	}
}

func TestRunCommand_UnknownWorkflow(t *testing.T) {
	fs, _ := setupMocks(t)
	fs.AddFile("workflows/other.yml", []byte("name: other\nfile: other.py\n"), 0644)

	_, _, err := executeCommand("run", "missing")
	if err == nil {
		t.Fatal("expected error for unknown workflow")
	}

	if got := errors.GetExitCode(err); got != errors.ExitWorkflowNotFound {
		t.Errorf("expected workflow-not-found exit code, got %d", got)
	}
}

func TestStatusCommand(t *testing.T) {
	_, exec := setupMocks(t)

	inspectJSON := []byte(`[{"Id": "sha256:0123456789abcdef", "Created": "2024-01-01T00:00:00Z", "Size": 104857600}]`)
	exec.AddResponse("docker image", inspectJSON, nil)

	stdout, _, err := executeCommand("status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}

	for _, tag := range []string{"virtool/workflow", "virtool/integration_test_workflow", "virtool/jobs-api"} {
		if !strings.Contains(stdout, tag) {
			t.Errorf("status output should mention %s", tag)
		}
	}

	if !strings.Contains(stdout, "0123456789ab") {
		t.Errorf("status output should show the short image ID, got:\n%s", stdout)
	}
}

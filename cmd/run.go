package cmd

import (
	"github.com/spf13/cobra"

	"github.com/virtool/integration-ctl/internal/config"
	"github.com/virtool/integration-ctl/internal/errors"
	"github.com/virtool/integration-ctl/internal/logging"
	"github.com/virtool/integration-ctl/internal/manifest"
	"github.com/virtool/integration-ctl/internal/system"
	"github.com/virtool/integration-ctl/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run [workflow]",
	Short: "Run a single integration test workflow",
	Long: `Run one integration test workflow under docker-compose.

With a workflow name, that workflow runs directly. Without one, an
interactive picker lists the workflows discovered in the workflows
directory. The selected workflow's file is passed to the test container
through the VT_WORKFLOW_FILE environment variable.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var wf *manifest.Workflow
	if len(args) == 1 {
		wf, err = manifest.Find(system.DefaultFS(), cfg.WorkflowsDir, args[0])
		if err != nil {
			return errors.WorkflowNotFound(args[0])
		}
	} else {
		wf, err = pickWorkflow(cfg)
		if err != nil {
			return err
		}
		if wf == nil {
			// Picker dismissed without a selection.
			return nil
		}
	}

	file, err := wf.ResolveFile(cfg.WorkflowsDir)
	if err != nil {
		return errors.ManifestError("invalid workflow file", err)
	}

	runner := composeRunner(cfg)
	runner.SetEnv("VT_WORKFLOW_FILE", file)
	for key, value := range wf.Env {
		runner.SetEnv(key, value)
	}

	logInfo("Running workflow %s...", wf.Name)
	logging.Debug("selected workflow", "name", wf.Name, "file", file)

	code, err := runner.Up(cmd.Context())
	if err != nil {
		return errors.ComposeFailed("up", err)
	}
	if code != 0 {
		logError("Workflow %s failed (exit code %d)", wf.Name, code)
		return errors.ComposeExit(code)
	}

	logSuccess("Workflow %s passed", wf.Name)
	return nil
}

func pickWorkflow(cfg *config.Config) (*manifest.Workflow, error) {
	workflows, err := listWorkflows(cfg)
	if err != nil {
		return nil, err
	}

	result, err := tui.RunPicker(workflows)
	if err != nil {
		return nil, errors.Wrap(errors.ExitGeneralError, "workflow picker failed", err)
	}

	if result.Action != tui.ActionRun {
		return nil, nil
	}
	return result.Workflow, nil
}

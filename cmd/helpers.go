package cmd

import (
	"github.com/virtool/integration-ctl/internal/compose"
	"github.com/virtool/integration-ctl/internal/config"
	"github.com/virtool/integration-ctl/internal/errors"
	"github.com/virtool/integration-ctl/internal/manifest"
	"github.com/virtool/integration-ctl/internal/system"
)

// loadConfig loads the harness configuration from the --config path when
// given, otherwise from the search path, falling back to defaults when no
// integration.toml exists.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		cfg, err := config.LoadFile(system.DefaultFS(), configFile)
		if err != nil {
			return nil, errors.ConfigError("failed to load "+configFile, err)
		}
		return cfg, nil
	}
	return config.Load(system.DefaultFS())
}

// composeRunner creates a compose runner for the configured directory.
func composeRunner(cfg *config.Config) *compose.Runner {
	return compose.NewRunner(cfg.ComposeDir, cfg.TestService)
}

// listWorkflows discovers the workflow manifests in the configured
// directory, failing if there are none.
func listWorkflows(cfg *config.Config) ([]*manifest.Workflow, error) {
	workflows, err := manifest.Discover(system.DefaultFS(), cfg.WorkflowsDir)
	if err != nil {
		return nil, errors.ManifestError("failed to discover workflows", err)
	}
	if len(workflows) == 0 {
		return nil, errors.New(errors.ExitWorkflowNotFound, "no workflow manifests found in "+cfg.WorkflowsDir)
	}
	return workflows, nil
}

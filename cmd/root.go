package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/virtool/integration-ctl/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "integration-ctl",
	Short: "Virtool integration test harness CLI",
	Long: `integration-ctl builds and runs black-box integration tests for the
Virtool workflow system.

It builds three Docker images:
  - virtool/workflow                  the workflow runtime base image
  - virtool/integration_test_workflow the test workflows themselves
  - virtool/jobs-api                  the jobs API server

and runs them together with Redis, MongoDB, and PostgreSQL under
docker-compose. The exit code of the test workflow container decides
whether the run passed.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose, jsonOutput, os.Stderr)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to the configuration file (default: integration.toml search path)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
	logError   = logging.UserError
)

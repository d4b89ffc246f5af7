package cmd

import (
	"github.com/spf13/cobra"

	"github.com/virtool/integration-ctl/internal/errors"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Run the integration test environment",
	Long: `Start the integration test environment with docker-compose and block
until the test workflow container exits. The run passes when that
container exits zero; its exit code becomes this command's exit code
otherwise.`,
	Args: cobra.NoArgs,
	RunE: runUp,
}

func init() {
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logInfo("Starting integration test environment...")

	code, err := composeRunner(cfg).Up(cmd.Context())
	if err != nil {
		return errors.ComposeFailed("up", err)
	}
	if code != 0 {
		logError("Integration tests failed (exit code %d)", code)
		return errors.ComposeExit(code)
	}

	logSuccess("Integration tests passed")
	return nil
}

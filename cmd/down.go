package cmd

import (
	"github.com/spf13/cobra"

	"github.com/virtool/integration-ctl/internal/errors"
)

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop and remove the integration test environment",
	Args:  cobra.NoArgs,
	RunE:  runDown,
}

func init() {
	rootCmd.AddCommand(downCmd)
}

func runDown(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logInfo("Stopping integration test environment...")

	if err := composeRunner(cfg).Down(cmd.Context()); err != nil {
		return errors.ComposeFailed("down", err)
	}

	logSuccess("Environment removed")
	return nil
}

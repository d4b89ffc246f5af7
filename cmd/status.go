package cmd

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/virtool/integration-ctl/internal/images"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the local state of the integration test images",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	builder := images.NewBuilder()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Images:")
	for _, name := range []string{"workflow", "integration", "jobs-api"} {
		imageCfg := cfg.Images()[name]

		info, err := builder.Inspect(cmd.Context(), imageCfg.Tag)
		if err != nil {
			return err
		}

		if !info.Present {
			fmt.Fprintf(out, "  %s: not built\n", info.Tag)
			continue
		}

		fmt.Fprintf(out, "  %s: %s (%s, created %s)\n", info.Tag, info.ID, units.HumanSize(float64(info.Size)), info.Created)
	}

	return nil
}

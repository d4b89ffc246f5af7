package cmd

import (
	"context"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/virtool/integration-ctl/internal/config"
	"github.com/virtool/integration-ctl/internal/errors"
	"github.com/virtool/integration-ctl/internal/gitsrc"
	"github.com/virtool/integration-ctl/internal/images"
	"github.com/virtool/integration-ctl/internal/logging"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the integration test images",
	Long: `Build the Docker images used by the integration test environment.

With no subcommand all three images are built: the workflow base image,
the integration test workflow image, and the jobs API image. The
workflow and jobs API sources are cloned from their configured remotes
unless a local checkout is given with --local-virtool-workflow or
--local-virtool.`,
	RunE: runBuildAll,
}

var buildWorkflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Build the virtool/workflow base image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildImages(cmd.Context(), "workflow")
	},
}

var buildIntegrationCmd = &cobra.Command{
	Use:   "integration",
	Short: "Build the virtool/integration_test_workflow image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildImages(cmd.Context(), "integration")
	},
}

var buildJobsAPICmd = &cobra.Command{
	Use:   "jobs-api",
	Short: "Build the virtool/jobs-api image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildImages(cmd.Context(), "jobs-api")
	},
}

var (
	buildVirtoolRepo    string
	buildVirtoolBranch  string
	buildWorkflowRepo   string
	buildWorkflowBranch string
	buildLocalVirtool   string
	buildLocalWorkflow  string
	buildDockerArgs     string
)

func init() {
	flags := buildCmd.PersistentFlags()
	flags.StringVar(&buildVirtoolRepo, "virtool-repo", "", "Remote virtool repository (url or url@ref)")
	flags.StringVar(&buildVirtoolBranch, "virtool-branch", "", "Branch of the virtool repository to build")
	flags.StringVar(&buildWorkflowRepo, "virtool-workflow-repo", "", "Remote virtool-workflow repository (url or url@ref)")
	flags.StringVar(&buildWorkflowBranch, "virtool-workflow-branch", "", "Branch of the virtool-workflow repository to build")
	flags.StringVar(&buildLocalVirtool, "local-virtool", "", "Build the jobs API from a local virtool checkout instead of cloning")
	flags.StringVar(&buildLocalWorkflow, "local-virtool-workflow", "", "Build the workflow image from a local virtool-workflow checkout instead of cloning")
	flags.StringVar(&buildDockerArgs, "docker-args", "", "Extra arguments passed to docker build (quoted, shell-style)")

	buildCmd.MarkFlagsMutuallyExclusive("virtool-repo", "local-virtool")
	buildCmd.MarkFlagsMutuallyExclusive("virtool-workflow-repo", "local-virtool-workflow")

	buildCmd.AddCommand(buildWorkflowCmd)
	buildCmd.AddCommand(buildIntegrationCmd)
	buildCmd.AddCommand(buildJobsAPICmd)
	rootCmd.AddCommand(buildCmd)
}

func runBuildAll(cmd *cobra.Command, args []string) error {
	return buildImages(cmd.Context(), "workflow", "integration", "jobs-api")
}

// resolveImage combines the configured image with the command-line
// overrides for one build target.
func resolveImage(cfg *config.Config, name string) (images.Image, error) {
	imageCfg, ok := cfg.Images()[name]
	if !ok {
		return images.Image{}, errors.New(errors.ExitGeneralError, "unknown image "+name)
	}

	img := images.Image{
		Tag:        imageCfg.Tag,
		Dockerfile: imageCfg.Dockerfile,
	}

	if buildDockerArgs != "" {
		extra, err := shellquote.Split(buildDockerArgs)
		if err != nil {
			return images.Image{}, errors.ValidationError("invalid --docker-args: " + err.Error())
		}
		img.ExtraArgs = extra
	}

	switch name {
	case "workflow":
		img.LocalPath = buildLocalWorkflow
		img.Source = resolveSource(imageCfg, buildWorkflowRepo, buildWorkflowBranch)
	case "jobs-api":
		img.LocalPath = buildLocalVirtool
		img.Source = resolveSource(imageCfg, buildVirtoolRepo, buildVirtoolBranch)
	case "integration":
		// The test workflow image always builds from the harness
		// checkout itself.
		img.LocalPath = cfg.ComposeDir
	}

	return img, nil
}

// resolveSource applies --*-repo and --*-branch overrides on top of the
// configured remote. A repo override may carry its own ref as url@ref;
// an explicit branch flag wins over it.
func resolveSource(imageCfg *config.ImageConfig, repoFlag, branchFlag string) gitsrc.Source {
	src := gitsrc.Source{Repo: imageCfg.Remote, Branch: imageCfg.Branch}

	if repoFlag != "" {
		src = gitsrc.ParseRemote(repoFlag)
		if src.Branch == "" {
			src.Branch = imageCfg.Branch
		}
	}
	if branchFlag != "" {
		src.Branch = branchFlag
	}

	return src
}

func buildImages(ctx context.Context, names ...string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	builder := images.NewBuilder()

	for _, name := range names {
		img, err := resolveImage(cfg, name)
		if err != nil {
			return err
		}

		logging.Debug("resolved build", "image", name, "tag", img.Tag, "local", img.LocalPath, "repo", img.Source.Repo, "branch", img.Source.Branch)

		if err := builder.Build(ctx, img); err != nil {
			var ctlErr *errors.CtlError
			if errors.As(err, &ctlErr) {
				return err
			}
			return errors.BuildFailed(img.Tag, err)
		}
	}

	return nil
}

// Package images builds and inspects the Docker images used by the
// integration tests.
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/virtool/integration-ctl/internal/errors"
	"github.com/virtool/integration-ctl/internal/gitsrc"
	"github.com/virtool/integration-ctl/internal/logging"
	"github.com/virtool/integration-ctl/internal/system"
)

// Image describes a single docker build.
type Image struct {
	// Tag is the image tag, e.g. "virtool/workflow".
	Tag string

	// Dockerfile is the path to the Dockerfile.
	Dockerfile string

	// LocalPath is a local directory used as the build context.
	// When empty, Source is cloned instead.
	LocalPath string

	// Source is the remote repository providing the build context.
	Source gitsrc.Source

	// ExtraArgs are additional arguments passed to docker build.
	ExtraArgs []string
}

// Builder executes docker builds through the system executor.
type Builder struct {
	exec   system.CommandExecutor
	fs     system.FileSystem
	cloner *gitsrc.Cloner
}

// NewBuilder creates a Builder using the default system implementations.
func NewBuilder() *Builder {
	return NewBuilderWith(system.DefaultExecutor(), system.DefaultFS())
}

// NewBuilderWith creates a Builder with explicit system implementations.
func NewBuilderWith(exec system.CommandExecutor, fs system.FileSystem) *Builder {
	return &Builder{
		exec:   exec,
		fs:     fs,
		cloner: gitsrc.NewClonerWith(exec, fs),
	}
}

// resolveContext returns the build context directory for the image,
// cloning the remote source when no local path is given.
func (b *Builder) resolveContext(ctx context.Context, img Image) (string, func(), error) {
	if img.LocalPath != "" {
		if !b.fs.IsDir(img.LocalPath) {
			return "", nil, fmt.Errorf("build context %s is not a directory", img.LocalPath)
		}
		return img.LocalPath, func() {}, nil
	}

	logging.UserInfo("Cloning %s...", img.Source.Repo)
	dir, cleanup, err := b.cloner.Clone(ctx, img.Source)
	if err != nil {
		return "", nil, errors.CloneFailed(img.Source.Repo, err)
	}
	return dir, cleanup, nil
}

// Build builds the image, streaming docker output to the terminal.
func (b *Builder) Build(ctx context.Context, img Image) error {
	if img.Tag == "" {
		return fmt.Errorf("image tag is required")
	}

	buildContext, cleanup, err := b.resolveContext(ctx, img)
	if err != nil {
		return err
	}
	defer cleanup()

	args := []string{"build", "-f", img.Dockerfile, "-t", img.Tag}
	args = append(args, img.ExtraArgs...)
	args = append(args, buildContext)

	logging.Debug("building image", "tag", img.Tag, "dockerfile", img.Dockerfile, "context", buildContext)
	logging.UserInfo("Building %s...", img.Tag)

	code, err := b.exec.ExecuteStreaming(ctx, system.ExecSpec{}, "docker", args...)
	if err != nil {
		return fmt.Errorf("docker build exited with code %d: %w", code, err)
	}

	logging.UserSuccess("Built %s", img.Tag)
	return nil
}

// Info holds the locally inspected state of an image.
type Info struct {
	Tag     string
	Present bool
	ID      string
	Created string
	Size    int64
}

// dockerImageInspect holds the relevant fields from docker image inspect.
type dockerImageInspect struct {
	ID      string `json:"Id"`
	Created string `json:"Created"`
	Size    int64  `json:"Size"`
}

// Inspect returns the local state of the tagged image. A missing image is
// not an error; Present is false.
func (b *Builder) Inspect(ctx context.Context, tag string) (*Info, error) {
	info := &Info{Tag: tag}

	output, err := b.exec.Execute(ctx, "docker", "image", "inspect", tag)
	if err != nil {
		if strings.Contains(string(output), "No such image") ||
			strings.Contains(err.Error(), "No such image") {
			return info, nil
		}
		return nil, fmt.Errorf("docker image inspect failed: %w", err)
	}

	var inspects []dockerImageInspect
	if err := json.Unmarshal(output, &inspects); err != nil {
		return nil, fmt.Errorf("failed to parse docker inspect output: %w", err)
	}
	if len(inspects) == 0 {
		return info, nil
	}

	info.Present = true
	info.ID = shortID(inspects[0].ID)
	info.Created = inspects[0].Created
	info.Size = inspects[0].Size

	return info, nil
}

// shortID trims a sha256-prefixed image ID to the familiar 12 characters.
func shortID(id string) string {
	id = strings.TrimPrefix(id, "sha256:")
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

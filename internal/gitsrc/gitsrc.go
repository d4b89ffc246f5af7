// Package gitsrc resolves remote git repositories into local build contexts.
package gitsrc

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/virtool/integration-ctl/internal/logging"
	"github.com/virtool/integration-ctl/internal/system"
)

// Source identifies a repository and the ref to check out.
type Source struct {
	Repo   string
	Branch string
}

// ParseRemote splits a remote of the form "url@ref" into its parts.
// A remote without a ref suffix has no branch.
func ParseRemote(remote string) Source {
	rest := remote
	if idx := strings.Index(remote, "://"); idx >= 0 {
		rest = remote[idx+3:]
	}

	at := strings.LastIndex(rest, "@")
	if at <= 0 {
		return Source{Repo: remote}
	}

	// An "@" before the first ":" or "/" is a user component
	// (git@host:path), not a ref separator.
	if sep := strings.IndexAny(rest, ":/"); sep == -1 || at < sep {
		return Source{Repo: remote}
	}

	offset := len(remote) - len(rest)
	return Source{
		Repo:   remote[:offset+at],
		Branch: rest[at+1:],
	}
}

// RepoName returns the directory name a clone of the repo produces.
func (s Source) RepoName() string {
	name := path.Base(s.Repo)
	return strings.TrimSuffix(name, ".git")
}

// Cloner performs shallow clones through the system executor.
type Cloner struct {
	exec system.CommandExecutor
	fs   system.FileSystem
}

// NewCloner creates a Cloner using the default system implementations.
func NewCloner() *Cloner {
	return &Cloner{
		exec: system.DefaultExecutor(),
		fs:   system.DefaultFS(),
	}
}

// NewClonerWith creates a Cloner with explicit system implementations.
func NewClonerWith(exec system.CommandExecutor, fs system.FileSystem) *Cloner {
	return &Cloner{exec: exec, fs: fs}
}

// Clone shallow-clones the source into a fresh temporary directory and
// returns the path of the checked-out repository. The caller owns the
// returned cleanup function.
func (c *Cloner) Clone(ctx context.Context, src Source) (string, func(), error) {
	if src.Repo == "" {
		return "", nil, fmt.Errorf("no repository given")
	}

	stagingDir, err := c.fs.MkdirTemp("", "integration-ctl-clone-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	cleanup := func() {
		if err := c.fs.RemoveAll(stagingDir); err != nil {
			logging.Warn("failed to remove staging directory", "dir", stagingDir, "error", err)
		}
	}

	args := []string{"clone", "--depth", "1"}
	if src.Branch != "" {
		args = append(args, "--branch", src.Branch)
	}
	args = append(args, src.Repo, path.Join(stagingDir, src.RepoName()))

	logging.Debug("cloning repository", "repo", src.Repo, "branch", src.Branch, "staging", stagingDir)

	out, err := c.exec.Execute(ctx, "git", args...)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("git clone failed: %w\n%s", err, strings.TrimSpace(string(out)))
	}

	return path.Join(stagingDir, src.RepoName()), cleanup, nil
}

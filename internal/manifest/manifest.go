// Package manifest discovers integration test workflow definitions.
//
// Each test workflow is described by a YAML file in the workflows
// directory:
//
//	name: cancellation
//	description: Cancel a running job through the jobs API.
//	file: integration_test_workflows/cancellation.py
//	env:
//	  VT_DEV_MODE: "1"
//
// The file path is resolved inside the workflows directory; manifests
// cannot reference files outside it.
package manifest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"gopkg.in/yaml.v3"

	"github.com/virtool/integration-ctl/internal/config"
	"github.com/virtool/integration-ctl/internal/system"
)

// Workflow is a single integration test workflow definition.
type Workflow struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	File        string            `yaml:"file"`
	Env         map[string]string `yaml:"env"`

	// Path is the manifest file the definition was loaded from.
	Path string `yaml:"-"`
}

// Validate checks that the workflow definition is usable.
func (w *Workflow) Validate() error {
	if err := config.ValidateWorkflowName(w.Name); err != nil {
		return err
	}
	if w.File == "" {
		return fmt.Errorf("workflow %s: file is required", w.Name)
	}
	return nil
}

// ResolveFile joins the workflow file to the workflows directory,
// rejecting paths that escape it.
func (w *Workflow) ResolveFile(workflowsDir string) (string, error) {
	resolved, err := securejoin.SecureJoin(workflowsDir, w.File)
	if err != nil {
		return "", fmt.Errorf("workflow %s: invalid file path %q: %w", w.Name, w.File, err)
	}
	return resolved, nil
}

// isManifestFile reports whether a directory entry looks like a workflow
// manifest. Files starting with "_" are skipped.
func isManifestFile(name string) bool {
	if strings.HasPrefix(name, "_") {
		return false
	}
	ext := filepath.Ext(name)
	return ext == ".yml" || ext == ".yaml"
}

// Discover loads all workflow manifests in the given directory, sorted by
// name. A missing directory yields an empty list.
func Discover(fs system.FileSystem, dir string) ([]*Workflow, error) {
	if !fs.Exists(dir) {
		return nil, nil
	}

	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflows directory %s: %w", dir, err)
	}

	seen := make(map[string]string)
	var workflows []*Workflow

	for _, entry := range entries {
		if entry.IsDir() || !isManifestFile(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		wf, err := loadFile(fs, path)
		if err != nil {
			return nil, err
		}

		if existing, ok := seen[wf.Name]; ok {
			return nil, fmt.Errorf("duplicate workflow name %s (%s and %s)", wf.Name, existing, path)
		}
		seen[wf.Name] = path

		workflows = append(workflows, wf)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].Name < workflows[j].Name
	})

	return workflows, nil
}

// Find returns the named workflow from the directory.
func Find(fs system.FileSystem, dir, name string) (*Workflow, error) {
	workflows, err := Discover(fs, dir)
	if err != nil {
		return nil, err
	}

	for _, wf := range workflows {
		if wf.Name == name {
			return wf, nil
		}
	}

	return nil, fmt.Errorf("no workflow named %s in %s", name, dir)
}

func loadFile(fs system.FileSystem, path string) (*Workflow, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	// A manifest without an explicit name takes the file's base name.
	if wf.Name == "" {
		base := filepath.Base(path)
		wf.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	wf.Path = path

	if err := wf.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	return &wf, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"

	"github.com/virtool/integration-ctl/internal/system"
)

// ConfigFileName is the name of the harness configuration file.
const ConfigFileName = "integration.toml"

// workflowNameRegex validates test workflow names.
// Names must start with a lowercase letter or digit, followed by lowercase
// letters, digits, underscores, or hyphens. Maximum length is 63 characters.
var workflowNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// ValidateWorkflowName checks if a test workflow name is valid.
func ValidateWorkflowName(name string) error {
	if name == "" {
		return fmt.Errorf("workflow name cannot be empty")
	}

	if !workflowNameRegex.MatchString(name) {
		return fmt.Errorf("invalid workflow name %q: must start with a lowercase letter or digit, contain only lowercase letters, digits, underscores, or hyphens, and be at most 63 characters", name)
	}

	return nil
}

// ImageConfig describes one of the images the harness builds.
type ImageConfig struct {
	Tag        string `toml:"tag"`
	Dockerfile string `toml:"dockerfile"`
	Remote     string `toml:"remote"`
	Branch     string `toml:"branch"`
}

// Validate checks that the ImageConfig is usable.
func (i *ImageConfig) Validate() error {
	if i.Tag == "" {
		return fmt.Errorf("tag is required")
	}
	if i.Dockerfile == "" {
		return fmt.Errorf("dockerfile is required")
	}
	return nil
}

// Config is the harness configuration loaded from integration.toml.
type Config struct {
	// ComposeDir is the directory containing docker-compose.yml.
	ComposeDir string `toml:"compose_dir"`

	// WorkflowsDir holds the integration test workflow manifests.
	WorkflowsDir string `toml:"workflows_dir"`

	// TestService is the compose service whose exit code decides the run.
	TestService string `toml:"test_service"`

	Workflow    ImageConfig `toml:"workflow"`
	Integration ImageConfig `toml:"integration"`
	JobsAPI     ImageConfig `toml:"jobs_api"`
}

// Default returns the configuration used when no integration.toml exists.
func Default() *Config {
	return &Config{
		ComposeDir:   ".",
		WorkflowsDir: "workflows",
		TestService:  "integration_test_workflow",
		Workflow: ImageConfig{
			Tag:        "virtool/workflow",
			Dockerfile: "docker/workflow.Dockerfile",
			Remote:     "https://github.com/virtool/virtool-workflow",
			Branch:     "master",
		},
		Integration: ImageConfig{
			Tag:        "virtool/integration_test_workflow",
			Dockerfile: "docker/integration.Dockerfile",
		},
		JobsAPI: ImageConfig{
			Tag:        "virtool/jobs-api",
			Dockerfile: "docker/jobs-api.Dockerfile",
			Remote:     "https://github.com/virtool/virtool",
			Branch:     "release/5.0.0",
		},
	}
}

// Validate checks that the Config is valid.
func (c *Config) Validate() error {
	if c.ComposeDir == "" {
		return fmt.Errorf("compose_dir is required")
	}
	if c.TestService == "" {
		return fmt.Errorf("test_service is required")
	}

	for name, img := range map[string]*ImageConfig{
		"workflow":    &c.Workflow,
		"integration": &c.Integration,
		"jobs_api":    &c.JobsAPI,
	} {
		if err := img.Validate(); err != nil {
			return fmt.Errorf("image %s: %w", name, err)
		}
	}

	return nil
}

// searchPaths returns the locations where integration.toml is looked for,
// in priority order: the working directory, then the user config directory.
func searchPaths() []string {
	paths := []string{ConfigFileName}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome != "" {
		paths = append(paths, filepath.Join(configHome, "integration-ctl", ConfigFileName))
	}

	return paths
}

// Load reads the harness configuration, falling back to defaults when no
// config file is present. Values absent from the file keep their defaults.
func Load(fs system.FileSystem) (*Config, error) {
	cfg := Default()

	for _, path := range searchPaths() {
		if !fs.Exists(path) {
			continue
		}

		data, err := fs.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		break
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile reads the harness configuration from an explicit path.
func LoadFile(fs system.FileSystem, path string) (*Config, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Images returns the image configurations keyed by their short names.
func (c *Config) Images() map[string]*ImageConfig {
	return map[string]*ImageConfig{
		"workflow":    &c.Workflow,
		"integration": &c.Integration,
		"jobs-api":    &c.JobsAPI,
	}
}

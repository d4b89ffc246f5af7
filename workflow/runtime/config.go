// Package runtime runs workflows against a live Virtool deployment.
//
// It reads its configuration from VT_-prefixed environment variables,
// acquires jobs through the jobs API, and listens on Redis for job
// IDs and cancellation notices.
package runtime

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds the environment-driven settings for a workflow runner.
type Config struct {
	// JobsAPIURL is the base URL of the Virtool jobs API.
	JobsAPIURL string `koanf:"jobs_api_url" validate:"required,url"`

	// RedisURL is the connection URL of the Redis instance holding the
	// job list and cancellation channel.
	RedisURL string `koanf:"redis_url" validate:"required"`

	// JobListName is the Redis list the runner pops job IDs from.
	JobListName string `koanf:"job_list_name" validate:"required"`

	// CancelChannel is the Redis pub/sub channel carrying IDs of
	// cancelled jobs.
	CancelChannel string `koanf:"cancel_channel" validate:"required"`

	// WorkDir is the scratch directory available to workflow steps.
	WorkDir string `koanf:"work_dir" validate:"required"`

	// DevMode relaxes error handling for local development.
	DevMode bool `koanf:"dev_mode"`
}

const envPrefix = "VT_"

// DefaultConfig returns a Config populated with development defaults.
func DefaultConfig() Config {
	return Config{
		JobsAPIURL:    "http://localhost:9950/api",
		RedisURL:      "redis://localhost:6379",
		JobListName:   "jobs_integration",
		CancelChannel: "channel:cancel",
		WorkDir:       "/work",
	}
}

// LoadConfig builds a Config from defaults overridden by VT_ environment
// variables, e.g. VT_JOBS_API_URL and VT_REDIS_URL.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	k := koanf.New(".")
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode runtime config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid runtime config: %w", err)
	}

	return cfg, nil
}

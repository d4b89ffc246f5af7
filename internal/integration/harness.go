package integration

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/virtool/integration-ctl/internal/config"
)

// Harness provides utilities for integration testing against a real
// Docker daemon.
type Harness struct {
	t       *testing.T
	tempDir string
	cfg     *config.Config
	images  []string // Track built images for cleanup
}

// NewHarness creates a new test harness.
// It will skip the test if VT_INTEGRATION_TESTS is not set or no Docker
// daemon is reachable.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	if os.Getenv("VT_INTEGRATION_TESTS") == "" {
		t.Skip("integration tests disabled (set VT_INTEGRATION_TESTS=1 to enable)")
	}

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not available: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, "docker", "info").Run(); err != nil {
		t.Skipf("docker not responsive: %v", err)
	}

	tempDir := t.TempDir()

	cfg := config.Default()
	cfg.ComposeDir = tempDir
	cfg.WorkflowsDir = filepath.Join(tempDir, "workflows")

	if err := os.MkdirAll(cfg.WorkflowsDir, 0755); err != nil {
		t.Fatalf("Failed to create workflows directory: %v", err)
	}

	h := &Harness{
		t:       t,
		tempDir: tempDir,
		cfg:     cfg,
	}

	t.Cleanup(h.Cleanup)

	return h
}

// Config returns the harness configuration rooted in the temp directory.
func (h *Harness) Config() *config.Config {
	return h.cfg
}

// Dir returns the harness root directory.
func (h *Harness) Dir() string {
	return h.tempDir
}

// AddWorkflow writes a workflow manifest into the workflows directory.
func (h *Harness) AddWorkflow(name, manifest string) string {
	h.t.Helper()

	path := filepath.Join(h.cfg.WorkflowsDir, name+".yml")
	if err := os.WriteFile(path, []byte(manifest), 0644); err != nil {
		h.t.Fatalf("Failed to write workflow manifest: %v", err)
	}
	return path
}

// AddFile writes an arbitrary file under the harness root, creating
// parent directories as needed.
func (h *Harness) AddFile(rel string, data []byte) string {
	h.t.Helper()

	path := filepath.Join(h.tempDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		h.t.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		h.t.Fatalf("Failed to write %s: %v", rel, err)
	}
	return path
}

// TrackImage tracks a built image for removal during cleanup.
func (h *Harness) TrackImage(tag string) {
	h.images = append(h.images, tag)
}

// Cleanup removes all tracked images.
func (h *Harness) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, tag := range h.images {
		if err := exec.CommandContext(ctx, "docker", "rmi", "-f", tag).Run(); err != nil {
			h.t.Logf("Warning: failed to remove image %s: %v", tag, err)
		}
	}
}

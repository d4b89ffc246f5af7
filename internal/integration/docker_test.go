package integration

import (
	"context"
	"testing"
	"time"

	"github.com/virtool/integration-ctl/internal/images"
)

// TestBuildAndInspect builds a minimal image from a live Docker daemon
// and verifies it can be inspected afterwards.
func TestBuildAndInspect(t *testing.T) {
	h := NewHarness(t)

	h.AddFile("docker/test.Dockerfile", []byte("FROM scratch\nCOPY marker.txt /marker.txt\n"))
	h.AddFile("marker.txt", []byte("integration-ctl build test\n"))

	tag := "integration-ctl/test-build"
	h.TrackImage(tag)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	builder := images.NewBuilder()

	err := builder.Build(ctx, images.Image{
		Tag:        tag,
		Dockerfile: h.Dir() + "/docker/test.Dockerfile",
		LocalPath:  h.Dir(),
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	info, err := builder.Inspect(ctx, tag)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	if !info.Present {
		t.Fatal("expected built image to be present")
	}
	if info.ID == "" {
		t.Error("expected a short image ID")
	}
}

// TestInspectMissingImage verifies that inspecting an absent tag reports
// Present=false without an error.
func TestInspectMissingImage(t *testing.T) {
	h := NewHarness(t)
	_ = h

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	info, err := images.NewBuilder().Inspect(ctx, "integration-ctl/does-not-exist")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.Present {
		t.Error("expected missing image to report Present=false")
	}
}

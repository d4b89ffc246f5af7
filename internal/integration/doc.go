// Package integration provides a test harness for tests that require a
// real Docker daemon.
//
// Integration tests are skipped unless the VT_INTEGRATION_TESTS
// environment variable is set. These tests require:
//   - A running Docker daemon
//   - docker-compose or the docker compose plugin
//   - Network access for image pulls
//
// # Test Harness
//
// Harness manages test environments:
//
//	func TestMyIntegration(t *testing.T) {
//	    h := integration.NewHarness(t) // Skips if env var not set
//
//	    h.AddWorkflow("smoke", "name: smoke\nfile: smoke.py\n")
//	    cfg := h.Config()
//
//	    // Build images, run compose...
//
//	    // Cleanup is automatic via t.Cleanup
//	}
//
// # Running Integration Tests
//
//	VT_INTEGRATION_TESTS=1 go test -v ./internal/integration/...
package integration

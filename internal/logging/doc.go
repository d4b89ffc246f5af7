// Package logging provides logging utilities for integration-ctl.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("building image", "tag", tag, "context", context)
//	logging.Warn("compose file missing", "dir", dir)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Cloning %s...", repo)
//	logging.UserSuccess("Built %s", tag)
//	logging.UserWarning("Image %s not found", tag)
//	logging.UserError("Build failed: %v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: stdout
//   - UserWarning, UserError: stderr
package logging
